package gateway

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

// ICSReader iCalendarファイルの読み込み
type ICSReader struct {
	path string
}

// NewICSReader iCalendarリーダーを作成
func NewICSReader(path string) *ICSReader {
	return &ICSReader{path: path}
}

// SourceName 読み込み元の名前
func (r *ICSReader) SourceName() string {
	return "iCalendar"
}

// ReadRecords VEVENTごとにレコードを返す
func (r *ICSReader) ReadRecords(ctx context.Context) ([]domain.Record, error) {
	if err := readerContextDone(ctx); err != nil {
		return nil, err
	}

	data, err := readFile(r.path)
	if err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: iCalendarファイルが空です", domain.ErrMalformedDocument)
	}
	if !bytes.HasPrefix(bytes.ToUpper(body), []byte("BEGIN:VCALENDAR")) {
		return nil, fmt.Errorf("%w: BEGIN:VCALENDARで始まっていません", domain.ErrMalformedDocument)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: iCalendarの解析に失敗しました: %v", domain.ErrMalformedDocument, err)
	}

	events := cal.Events()
	records := make([]domain.Record, 0, len(events))
	for i, ve := range events {
		records = append(records, vEventRecord(i+1, ve))
	}
	return records, nil
}

// vEventRecord VEVENTをレコードに変換する
func vEventRecord(position int, ve *ical.VEvent) domain.Record {
	rec := domain.Record{Unit: domain.UnitComponent, Position: position}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		rec.Title = domain.Text(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		rec.Description = domain.Text(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		first, _, _ := strings.Cut(p.Value, ",")
		rec.Category = domain.Text(strings.TrimSpace(first))
	}

	start := ve.GetProperty(ical.ComponentPropertyDtStart)
	if start != nil {
		if isAllDay(start) {
			rec.StartDate = allDayValue(start.Value, 0)
		} else if t, err := ve.GetStartAt(); err == nil {
			rec.StartDate = domain.DateTime(t)
			rec.StartTime = domain.Text(t.Format("15:04"))
		} else {
			rec.StartDate = domain.Text(start.Value)
		}
	}

	if end := ve.GetProperty(ical.ComponentPropertyDtEnd); end != nil {
		if isAllDay(end) {
			// 終日イベントのDTENDは翌日（排他的）なので1日戻す
			rec.EndDate = allDayValue(end.Value, -1)
			if start != nil && end.Value == start.Value {
				rec.EndDate = allDayValue(end.Value, 0)
			}
		} else if t, err := ve.GetEndAt(); err == nil {
			rec.EndDate = domain.DateTime(t)
			rec.EndTime = domain.Text(t.Format("15:04"))
		} else {
			rec.EndDate = domain.Text(end.Value)
		}
	}

	return rec
}

// isAllDay VALUE=DATE、または時刻部分を持たない値なら終日
func isAllDay(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// allDayValue YYYYMMDD形式の日付をoffsetDays日ずらして返す
func allDayValue(v string, offsetDays int) domain.RawValue {
	t, err := time.Parse("20060102", strings.TrimSpace(v))
	if err != nil {
		return domain.Text(v)
	}
	return domain.Date(civil.DateOf(t).AddDays(offsetDays))
}
