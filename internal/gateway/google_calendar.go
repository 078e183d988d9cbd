package gateway

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

// categoryProperty カテゴリを保持する非公開拡張プロパティのキー
const categoryProperty = domain.FieldCategory

// EventsProvider Google Calendar APIからイベント一覧を取得するポート
type EventsProvider interface {
	ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error)
}

// calendarServiceProvider Calendar APIを使用したEventsProviderの実装
type calendarServiceProvider struct {
	service *calendar.Service
}

func (p *calendarServiceProvider) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error) {
	var items []*calendar.Event
	err := p.service.Events.List(calendarID).
		TimeMin(timeMin).
		TimeMax(timeMax).
		SingleEvents(true).
		OrderBy("startTime").
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GoogleCalendarRepository Google Calendarの指定期間の予定をレコードとして読み込む
type GoogleCalendarRepository struct {
	provider   EventsProvider
	calendarID string
	timezone   *time.Location
	from       time.Time
	to         time.Time
}

// NewGoogleCalendarRepository サービスアカウント認証でGoogle Calendarリポジトリを作成
func NewGoogleCalendarRepository(ctx context.Context, credentialsJSON []byte, calendarID string, timezone *time.Location) (*GoogleCalendarRepository, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("google認証情報の読み込みに失敗しました: %w", err)
	}

	service, err := calendar.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("google Calendar APIサービスの作成に失敗しました: %w", err)
	}

	return NewGoogleCalendarRepositoryWithProvider(&calendarServiceProvider{service: service}, calendarID, timezone), nil
}

// NewGoogleCalendarRepositoryWithProvider 任意のEventsProviderでリポジトリを作成
func NewGoogleCalendarRepositoryWithProvider(provider EventsProvider, calendarID string, timezone *time.Location) *GoogleCalendarRepository {
	if timezone == nil {
		timezone = time.UTC
	}
	return &GoogleCalendarRepository{
		provider:   provider,
		calendarID: calendarID,
		timezone:   timezone,
	}
}

// Window 取得対象期間を設定したコピーを返す
//
// from の日の00:00:00 (inclusive) から to の日の00:00:00 (exclusive) まで。
func (r *GoogleCalendarRepository) Window(from, to time.Time) *GoogleCalendarRepository {
	c := *r
	c.from = startOfDay(from, r.timezone)
	c.to = startOfDay(to, r.timezone)
	return &c
}

// SourceName 読み込み元の名前
func (r *GoogleCalendarRepository) SourceName() string {
	return "Google Calendar"
}

// ReadRecords 期間内の予定を開始時刻順にレコードとして返す
func (r *GoogleCalendarRepository) ReadRecords(ctx context.Context) ([]domain.Record, error) {
	if !r.to.After(r.from) {
		return nil, fmt.Errorf("%w: 取得期間が不正です: %s - %s", domain.ErrCannotOpen,
			r.from.Format("2006-01-02"), r.to.Format("2006-01-02"))
	}

	// RFC3339形式に変換（タイムゾーン情報付き）
	timeMin := r.from.Format(time.RFC3339)
	timeMax := r.to.Format(time.RFC3339)

	items, err := r.provider.ListEvents(ctx, r.calendarID, timeMin, timeMax)
	if err != nil {
		return nil, fmt.Errorf("%w: カレンダーイベントの取得に失敗しました: %v", domain.ErrCannotOpen, err)
	}

	records := make([]domain.Record, 0, len(items))
	for i, item := range items {
		records = append(records, r.convertToRecord(i+1, item))
	}
	return records, nil
}

// convertToRecord Google Calendar APIのイベントをレコードに変換
func (r *GoogleCalendarRepository) convertToRecord(position int, event *calendar.Event) domain.Record {
	rec := domain.Record{
		Unit:        domain.UnitIndex,
		Position:    position,
		Title:       domain.Text(event.Summary),
		Description: domain.Text(event.Description),
		Category:    domain.Text(eventCategory(event)),
	}

	if event.Start != nil {
		rec.StartDate, rec.StartTime = r.eventDateTime(event.Start, 0)
	}
	if event.End != nil {
		// 終日イベントの終了日は排他的なので1日戻す
		offset := -1
		if event.Start != nil && event.Start.Date == event.End.Date {
			offset = 0
		}
		rec.EndDate, rec.EndTime = r.eventDateTime(event.End, offset)
	}
	return rec
}

// eventDateTime 時刻指定あり・終日の両方を日付と時刻の値に変換する
func (r *GoogleCalendarRepository) eventDateTime(edt *calendar.EventDateTime, allDayOffset int) (domain.RawValue, domain.RawValue) {
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			// 日付の検証エラーとして報告させる
			return domain.Text(edt.DateTime), domain.Absent()
		}
		t = t.In(r.timezone)
		return domain.DateTime(t), domain.Text(t.Format("15:04"))
	}
	if edt.Date != "" {
		t, err := time.Parse("2006-01-02", edt.Date)
		if err != nil {
			return domain.Text(edt.Date), domain.Absent()
		}
		return dateOrDateTime(t.AddDate(0, 0, allDayOffset)), domain.Absent()
	}
	return domain.Absent(), domain.Absent()
}

// eventCategory 拡張プロパティのカテゴリ、無ければイベント種別
func eventCategory(event *calendar.Event) string {
	if event.ExtendedProperties != nil {
		if c := event.ExtendedProperties.Private[categoryProperty]; c != "" {
			return c
		}
	}
	return event.EventType
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
