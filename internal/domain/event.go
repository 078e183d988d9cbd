package domain

import "cloud.google.com/go/civil"

// Event カレンダーイベントのドメインエンティティ
//
// NewEventで検証済みの値としてのみ生成され、生成後は変更できない。
type Event struct {
	title       string
	description string
	category    string
	startDate   civil.Date
	endDate     *civil.Date
	startTime   string
	endTime     string
}

// NewEvent レコードを検証してEventを生成
func NewEvent(rec Record) (Event, error) {
	if rec.Err != nil {
		return Event{}, rec.Err
	}

	// 必須項目の確認
	for _, field := range RequiredFields {
		if rec.Get(field).IsEmpty() {
			return Event{}, &FieldError{Field: field, Err: ErrMissingField}
		}
	}

	startDate, err := parseDate(FieldStartDate, rec.StartDate)
	if err != nil {
		return Event{}, err
	}

	// 終了日は任意
	var endDate *civil.Date
	if !rec.EndDate.IsEmpty() {
		d, err := parseDate(FieldEndDate, rec.EndDate)
		if err != nil {
			return Event{}, err
		}
		if d.Before(startDate) {
			return Event{}, &RangeError{Start: startDate.String(), End: d.String()}
		}
		endDate = &d
	}

	return Event{
		title:       rec.Title.String(),
		description: rec.Description.String(),
		category:    rec.Category.String(),
		startDate:   startDate,
		endDate:     endDate,
		startTime:   clockText(rec.StartTime),
		endTime:     clockText(rec.EndTime),
	}, nil
}

func (e Event) Title() string         { return e.title }
func (e Event) Description() string   { return e.description }
func (e Event) Category() string      { return e.category }
func (e Event) StartDate() civil.Date { return e.startDate }

// EndDate 終了日。設定されていない場合はfalse
func (e Event) EndDate() (civil.Date, bool) {
	if e.endDate == nil {
		return civil.Date{}, false
	}
	return *e.endDate, true
}

// StartTime 開始時刻（"HH:MM"形式を想定、未検証）。未設定なら空文字
func (e Event) StartTime() string { return e.startTime }

// EndTime 終了時刻（"HH:MM"形式を想定、未検証）。未設定なら空文字
func (e Event) EndTime() string { return e.endTime }

// IsMultiDay 複数日にまたがるイベントならtrue
func (e Event) IsMultiDay() bool {
	return e.endDate != nil && e.endDate.After(e.startDate)
}

// BuildEvents レコードを順に検証し、全件成功した場合のみイベントを返す
//
// 1件でも失敗した場合は途中で止めずに全レコードを検証し、
// すべての失敗を*LoadErrorにまとめて返す。
func BuildEvents(source string, records []Record) ([]Event, error) {
	events := make([]Event, 0, len(records))
	var errs []*RecordError

	for _, rec := range records {
		ev, err := NewEvent(rec)
		if err != nil {
			errs = append(errs, &RecordError{Unit: rec.Unit, Position: rec.Position, Err: err})
			continue
		}
		events = append(events, ev)
	}

	if len(errs) > 0 {
		return nil, &LoadError{Source: source, Errors: errs}
	}
	return events, nil
}
