package domain

import (
	"fmt"
	"reflect"
	"time"

	"cloud.google.com/go/civil"
)

// ValueKind RawValueが保持している値の種類
type ValueKind int

const (
	KindAbsent ValueKind = iota
	KindText
	KindDate
	KindDateTime
	KindOther
)

// RawValue 入力元から取り出したままの未検証の値
type RawValue struct {
	kind     ValueKind
	text     string
	date     civil.Date
	dateTime time.Time
	other    any
}

// Absent 値が存在しないことを表す
func Absent() RawValue {
	return RawValue{}
}

// Text テキスト値
func Text(s string) RawValue {
	return RawValue{kind: KindText, text: s}
}

// Date 日付のみの値
func Date(d civil.Date) RawValue {
	return RawValue{kind: KindDate, date: d}
}

// DateTime 日時の値
func DateTime(t time.Time) RawValue {
	return RawValue{kind: KindDateTime, dateTime: t}
}

// Other 日付・テキスト以外の値（数値、真偽値、入れ子のオブジェクトなど）
func Other(v any) RawValue {
	if v == nil {
		return Absent()
	}
	return RawValue{kind: KindOther, other: v}
}

// Kind 値の種類を返す
func (v RawValue) Kind() ValueKind {
	return v.kind
}

// IsEmpty 値が存在しない、または空（偽）とみなされる場合にtrue
func (v RawValue) IsEmpty() bool {
	switch v.kind {
	case KindAbsent:
		return true
	case KindText:
		return v.text == ""
	case KindDate, KindDateTime:
		return false
	}

	rv := reflect.ValueOf(v.other)
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// String 値を表示用の文字列に変換する
func (v RawValue) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindDate:
		return v.date.String()
	case KindDateTime:
		return v.dateTime.Format("2006-01-02 15:04:05")
	case KindOther:
		return fmt.Sprint(v.other)
	}
	return ""
}

// parseDate 日付として解釈できる値をcivil.Dateに正規化する
func parseDate(field string, v RawValue) (civil.Date, error) {
	switch v.kind {
	case KindDate:
		return v.date, nil
	case KindDateTime:
		return civil.DateOf(v.dateTime), nil
	case KindText:
		d, err := civil.ParseDate(v.text)
		if err != nil {
			return civil.Date{}, &FieldError{Field: field, Value: v.text, Err: ErrBadDateFormat}
		}
		return d, nil
	}
	return civil.Date{}, &FieldError{Field: field, Value: fmt.Sprintf("%#v", v.other), Err: ErrUnrecognizedDateValue}
}

// clockText 時刻フィールドを検証せずにテキストへ変換する
func clockText(v RawValue) string {
	if v.kind == KindDateTime {
		return v.dateTime.Format("15:04")
	}
	return v.String()
}
