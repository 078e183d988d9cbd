package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ドキュメント単位の致命的なエラー
var (
	ErrFileNotFound      = errors.New("ファイルが見つかりません")
	ErrMalformedDocument = errors.New("ドキュメントを解析できません")
	ErrWrongShape        = errors.New("ドキュメントのルートがイベントのリストではありません")
	ErrCannotOpen        = errors.New("ファイルを開けません")
	ErrMissingColumn     = errors.New("必須の列がありません")
)

// レコード単位のエラー（集約して報告される）
var (
	ErrMissingField          = errors.New("必須項目がありません")
	ErrBadDateFormat         = errors.New("日付の形式が正しくありません")
	ErrUnrecognizedDateValue = errors.New("日付として認識できない値です")
	ErrIncoherentRange       = errors.New("終了日が開始日より前になっています")
	ErrNotMapping            = errors.New("レコードがキーと値の組ではありません")
)

// FieldError 特定のフィールドに関する検証エラー
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	switch {
	case errors.Is(e.Err, ErrMissingField):
		return fmt.Sprintf("%v: %s", e.Err, e.Field)
	case errors.Is(e.Err, ErrBadDateFormat):
		return fmt.Sprintf("%v: %s=%q (YYYY-MM-DD)", e.Err, e.Field, e.Value)
	}
	return fmt.Sprintf("%v: %s=%s", e.Err, e.Field, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// RangeError 開始日と終了日の前後関係が不正
type RangeError struct {
	Start string
	End   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: %s=%s, %s=%s", ErrIncoherentRange, FieldStartDate, e.Start, FieldEndDate, e.End)
}

func (e *RangeError) Unwrap() error {
	return ErrIncoherentRange
}

// RecordError 何番目のレコードで失敗したかを保持するエラー
type RecordError struct {
	Unit     Unit
	Position int
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Unit, e.Position, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// LoadError 1回の読み込みで発生したレコード単位のエラーをまとめたもの
type LoadError struct {
	Source string
	Errors []*RecordError
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%sのイベント検証で%d件のエラーが見つかりました:", e.Source, len(e.Errors)))
	for _, recErr := range e.Errors {
		b.WriteString("\n")
		b.WriteString(recErr.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, recErr := range e.Errors {
		errs = append(errs, recErr)
	}
	return errs
}
