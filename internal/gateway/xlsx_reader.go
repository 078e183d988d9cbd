package gateway

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

// XLSXReader 1行目を見出しとするExcelワークブックの読み込み
//
// アクティブなシートを対象とし、見出しは
// titulo, descripcion, categoria, fecha_inicio, fecha_fin, hora_inicio, hora_fin を想定する。
type XLSXReader struct {
	path string
}

// NewXLSXReader Excelリーダーを作成
func NewXLSXReader(path string) *XLSXReader {
	return &XLSXReader{path: path}
}

// SourceName 読み込み元の名前
func (r *XLSXReader) SourceName() string {
	return "Excel"
}

// ReadRecords 見出しを確認した上で、空行を除くデータ行ごとにレコードを返す
func (r *XLSXReader) ReadRecords(ctx context.Context) ([]domain.Record, error) {
	if err := readerContextDone(ctx); err != nil {
		return nil, err
	}

	wb, err := excelize.OpenFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, r.path)
		}
		return nil, fmt.Errorf("%w: Excelを開けませんでした: %v", domain.ErrCannotOpen, err)
	}
	defer wb.Close()

	sheet := wb.GetSheetName(wb.GetActiveSheetIndex())
	// 書式で非表示になる値も空行判定で見落とさないよう、書式適用前の値を読む
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: シート %q を読み込めませんでした: %v", domain.ErrCannotOpen, sheet, err)
	}

	s := &sheetReader{wb: wb, sheet: sheet}
	if props, err := wb.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		s.date1904 = *props.Date1904
	}

	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	columns := headerColumns(header)

	// 必須列の確認（データ行を読む前に判定する）
	for _, field := range domain.RequiredFields {
		if _, ok := columns[field]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumn, field)
		}
	}

	records := make([]domain.Record, 0, len(rows))
	for i := 1; i < len(rows); i++ {
		rowNum := i + 1
		if isBlankRow(rows[i]) {
			continue
		}

		rec := domain.Record{Unit: domain.UnitRow, Position: rowNum}
		for _, field := range domain.Fields {
			col, ok := columns[field]
			if !ok {
				continue
			}
			value, err := s.cellValue(col, rowNum)
			if err != nil {
				return nil, fmt.Errorf("%w: セルを読み込めませんでした: %v", domain.ErrCannotOpen, err)
			}
			rec.Set(field, value)
		}
		records = append(records, rec)
	}
	return records, nil
}

// headerColumns 見出し名から列番号（1始まり）への対応を作る
//
// 同じ見出しが複数ある場合は最初の列を採用し、空の見出しは無視する。
// スペイン語の見出しが無い場合のみ英語名の見出しを参照する。
func headerColumns(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if _, exists := byName[name]; !exists {
			byName[name] = i + 1
		}
	}

	columns := make(map[string]int, len(domain.Fields))
	for _, field := range domain.Fields {
		if col, ok := byName[field]; ok {
			columns[field] = col
		} else if col, ok := byName[domain.Alias(field)]; ok {
			columns[field] = col
		}
	}
	return columns
}

// isBlankRow シート上のすべての列の保存値が空ならtrue（認識しない列も含む）
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

type sheetReader struct {
	wb       *excelize.File
	sheet    string
	date1904 bool
}

// cellValue セルの型に応じてRawValueを返す
func (s *sheetReader) cellValue(col, row int) (domain.RawValue, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return domain.Absent(), err
	}

	cellType, err := s.wb.GetCellType(s.sheet, cell)
	if err != nil {
		return domain.Absent(), err
	}
	raw, err := s.wb.GetCellValue(s.sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Absent(), err
	}

	switch cellType {
	case excelize.CellTypeUnset:
		if raw == "" {
			return domain.Absent(), nil
		}
		return s.numericValue(cell, raw)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return domain.Text(raw), nil
	case excelize.CellTypeBool:
		return domain.Other(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeDate:
		return isoCellValue(raw), nil
	case excelize.CellTypeNumber, excelize.CellTypeFormula:
		return s.numericValue(cell, raw)
	}
	return domain.Other(raw), nil
}

// numericValue 数値セルを日付書式なら日付、それ以外は数値として返す
func (s *sheetReader) numericValue(cell, raw string) (domain.RawValue, error) {
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// 数式の結果が文字列の場合など
		return domain.Text(raw), nil
	}

	isDate, err := s.hasDateFormat(cell)
	if err != nil {
		return domain.Absent(), err
	}
	if !isDate {
		return domain.Other(num), nil
	}

	t, err := excelize.ExcelDateToTime(num, s.date1904)
	if err != nil {
		return domain.Other(num), nil
	}
	return dateOrDateTime(t), nil
}

func (s *sheetReader) hasDateFormat(cell string) (bool, error) {
	styleID, err := s.wb.GetCellStyle(s.sheet, cell)
	if err != nil {
		return false, err
	}
	if styleID == 0 {
		return false, nil
	}
	style, err := s.wb.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt), nil
	}
	return isBuiltinDateFormat(style.NumFmt), nil
}

// isBuiltinDateFormat 組み込みの日付・時刻書式ID
func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode ユーザー定義の書式が日付・時刻を表すか判定する
//
// 引用符・角括弧・エスケープされた文字を除いた上で、年・日・時・秒の指定を含むかで判断する。
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, c := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(c)
		}
	}
	return strings.ContainsAny(b.String(), "ydhs")
}

// isoCellValue t="d" のセル（ISO 8601形式）を変換する
func isoCellValue(raw string) domain.RawValue {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return dateOrDateTime(t)
		}
	}
	if d, err := civil.ParseDate(raw); err == nil {
		return domain.Date(d)
	}
	return domain.Text(raw)
}

// dateOrDateTime 時刻部分が0時ちょうどなら日付として扱う
func dateOrDateTime(t time.Time) domain.RawValue {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return domain.Date(civil.DateOf(t))
	}
	return domain.DateTime(t)
}
