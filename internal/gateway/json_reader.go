package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

// JSONReader イベントの配列を持つJSONファイルの読み込み
//
// 期待する構造:
//
//	[
//	  {
//	    "titulo": "Evento 1",
//	    "descripcion": "Descripcion del evento 1",
//	    "categoria": "Categoria A",
//	    "fecha_inicio": "2024-07-01",
//	    "fecha_fin": "2024-07-03",
//	    "hora_inicio": "10:00",
//	    "hora_fin": "12:00"
//	  }
//	]
type JSONReader struct {
	path string
}

// NewJSONReader JSONリーダーを作成
func NewJSONReader(path string) *JSONReader {
	return &JSONReader{path: path}
}

// SourceName 読み込み元の名前
func (r *JSONReader) SourceName() string {
	return "JSON"
}

// ReadRecords ファイルを解析し、配列の要素ごとにレコードを返す
func (r *JSONReader) ReadRecords(ctx context.Context) ([]domain.Record, error) {
	if err := readerContextDone(ctx); err != nil {
		return nil, err
	}

	data, err := readFile(r.path)
	if err != nil {
		return nil, err
	}

	root, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: JSONの解析に失敗しました: %v", domain.ErrMalformedDocument, err)
	}

	items, ok := root.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: JSONのルートが%sです", domain.ErrWrongShape, jsonKind(root))
	}

	records := make([]domain.Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			records = append(records, notMappingRecord(i+1, jsonKind(item)))
			continue
		}
		mapping := make(map[string]domain.RawValue, len(obj))
		for key, value := range obj {
			mapping[key] = jsonValue(value)
		}
		records = append(records, recordFromMapping(i+1, mapping))
	}
	return records, nil
}

// decodeJSON 数値の精度を保ったまま1つのJSON値をデコードする。後続データがあればエラー
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("JSON値の後に余分なデータがあります")
	}
	return root, nil
}

// jsonValue JSONのスカラー値をRawValueに変換する。JSONには日付型が無いため日付は常にテキスト
func jsonValue(v any) domain.RawValue {
	if num, ok := v.(json.Number); ok {
		if n, err := num.Int64(); err == nil {
			return domain.Other(n)
		}
		if f, err := num.Float64(); err == nil {
			return domain.Other(f)
		}
		return domain.Text(num.String())
	}
	switch val := v.(type) {
	case nil:
		return domain.Absent()
	case string:
		return domain.Text(val)
	}
	return domain.Other(v)
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "オブジェクト"
	case string:
		return "文字列"
	case json.Number:
		return "数値"
	case bool:
		return "真偽値"
	case []any:
		return "配列"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
