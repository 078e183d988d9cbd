package gateway

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"gopkg.in/yaml.v3"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

// YAMLReader イベントのシーケンスを持つYAMLファイルの読み込み
type YAMLReader struct {
	path string
}

// NewYAMLReader YAMLリーダーを作成
func NewYAMLReader(path string) *YAMLReader {
	return &YAMLReader{path: path}
}

// SourceName 読み込み元の名前
func (r *YAMLReader) SourceName() string {
	return "YAML"
}

// ReadRecords ファイルを解析し、シーケンスの要素ごとにレコードを返す
//
// !!timestamp と明示的にタグ付けされた値のみ日付・日時として扱う。
// タグなしの 2024-07-01 は引用符の有無にかかわらずテキストとして厳密に検証される。
func (r *YAMLReader) ReadRecords(ctx context.Context) ([]domain.Record, error) {
	if err := readerContextDone(ctx); err != nil {
		return nil, err
	}

	data, err := readFile(r.path)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: YAMLの解析に失敗しました: %v", domain.ErrMalformedDocument, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: YAMLドキュメントが空です", domain.ErrWrongShape)
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: YAMLのルートが%sです", domain.ErrWrongShape, yamlKind(root))
	}

	records := make([]domain.Record, 0, len(root.Content))
	for i, item := range root.Content {
		item = resolveAlias(item)
		if item.Kind != yaml.MappingNode {
			records = append(records, notMappingRecord(i+1, yamlKind(item)))
			continue
		}

		mapping := make(map[string]domain.RawValue, len(item.Content)/2)
		for k := 0; k+1 < len(item.Content); k += 2 {
			mapping[item.Content[k].Value] = yamlValue(item.Content[k+1])
		}
		records = append(records, recordFromMapping(i+1, mapping))
	}
	return records, nil
}

// yamlValue YAMLのノードをRawValueに変換する
func yamlValue(n *yaml.Node) domain.RawValue {
	n = resolveAlias(n)
	if n.Kind != yaml.ScalarNode {
		var v any
		if err := n.Decode(&v); err != nil {
			return domain.Text(n.Value)
		}
		return domain.Other(v)
	}

	// yaml.v3はタグなしの日付らしい値も!!timestampと解決する
	if n.Style&yaml.TaggedStyle == 0 && n.ShortTag() == "!!timestamp" {
		return domain.Text(n.Value)
	}

	switch n.ShortTag() {
	case "!!null":
		return domain.Absent()
	case "!!str":
		return domain.Text(n.Value)
	case "!!timestamp":
		if d, err := civil.ParseDate(n.Value); err == nil {
			return domain.Date(d)
		}
		var t time.Time
		if err := n.Decode(&t); err == nil {
			return domain.DateTime(t)
		}
		return domain.Text(n.Value)
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return domain.Text(n.Value)
	}
	return domain.Other(v)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func yamlKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "マッピング"
	case yaml.SequenceNode:
		return "シーケンス"
	case yaml.ScalarNode:
		return "スカラー(" + n.ShortTag() + ")"
	}
	return "不明なノード"
}
