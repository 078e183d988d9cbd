package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

// readFile ファイルを開いて全体を読み込む。存在しない場合はErrFileNotFound
func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCannotOpen, path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCannotOpen, path, err)
	}
	return data, nil
}

// recordFromMapping キーと値の組からレコードを組み立てる（JSON・YAML共通）
//
// スペイン語のキーを優先し、無い場合のみ英語名のキーを参照する。
func recordFromMapping(position int, mapping map[string]domain.RawValue) domain.Record {
	rec := domain.Record{Unit: domain.UnitIndex, Position: position}
	for _, field := range domain.Fields {
		value, found := mapping[field]
		if !found {
			value, found = mapping[domain.Alias(field)]
		}
		if found {
			rec.Set(field, value)
		}
	}
	return rec
}

// notMappingRecord キーと値の組ではない要素をレコード単位のエラーとして返す
func notMappingRecord(position int, kind string) domain.Record {
	return domain.Record{
		Unit:     domain.UnitIndex,
		Position: position,
		Err:      fmt.Errorf("%w: %s", domain.ErrNotMapping, kind),
	}
}

// readerContextDone ファイル読み込み前にキャンセル済みかを確認する
func readerContextDone(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
