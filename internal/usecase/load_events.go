package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

// RecordSource 入力元からレコードを読み込むポート
type RecordSource interface {
	SourceName() string
	ReadRecords(ctx context.Context) ([]domain.Record, error)
}

// MetricsRecorder 読み込み結果を記録するポート
type MetricsRecorder interface {
	ObserveLoaded(source string, events int)
	ObserveFailure(source string, err error)
}

// LoadEventsUseCase イベント読み込みユースケース
type LoadEventsUseCase struct {
	recorder MetricsRecorder
	logger   *slog.Logger
}

// NewLoadEventsUseCase ユースケースを生成
func NewLoadEventsUseCase(recorder MetricsRecorder, logger *slog.Logger) *LoadEventsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadEventsUseCase{
		recorder: recorder,
		logger:   logger,
	}
}

// Execute 入力元からレコードを読み込み、すべて検証できた場合のみイベントを返す
//
// ドキュメント単位のエラーはそのまま、レコード単位のエラーは*domain.LoadErrorとして返す。
func (uc *LoadEventsUseCase) Execute(ctx context.Context, src RecordSource) ([]domain.Event, error) {
	source := src.SourceName()

	records, err := src.ReadRecords(ctx)
	if err != nil {
		uc.logger.Error("load failed", "source", source, "err", err)
		uc.recorder.ObserveFailure(source, err)
		return nil, err
	}

	events, err := domain.BuildEvents(source, records)
	if err != nil {
		rejected := 0
		var loadErr *domain.LoadError
		if errors.As(err, &loadErr) {
			rejected = len(loadErr.Errors)
		}
		uc.logger.Warn("load failed", "source", source, "records", len(records), "rejected", rejected)
		uc.recorder.ObserveFailure(source, err)
		return nil, err
	}

	uc.logger.Info("load completed", "source", source, "events", len(events))
	uc.recorder.ObserveLoaded(source, len(events))
	return events, nil
}
