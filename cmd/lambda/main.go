package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/k-negishi/calendar-event-loader/internal/config"
	"github.com/k-negishi/calendar-event-loader/internal/gateway"
	"github.com/k-negishi/calendar-event-loader/internal/logging"
	"github.com/k-negishi/calendar-event-loader/internal/metrics"
	"github.com/k-negishi/calendar-event-loader/internal/usecase"
)

// LambdaEvent Lambda実行時のイベント構造体
type LambdaEvent struct {
	// EventBridge Schedulerからの実行なので特に使用しない
}

// LambdaResponse Lambda実行結果のレスポンス
type LambdaResponse struct {
	StatusCode int            `json:"statusCode"`
	Message    string         `json:"message"`
	Loaded     map[string]int `json:"loaded"`
}

// calendarFactory 設定からGoogle Calendarリポジトリを作る
type calendarFactory func(ctx context.Context, cfg *config.Config) (*gateway.GoogleCalendarRepository, error)

// app ハンドラーの依存関係
type app struct {
	loadConfig  func(ctx context.Context) (*config.Config, error)
	newCalendar calendarFactory
	newLogger   func(level string) *slog.Logger
	now         func() time.Time
}

func newApp() *app {
	return &app{
		loadConfig: config.Load,
		newCalendar: func(ctx context.Context, cfg *config.Config) (*gateway.GoogleCalendarRepository, error) {
			return gateway.NewGoogleCalendarRepository(ctx, []byte(cfg.GoogleCredentials), cfg.CalendarID, cfg.Location())
		},
		newLogger: logging.New,
		now:       time.Now,
	}
}

// handler Lambda関数のメインハンドラー
func (a *app) handler(ctx context.Context, event LambdaEvent) (LambdaResponse, error) {
	// 設定を読み込み
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return LambdaResponse{
			StatusCode: 500,
			Message:    "設定読み込みエラー",
		}, err
	}

	logger := a.newLogger(cfg.LogLevel)
	recorder := metrics.NewRecorder()
	uc := usecase.NewLoadEventsUseCase(recorder, logger)

	sources := []usecase.RecordSource{
		gateway.NewJSONReader(cfg.JSONPath),
		gateway.NewXLSXReader(cfg.XLSXPath),
	}

	// 認証情報がある場合のみ今日からCalendarDays日分の予定も読み込む
	if cfg.HasGoogleCalendar() {
		repo, err := a.newCalendar(ctx, cfg)
		if err != nil {
			return LambdaResponse{
				StatusCode: 500,
				Message:    "Google Calendar初期化エラー",
			}, err
		}
		now := a.now().In(cfg.Location())
		sources = append(sources, repo.Window(now, now.AddDate(0, 0, cfg.CalendarDays)))
	}

	resp, err := loadAll(ctx, uc, logger, sources...)
	reportMetrics(cfg, recorder, logger)
	return resp, err
}

// loadAll すべての入力元を読み込み、1件でも失敗すれば500を返す
func loadAll(ctx context.Context, uc *usecase.LoadEventsUseCase, logger *slog.Logger, sources ...usecase.RecordSource) (LambdaResponse, error) {
	loaded := make(map[string]int, len(sources))
	var firstErr error
	failed := 0

	for _, src := range sources {
		events, err := uc.Execute(ctx, src)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		loaded[src.SourceName()] = len(events)
	}

	if firstErr != nil {
		logger.Error("lambda load failed", "failed", failed, "err", firstErr)
		return LambdaResponse{
			StatusCode: 500,
			Message:    fmt.Sprintf("イベント読み込みエラー (%d件の入力元で失敗)", failed),
			Loaded:     loaded,
		}, firstErr
	}

	return LambdaResponse{
		StatusCode: 200,
		Message:    "イベント読み込み完了",
		Loaded:     loaded,
	}, nil
}

// reportMetrics カウンターをログに出し、設定があればtextfileにも書き出す
func reportMetrics(cfg *config.Config, recorder *metrics.Recorder, logger *slog.Logger) {
	totals, err := recorder.Totals()
	if err != nil {
		logger.Error("metrics gather failed", "err", err)
		return
	}
	attrs := make([]any, 0, len(totals)*2)
	for name, value := range totals {
		attrs = append(attrs, name, value)
	}
	logger.Info("metrics", attrs...)

	if cfg.MetricsTextfile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("metrics textfile write failed", "path", cfg.MetricsTextfile, "err", err)
		}
	}
}

func main() {
	lambda.Start(newApp().handler)
}
