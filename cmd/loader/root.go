package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/k-negishi/calendar-event-loader/internal/config"
	"github.com/k-negishi/calendar-event-loader/internal/gateway"
	"github.com/k-negishi/calendar-event-loader/internal/metrics"
	"github.com/k-negishi/calendar-event-loader/internal/presenter"
	"github.com/k-negishi/calendar-event-loader/internal/usecase"
)

// errLoadFailed いずれかの読み込みが失敗したことを示す（終了コード1）
var errLoadFailed = errors.New("読み込みに失敗した入力元があります")

// runner コマンド間で共有する依存関係
type runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder *metrics.Recorder
	console  *presenter.Console
	useCase  *usecase.LoadEventsUseCase
	now      func() time.Time
}

func newRunner(cfg *config.Config, out io.Writer, logger *slog.Logger) *runner {
	recorder := metrics.NewRecorder()
	return &runner{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		console:  presenter.NewConsole(out),
		useCase:  usecase.NewLoadEventsUseCase(recorder, logger),
		now:      time.Now,
	}
}

// run 入力元を順に読み込み、結果を出力する。1つの失敗で残りを止めない
func (r *runner) run(ctx context.Context, sources ...usecase.RecordSource) error {
	failed := false
	for _, src := range sources {
		events, err := r.useCase.Execute(ctx, src)
		if err != nil {
			failed = true
		}
		if perr := r.console.Print(src.SourceName(), events, err); perr != nil {
			return fmt.Errorf("結果の出力に失敗しました: %w", perr)
		}
	}

	if r.cfg.MetricsTextfile != "" {
		if err := r.recorder.WriteTextfile(r.cfg.MetricsTextfile); err != nil {
			r.logger.Error("metrics textfile write failed", "path", r.cfg.MetricsTextfile, "err", err)
		}
	}

	if failed {
		return errLoadFailed
	}
	return nil
}

// newRootCommand loaderコマンドを構築
func newRootCommand(r *runner) *cobra.Command {
	root := &cobra.Command{
		Use:   "loader",
		Short: "カレンダーイベントを検証して読み込む",
		Long: "JSON・YAML・Excel・iCalendarファイルまたはGoogle Calendarからイベントを読み込み、検証結果を表示します。\n" +
			"引数なしで実行すると設定されたJSONとExcelを順に読み込みます。",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd.Context(),
				gateway.NewJSONReader(r.cfg.JSONPath),
				gateway.NewXLSXReader(r.cfg.XLSXPath),
			)
		},
	}

	root.AddCommand(newFileCommand(r, "json", "JSON配列からイベントを読み込む", func(path string) usecase.RecordSource {
		return gateway.NewJSONReader(path)
	}))
	root.AddCommand(newFileCommand(r, "yaml", "YAMLシーケンスからイベントを読み込む", func(path string) usecase.RecordSource {
		return gateway.NewYAMLReader(path)
	}))
	root.AddCommand(newFileCommand(r, "xlsx", "Excelのアクティブシートからイベントを読み込む", func(path string) usecase.RecordSource {
		return gateway.NewXLSXReader(path)
	}))
	root.AddCommand(newFileCommand(r, "ics", "iCalendarのVEVENTからイベントを読み込む", func(path string) usecase.RecordSource {
		return gateway.NewICSReader(path)
	}))
	root.AddCommand(newGoogleCalendarCommand(r))
	return root
}

func newFileCommand(r *runner, name, short string, open func(path string) usecase.RecordSource) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <path>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd.Context(), open(args[0]))
		},
	}
}

func newGoogleCalendarCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gcal",
		Short: "Google Calendarの予定をイベントとして読み込む",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			if days < 1 {
				return fmt.Errorf("--days は1以上を指定してください: %d", days)
			}
			if !r.cfg.HasGoogleCalendar() {
				return errors.New("GOOGLE_CREDENTIALS が設定されていません")
			}

			repo, err := gateway.NewGoogleCalendarRepository(cmd.Context(), []byte(r.cfg.GoogleCredentials), r.cfg.CalendarID, r.cfg.Location())
			if err != nil {
				return err
			}
			now := r.now()
			return r.run(cmd.Context(), repo.Window(now, now.AddDate(0, 0, days)))
		},
	}
	defaultDays := r.cfg.CalendarDays
	if defaultDays < 1 {
		defaultDays = 2
	}
	cmd.Flags().Int("days", defaultDays, "今日から何日分の予定を読み込むか（デフォルトはCALENDAR_DAYS）")
	return cmd
}
