package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/calendar/v3"

	"github.com/k-negishi/calendar-event-loader/internal/config"
	"github.com/k-negishi/calendar-event-loader/internal/domain"
	"github.com/k-negishi/calendar-event-loader/internal/gateway"
	"github.com/k-negishi/calendar-event-loader/internal/metrics"
	"github.com/k-negishi/calendar-event-loader/internal/usecase"
)

// MockSSMClient は config.SSMParameterGetter のテスト用モック
type MockSSMClient struct {
	mock.Mock
}

func (m *MockSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssm.GetParameterOutput), args.Error(1)
}

// MockEventsProvider は gateway.EventsProvider のテスト用モック
type MockEventsProvider struct {
	mock.Mock
}

func (m *MockEventsProvider) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error) {
	args := m.Called(ctx, calendarID, timeMin, timeMax)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*calendar.Event), args.Error(1)
}

func discardLogger(string) *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUseCase() (*usecase.LoadEventsUseCase, *slog.Logger) {
	logger := discardLogger("")
	return usecase.NewLoadEventsUseCase(metrics.NewRecorder(), logger), logger
}

func writeJSON(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "eventos.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"titulo": "A", "descripcion": "B", "categoria": "C", "fecha_inicio": "2024-07-01"}
	]`), 0o644))
	return path
}

func writeXLSX(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"titulo", "descripcion", "categoria", "fecha_inicio"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Reunión", "Sync", "trabajo", "2024-07-02"}))

	path := filepath.Join(dir, "eventos.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// mockParameterStore 認証情報とカレンダーIDを返すParameter Storeのモック
func mockParameterStore() *MockSSMClient {
	mockSSM := new(MockSSMClient)
	mockSSM.On("GetParameter", mock.Anything, mock.MatchedBy(func(input *ssm.GetParameterInput) bool {
		return aws.ToString(input.Name) == "/calendar-event-loader/google-creds" && aws.ToBool(input.WithDecryption)
	})).Return(&ssm.GetParameterOutput{
		Parameter: &types.Parameter{Value: aws.String(`{"type":"service_account"}`)},
	}, nil)
	mockSSM.On("GetParameter", mock.Anything, mock.MatchedBy(func(input *ssm.GetParameterInput) bool {
		return aws.ToString(input.Name) == "/calendar-event-loader/calendar-id"
	})).Return(&ssm.GetParameterOutput{
		Parameter: &types.Parameter{Value: aws.String("equipo@group.calendar.google.com")},
	}, nil)
	return mockSSM
}

func newTestApp(mockSSM *MockSSMClient, provider *MockEventsProvider) *app {
	jst, _ := time.LoadLocation("Asia/Tokyo")
	return &app{
		loadConfig: func(ctx context.Context) (*config.Config, error) {
			return config.LoadWithSSM(ctx, mockSSM)
		},
		newCalendar: func(_ context.Context, cfg *config.Config) (*gateway.GoogleCalendarRepository, error) {
			return gateway.NewGoogleCalendarRepositoryWithProvider(provider, cfg.CalendarID, cfg.Location()), nil
		},
		newLogger: discardLogger,
		now: func() time.Time {
			return time.Date(2024, 7, 1, 9, 30, 0, 0, jst)
		},
	}
}

func TestHandler(t *testing.T) {
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "event_loader.prom")
	t.Setenv("EVENTS_JSON_PATH", writeJSON(t, dir))
	t.Setenv("EVENTS_XLSX_PATH", writeXLSX(t, dir))
	t.Setenv("METRICS_TEXTFILE", metricsPath)
	t.Setenv("TIMEZONE", "Asia/Tokyo")
	t.Setenv("CALENDAR_DAYS", "")
	t.Setenv("SSM_GOOGLE_CREDS_PARAM", "")
	t.Setenv("SSM_CALENDAR_ID_PARAM", "")

	t.Run("正常系: ファイルとGoogle Calendarを読み込む", func(t *testing.T) {
		mockSSM := mockParameterStore()
		provider := new(MockEventsProvider)
		provider.On("ListEvents", mock.Anything, "equipo@group.calendar.google.com",
			"2024-07-01T00:00:00+09:00", "2024-07-03T00:00:00+09:00").
			Return([]*calendar.Event{{
				Summary:     "Cumpleaños",
				Description: "Ana",
				EventType:   "default",
				Start:       &calendar.EventDateTime{Date: "2024-07-01"},
				End:         &calendar.EventDateTime{Date: "2024-07-02"},
			}}, nil)

		resp, err := newTestApp(mockSSM, provider).handler(context.Background(), LambdaEvent{})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, map[string]int{"JSON": 1, "Excel": 1, "Google Calendar": 1}, resp.Loaded)
		mockSSM.AssertExpectations(t)
		provider.AssertExpectations(t)

		prom, err := os.ReadFile(metricsPath)
		require.NoError(t, err)
		assert.Contains(t, string(prom), `event_loader_events_loaded_total{source="Google Calendar"} 1`)
	})

	t.Run("異常系: Parameter Storeの取得に失敗", func(t *testing.T) {
		mockSSM := new(MockSSMClient)
		mockSSM.On("GetParameter", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))
		provider := new(MockEventsProvider)

		resp, err := newTestApp(mockSSM, provider).handler(context.Background(), LambdaEvent{})
		assert.Error(t, err)
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, "設定読み込みエラー", resp.Message)
		provider.AssertNotCalled(t, "ListEvents", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("異常系: Calendar APIの失敗でもファイルの結果は返す", func(t *testing.T) {
		mockSSM := mockParameterStore()
		provider := new(MockEventsProvider)
		provider.On("ListEvents", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("quota exceeded"))

		resp, err := newTestApp(mockSSM, provider).handler(context.Background(), LambdaEvent{})
		assert.ErrorIs(t, err, domain.ErrCannotOpen)
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, map[string]int{"JSON": 1, "Excel": 1}, resp.Loaded)
	})
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeJSON(t, dir)

	t.Run("正常系: 全入力元の読み込みに成功", func(t *testing.T) {
		uc, logger := newTestUseCase()

		resp, err := loadAll(context.Background(), uc, logger, gateway.NewJSONReader(jsonPath))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, map[string]int{"JSON": 1}, resp.Loaded)
	})

	t.Run("異常系: 1つでも失敗すれば500", func(t *testing.T) {
		uc, logger := newTestUseCase()

		resp, err := loadAll(context.Background(), uc, logger,
			gateway.NewJSONReader(jsonPath),
			gateway.NewXLSXReader(filepath.Join(dir, "missing.xlsx")),
		)
		assert.ErrorIs(t, err, domain.ErrFileNotFound)
		assert.Equal(t, 500, resp.StatusCode)
		assert.Contains(t, resp.Message, "1件")
		assert.Equal(t, map[string]int{"JSON": 1}, resp.Loaded)
	})
}
