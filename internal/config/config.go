package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
)

// SSMParameterGetter Parameter Storeからパラメータを取得するポート
type SSMParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config アプリケーション設定構造体
type Config struct {
	// 読み込み対象ファイル
	JSONPath string
	XLSXPath string

	// Google Calendar設定（任意）
	GoogleCredentials string
	CalendarID        string
	CalendarDays      int

	// その他設定
	LogLevel        string
	Timezone        string
	MetricsTextfile string

	location *time.Location

	// AWS関連（本番環境でのみ使用）
	ssmClient SSMParameterGetter
}

// Load 環境に応じて設定を読み込み
func Load(ctx context.Context) (*Config, error) {
	// AWS Lambda環境かどうか判定
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return loadAWSConfig(ctx)
	}
	return loadLocalConfig()
}

// loadLocalConfig ローカル開発環境用の設定読み込み
func loadLocalConfig() (*Config, error) {
	// .envファイルを読み込み（存在する場合のみ）
	if err := godotenv.Load(); err != nil {
		// .envファイルが存在しない場合はエラーにしない
		fmt.Fprintf(os.Stderr, "Warning: .envファイルが見つかりません: %v\n", err)
	}

	cfg := fromEnv()
	cfg.GoogleCredentials = getEnvOrDefault("GOOGLE_CREDENTIALS", "")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAWSConfig AWS Lambda環境用の設定読み込み
func loadAWSConfig(ctx context.Context) (*Config, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗しました: %w", err)
	}
	return LoadWithSSM(ctx, ssm.NewFromConfig(awsConfig))
}

// LoadWithSSM 指定したParameter Storeクライアントを使ってLambda環境用の設定を読み込み
func LoadWithSSM(ctx context.Context, client SSMParameterGetter) (*Config, error) {
	cfg := fromEnv()
	cfg.ssmClient = client

	// Parameter Storeから機密情報を取得
	if err := cfg.loadFromParameterStore(ctx); err != nil {
		return nil, fmt.Errorf("Parameter Storeからの設定読み込みに失敗しました: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		JSONPath:        getEnvOrDefault("EVENTS_JSON_PATH", "data/eventos.json"),
		XLSXPath:        getEnvOrDefault("EVENTS_XLSX_PATH", "data/eventos.xlsx"),
		CalendarID:      getEnvOrDefault("CALENDAR_ID", "primary"),
		CalendarDays:    getIntEnvOrDefault("CALENDAR_DAYS", 2),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "INFO"),
		Timezone:        getEnvOrDefault("TIMEZONE", "Asia/Tokyo"),
		MetricsTextfile: getEnvOrDefault("METRICS_TEXTFILE", ""),
	}
}

// validate 設定値の確認
func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %q の読み込みに失敗しました: %w", c.Timezone, err)
	}
	c.location = loc

	if c.CalendarDays < 1 {
		return fmt.Errorf("CALENDAR_DAYS は1以上を指定してください: %d", c.CalendarDays)
	}
	return nil
}

// loadFromParameterStore Parameter Storeから機密情報を読み込み
func (c *Config) loadFromParameterStore(ctx context.Context) error {
	// Google認証情報を取得
	googleCredsParam := getEnvOrDefault("SSM_GOOGLE_CREDS_PARAM", "/calendar-event-loader/google-creds")
	googleCreds, err := c.getParameter(ctx, googleCredsParam, true)
	if err != nil {
		return fmt.Errorf("Google認証情報の取得に失敗しました: %w", err)
	}
	c.GoogleCredentials = googleCreds

	// カレンダーIDを取得
	calendarIDParam := getEnvOrDefault("SSM_CALENDAR_ID_PARAM", "/calendar-event-loader/calendar-id")
	calendarID, err := c.getParameter(ctx, calendarIDParam, false)
	if err != nil {
		return fmt.Errorf("カレンダーIDの取得に失敗しました: %w", err)
	}
	c.CalendarID = calendarID

	return nil
}

// getParameter Parameter Storeから指定されたパラメータを取得
func (c *Config) getParameter(ctx context.Context, paramName string, withDecryption bool) (string, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(withDecryption),
	}

	result, err := c.ssmClient.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("パラメータ %s の取得に失敗しました: %w", paramName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return "", fmt.Errorf("パラメータ %s が空の値です", paramName)
	}

	return *result.Parameter.Value, nil
}

// Location 表示・変換に使うタイムゾーン
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// HasGoogleCalendar Google Calendarから読み込める設定かどうか
func (c *Config) HasGoogleCalendar() bool {
	return c.GoogleCredentials != ""
}

// getEnvOrDefault 環境変数を取得し、存在しない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvOrDefault 整数の環境変数を取得する。未設定・解釈できない値はデフォルト値
func getIntEnvOrDefault(key string, defaultValue int) int {
	value := getEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
