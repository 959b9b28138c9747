package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"prescription-api-app/internal/config"
	"prescription-api-app/internal/presentation/di"
	"prescription-api-app/internal/presentation/http/router"
)

// 画像解析の待ち時間に上乗せする書き込みタイムアウトの余裕
const writeTimeoutMargin = 15 * time.Second

// AppConfig アプリケーション設定
type AppConfig struct {
	ConfigPath string
	Port       string
	LogLevel   string
	Output     io.Writer
}

// ServerInterface サーバーインターフェース（Seam化）
type ServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App アプリケーション構造体（Seamパターン）
type App struct {
	config     *AppConfig
	container  *di.Container
	server     *http.Server
	serverSeam ServerInterface // テスト用のSeam
	logger     *slog.Logger
	closed     bool
}

// newLogger 構造化ログ（JSON）のロガーを作成
func newLogger(w io.Writer, level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv}))
}

// NewApp 新しいAppを作成
func NewApp(appCfg *AppConfig) (*App, error) {
	// デフォルト値設定
	if appCfg.Port == "" {
		appCfg.Port = "8080"
	}
	if appCfg.Output == nil {
		appCfg.Output = os.Stdout
	}

	logger := newLogger(appCfg.Output, appCfg.LogLevel)

	// 設定の読み込み
	cfg, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		logger.Warn("Failed to load config. Using defaults.", "path", appCfg.ConfigPath, "error", err)
		cfg = config.DefaultConfig()
	}

	// DIコンテナの初期化
	container, err := di.NewContainer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DI container: %w", err)
	}

	// ルーターの作成
	handler := router.NewRouter(container)

	// サーバーの設定（解析APIはモデルの応答を待つため書き込みタイムアウトを延ばす）
	server := &http.Server{
		Addr:              ":" + appCfg.Port,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Vision.Timeout() + writeTimeoutMargin,
		IdleTimeout:       60 * time.Second,
	}

	app := &App{
		config:    appCfg,
		container: container,
		server:    server,
		logger:    logger,
	}
	// デフォルトでは実際のサーバーを使用
	app.serverSeam = server

	return app, nil
}

// Start サーバーを起動
func (a *App) Start() error {
	a.printStartupMessage()
	return a.serverSeam.ListenAndServe()
}

// printStartupMessage 起動メッセージを出力
func (a *App) printStartupMessage() {
	out := a.config.Output
	_, _ = fmt.Fprintln(out, "=== Prescription API Server (Clean Architecture) ===")
	_, _ = fmt.Fprintf(out, "Vision Provider: %s (%s)\n", a.container.ProviderName(), a.container.Model())
	_, _ = fmt.Fprintf(out, "Server listening on http://0.0.0.0:%s\n", a.config.Port)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Endpoints:")
	_, _ = fmt.Fprintln(out, "  GET  /health                               - Health check")
	_, _ = fmt.Fprintln(out, "  POST /api/v1/prescriptions/analyze         - Prescription image analysis")
	_, _ = fmt.Fprintln(out, "  GET  /api/v1/medications                   - List medications (q, timing, food, sort)")
	_, _ = fmt.Fprintln(out, "  POST /api/v1/medications                   - Add a medication manually")
	_, _ = fmt.Fprintln(out, "  PUT  /api/v1/medications/{id}              - Replace a manual medication")
	_, _ = fmt.Fprintln(out, "  POST /api/v1/medications/contraindications - Contraindication check")
	_, _ = fmt.Fprintln(out)
}

// Shutdown サーバーをシャットダウン
func (a *App) Shutdown(ctx context.Context) error {
	if a.closed {
		return nil
	}
	a.logger.Info("Shutting down server...")

	// サーバーのシャットダウン（Seamを使用）
	if err := a.serverSeam.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// コンテナのクローズ
	if err := a.container.Close(); err != nil {
		return fmt.Errorf("container close failed: %w", err)
	}

	a.closed = true
	a.logger.Info("Server stopped")
	return nil
}

// Run アプリケーションを実行（グレースフルシャットダウン付き）
func (a *App) Run() error {
	serverErr := make(chan error, 1)
	go func() {
		if err := a.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// シグナルの待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		_ = a.container.Close()
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return a.Shutdown(ctx)
	}
}

// defaultConfigPath 設定ファイルの既定の場所
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Failed to get home directory: %v. Using current directory.", err)
		homeDir = "."
	}
	return filepath.Join(homeDir, ".prescription-api-app", "config.yaml")
}

// realMain 実際のmain処理（テスト可能にするため分離）
func realMain() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	appCfg := &AppConfig{
		ConfigPath: configPath,
		Port:       os.Getenv("PORT"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
	}

	app, err := NewApp(appCfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	slog.SetDefault(app.logger)

	return app.Run()
}

func main() {
	if err := realMain(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
