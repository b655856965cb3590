package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"price-alerts/internal/bot"
	"price-alerts/internal/config"
	"price-alerts/internal/domain"
	"price-alerts/internal/job"
	"price-alerts/internal/service"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	restore := stubServerDeps(dir)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps(dir string) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origNewLogger := newLoggerFunc
	origInitTracer := initTracerFunc
	origStockProvider := newStockProviderFunc
	origCryptoProvider := newCryptoProviderFunc
	origStartMonitor := startMonitorFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func(string) *config.Config {
		return &config.Config{
			ChecksPerDay:  1440,
			MaxRetries:    1,
			CachePath:     filepath.Join(dir, "price_cache.json"),
			WatchlistPath: filepath.Join(dir, "watchlist.json"),
			HTTPAddr:      ":0",
		}
	}
	newLoggerFunc = func(config.LogConfig) (*zap.Logger, error) { return zap.NewNop(), nil }
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newStockProviderFunc = func(trace.Tracer, *config.Config) service.PriceSource { return stubPriceSource{} }
	newCryptoProviderFunc = func(trace.Tracer, *config.Config) service.PriceSource { return stubPriceSource{} }
	startMonitorFunc = func(*job.Monitor, context.Context) {}
	startTelegramBotFunc = func(string, bot.PriceService, bot.AlertMonitor, *zap.Logger) *tele.Bot { return nil }
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		newLoggerFunc = origNewLogger
		initTracerFunc = origInitTracer
		newStockProviderFunc = origStockProvider
		newCryptoProviderFunc = origCryptoProvider
		startMonitorFunc = origStartMonitor
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

type stubPriceSource struct{}

func (stubPriceSource) FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	return &domain.PriceSnapshot{Price: 1, Timestamp: time.Now()}, nil
}
