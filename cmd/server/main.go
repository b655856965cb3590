package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"price-alerts/internal/bot"
	"price-alerts/internal/cache"
	"price-alerts/internal/config"
	"price-alerts/internal/handler"
	"price-alerts/internal/job"
	"price-alerts/internal/logger"
	"price-alerts/internal/notify"
	"price-alerts/internal/provider"
	"price-alerts/internal/repository"
	"price-alerts/internal/service"
	"price-alerts/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	newLoggerFunc        = logger.New
	initTracerFunc       = tracing.InitTracer
	newStockProviderFunc = func(tracer trace.Tracer, cfg *config.Config) service.PriceSource {
		return provider.NewYahooProvider(tracer, cfg.YahooBaseURL, cfg.RequestTimeout())
	}
	newCryptoProviderFunc = func(tracer trace.Tracer, cfg *config.Config) service.PriceSource {
		return provider.NewCoinGeckoProvider(tracer, cfg.CoinGeckoBaseURL, cfg.RequestTimeout())
	}
	startMonitorFunc       = func(m *job.Monitor, ctx context.Context) { m.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc(os.Getenv("CONFIG_PATH"))

	zlog, err := newLoggerFunc(cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		zlog.Fatal("failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			zlog.Warn("error shutting down tracer provider", zap.Error(err))
		}
	}()

	priceCache := cache.NewPriceCache(cfg.CachePath, cfg.CacheTTL(), zlog.Named("cache"))
	priceService := service.NewPriceService(
		tracer,
		zlog.Named("fetcher"),
		priceCache,
		newStockProviderFunc(tracer, cfg),
		newCryptoProviderFunc(tracer, cfg),
		cfg.MaxRetries,
	)

	notifier := notify.NewNotifier(notify.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		To:   cfg.EmailTo,
	}, cfg.Cooldown(), zlog.Named("notifier"))

	items := repository.NewWatchlistRepository(cfg.WatchlistPath, zlog.Named("watchlist")).Load()
	monitor := job.NewMonitor(tracer, zlog.Named("monitor"), priceService, notifier, items, cfg.ChecksPerDay)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		startMonitorFunc(monitor, gctx)
		return nil
	})

	telegram := startTelegramBotFunc(cfg.TelegramBotToken, priceService, monitor, zlog.Named("telegram"))

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	handler.New(tracer, priceService, monitor).RegisterRoutes(r, cfg.APIKey)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		zlog.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		waitForSignalFunc(quit)
		zlog.Info("shutdown signal received")
		cancel()
	}()

	<-gctx.Done()
	zlog.Info("shutting down")

	if telegram != nil {
		telegram.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	if err := g.Wait(); err != nil {
		zlog.Error("service stopped with error", zap.Error(err))
	}
	zlog.Info("server exiting")
}
