package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"trading-bot-backend/internal/broker"
	"trading-bot-backend/internal/engine"
	"trading-bot-backend/internal/eod"
	"trading-bot-backend/internal/eod/eodobs"
	"trading-bot-backend/internal/httpapi"
	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/news"
	"trading-bot-backend/internal/scheduler"
	"trading-bot-backend/internal/store"
	"trading-bot-backend/internal/stream"
	"trading-bot-backend/internal/trace"
	"trading-bot-backend/internal/tradelog"
)

const shutdownTimeout = 10 * time.Second

// initializeSystem loads .env and initializes the logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(version); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// App owns every long-lived component. It is built once at startup and torn
// down in reverse order by Close.
type App struct {
	cfg       *store.Config
	db        *store.DB
	broker    interfaces.Broker
	journal   *tradelog.Log
	hub       *stream.Hub
	engine    interfaces.Engine
	scheduler *scheduler.Scheduler
	eod       interfaces.EodSummarizer
	news      interfaces.NewsProvider
	server    *http.Server

	stopHub context.CancelFunc
}

func newApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	logger.Info(ctx, "Configuration loaded", "path", configPath, "settings", cfg.Summary())

	db, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{cfg: cfg, db: db}
	a.broker = initializeBroker(ctx, cfg)
	a.journal = tradelog.New(cfg.TradeLog.Dir, cfg.Location())
	a.hub = stream.NewHub()
	a.engine = engine.New(cfg, a.broker,
		engine.WithJournal(a.journal),
		engine.WithNotifier(a.hub),
	)
	a.scheduler = scheduler.New(a.engine, db, cfg.Interval(), cfg.StopTimeout())
	a.eod = eodobs.Wrap(eod.NewSummarizer(db, cfg.TradeLog.Dir, cfg.Location()))
	a.news = news.NewServiceFromConfig(cfg)

	compressOldLogs(ctx, a.journal, cfg.TradeLog.RetentionDays)
	return a, nil
}

// initializeBroker selects the broker variant once, from credentials only.
func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	brk, kind := broker.New(broker.ParamsFromConfig(cfg))
	if kind == broker.KindPaper {
		logger.Warn(ctx, "Zerodha credentials not set - using paper broker, orders will be simulated")
	} else {
		logger.Info(ctx, "Using Zerodha broker", "exchange", cfg.Trading.Exchange, "product", cfg.Trading.Product)
	}
	return brk
}

func compressOldLogs(ctx context.Context, journal *tradelog.Log, retentionDays int) {
	n, err := journal.CompressOlder(retentionDays)
	if err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
		return
	}
	if n > 0 {
		logger.Info(ctx, "Compressed old cycle logs", "files", n)
	}
}

// Serve runs the HTTP server and the scheduler until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.WithoutCancel(ctx))
	a.stopHub = stopHub
	go a.hub.Run(hubCtx)

	api := httpapi.New(httpapi.Deps{
		Config:   a.cfg,
		Engine:   a.engine,
		Sessions: a.db,
		News:     a.news,
		Notifier: a.hub,
		Stream:   a.hub.ServeWS,
	})
	a.server = &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.cfg.SchedulerEnabled() {
		a.scheduler.Start(ctx)
	} else {
		logger.Info(ctx, "Scheduler disabled")
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", a.cfg.Server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Shutdown signal received")
		return nil
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

// Close tears the app down: HTTP server, scheduler, EOD summary, database,
// tracer. It is safe to call after a partial Serve.
func (a *App) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "HTTP server shutdown failed", "error", err)
		}
	}
	if a.stopHub != nil {
		a.stopHub()
	}
	a.scheduler.Stop()

	if _, err := a.eod.SummarizeToday(ctx); err != nil {
		logger.Warn(ctx, "EOD summary on shutdown failed", "error", err)
	}

	a.release(ctx)
	logger.Info(ctx, "Shutdown complete")
}

// release closes the database and flushes pending spans. One-shot commands
// call it directly; Close calls it last.
func (a *App) release(ctx context.Context) {
	if err := a.db.Close(); err != nil {
		logger.Warn(ctx, "Failed to close database", "error", err)
	}
	if err := trace.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "Tracer shutdown failed", "error", err)
	}
}
