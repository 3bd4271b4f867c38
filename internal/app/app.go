package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tofixx/mymovieflip/internal/catalog/tmdb"
	"github.com/tofixx/mymovieflip/internal/config"
	"github.com/tofixx/mymovieflip/internal/enrich"
	"github.com/tofixx/mymovieflip/internal/httpserver"
	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/queue"
	"github.com/tofixx/mymovieflip/internal/redis"
	"github.com/tofixx/mymovieflip/internal/scheduler"
	"github.com/tofixx/mymovieflip/internal/session"
	"github.com/tofixx/mymovieflip/internal/sources/intents"
	"github.com/tofixx/mymovieflip/internal/store"
	badgerstore "github.com/tofixx/mymovieflip/internal/store/badger"
	"github.com/tofixx/mymovieflip/internal/store/memory"
	redisstore "github.com/tofixx/mymovieflip/internal/store/redis"
	"github.com/tofixx/mymovieflip/internal/utils"
	"github.com/tofixx/mymovieflip/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	store    store.Store
	enricher *enrich.Enricher
	session  *session.Session
	reloader *scheduler.GenreReloader
	warmer   *scheduler.QueueWarmer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Open the store early - fail fast if unavailable
	st, err := openStore(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.StoreBackend, err)
		os.Exit(1)
	}
	loggerClient.Info("store initialized", logger.String("backend", cfg.StoreBackend))

	table, err := intents.NewLoader(cfg.IntentFile).Load()
	if err != nil {
		loggerClient.Errorf("Failed to load intent table: %v", err)
		os.Exit(1)
	}

	client := tmdb.New(tmdb.Options{
		BaseURL:      cfg.CatalogBaseURL,
		Token:        cfg.CatalogToken,
		Timeout:      cfg.CatalogTimeout,
		RatePerSec:   cfg.CatalogRatePerSec,
		Burst:        cfg.CatalogBurst,
		FailureRatio: cfg.BreakerFailureRatio,
		MinRequests:  cfg.BreakerMinRequests,
		OpenTimeout:  cfg.BreakerOpenTimeout,
	}, loggerClient)

	enricher, err := enrich.New(client, 0, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to create enrichment caches: %v", err)
		os.Exit(1)
	}

	sess := session.New(client, st, table, enricher, session.Options{
		ImageBase:  cfg.CatalogImageBase,
		MinFlips:   cfg.RecMinFlips,
		RecPages:   cfg.RecPages,
		RecMaxPage: cfg.RecMaxPage,
		RecLimit:   cfg.RecLimit,
		TopGenres:  cfg.RecTopK,
		Queue: queue.Options{
			Pages:         cfg.QueuePages,
			MaxPage:       cfg.QueueMaxPage,
			MinVoteCount:  cfg.QueueMinVoteCount,
			Cap:           cfg.QueueCap,
			LowWatermark:  cfg.QueueLowWatermark,
			RefillTimeout: cfg.QueueRefillTimeout,
		},
	}, loggerClient)

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewGenreReloader(sess, loggerClient, cfg.GenreReloadInterval, reloadTrigger)
	warmer := scheduler.NewQueueWarmer(sess, loggerClient, cfg.WarmInterval, cfg.QueueRefillTimeout)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		CORSOrigins:    cfg.CORSOrigins,
		APIRateLimit:   cfg.APIRateLimit,
		APIRateWindow:  cfg.APIRateWindow,
		MetricsEnabled: cfg.MetricsEnabled,
		Session:        sess,
		Store:          st,
		StoreBackend:   cfg.StoreBackend,
		ReloadTrigger:  reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   server,
		store:    st,
		enricher: enricher,
		session:  sess,
		reloader: reloader,
		warmer:   warmer,
	}
}

func openStore(cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		log.Warn("memory store selected, decisions are lost on restart")
		return memory.NewStore(), nil
	case config.StoreRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil
	default:
		return badgerstore.Open(cfg.BadgerDir)
	}
}

// bootstrap loads the persisted session and serves the first card. A token
// seeded from the environment is stored when none was saved yet. Failures
// are not fatal: the queue warmer retries.
func (a *App) bootstrap(ctx context.Context) {
	err := a.session.Bootstrap(ctx)
	if a.cfg.CatalogToken != "" && !a.session.Settings().HasToken {
		err = a.session.SetToken(ctx, a.cfg.CatalogToken)
	}

	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotReady):
		a.logger.Warn("no catalog token configured, waiting for one via PUT /api/settings")
	default:
		a.logger.Warn("session bootstrap failed, will retry", logger.Error(err))
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting movieflip v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("movieflip %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.bootstrap(ctx)

	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start genre reloader: %w", err)
	}
	a.logger.Info("genre reloader started",
		logger.Duration("interval", a.cfg.GenreReloadInterval))

	if err := a.warmer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue warmer: %w", err)
	}
	a.logger.Info("queue warmer started",
		logger.Duration("interval", a.cfg.WarmInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	a.warmer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// background refills and persistence writes finish before the store closes
	a.session.Wait()
	a.enricher.Close()
	utils.MustClose(a.store, a.logger, a.cfg.StoreBackend+" store")

	a.logger.Info("✅ movieflip stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
