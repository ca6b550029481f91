package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vidshare/internal/cache"
	"vidshare/internal/config"
	"vidshare/internal/database"
	"vidshare/internal/fetch"
	"vidshare/internal/handler"
	"vidshare/internal/logger"
	"vidshare/internal/model"
	"vidshare/internal/queue"
	"vidshare/internal/redis"
	"vidshare/internal/repository"
	"vidshare/internal/service"
	"vidshare/internal/storage"
	"vidshare/internal/worker"
)

const (
	shutdownTimeout    = 15 * time.Second
	mediaFetchTimeout  = 2 * time.Minute
	purgeTimeout       = time.Minute
	trendingRefreshJob = "@every 1m"
)

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, log); err != nil {
		return err
	}

	// 3. Object storage
	store, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}

	accounts := repository.NewAccountRepository(db)
	sessions := repository.NewSessionRepository(db)
	devices := repository.NewDeviceTokenRepository(db)
	users := repository.NewUserRepository(db, cfg.Backend.DatabaseID, cfg.Backend.UsersTableID)
	posts := repository.NewPostRepository(db, cfg.Backend.DatabaseID, cfg.Backend.VideoTableID)

	identity := service.NewIdentityService(accounts, sessions, cfg.JWTSecret, cfg.SessionMaxAge, log)
	localizer := service.NewLocalizer(cfg.MediaCacheDir, &stdhttp.Client{Timeout: mediaFetchTimeout})

	// 4. Redis is optional: without it there is no user cache and no media worker
	var (
		clientOpts []service.ClientOption
		publisher  queue.Publisher = queue.NopPublisher{}
		rdb        *redis.Client
	)
	if cfg.RedisURL != "" {
		rdb, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, running without user cache and media worker", zap.Error(err))
		} else {
			defer rdb.Close()
			clientOpts = append(clientOpts, service.WithUserCache(cache.NewUserCache(rdb.Client, log)))
			publisher = queue.NewPublisher(rdb.Client, log)
		}
	}

	client := service.NewClient(cfg.Backend, identity, users, posts, store, localizer, log, clientOpts...)
	orchestrator := service.NewUploadOrchestrator(client, publisher, log)
	trending := fetch.New(ctx, client.ListRecentPosts, fetch.LogNotifier(log))

	if rdb != nil {
		mediaHandler := worker.NewHandler(client, log)
		mediaHandler.SetTrending(trending)
		if cfg.ExpoPushEnabled {
			mediaHandler.SetPush(devices, service.NewExpoPushClient(log))
		}

		manager := worker.NewManager(queue.NewConsumer(rdb.Client, log), mediaHandler, log, worker.DefaultManagerConfig())
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start media worker: %w", err)
		}
		defer manager.Stop()
	}

	// 5. Scheduled jobs
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SessionCleanupSchedule, func() {
		jobCtx, cancel := context.WithTimeout(ctx, purgeTimeout)
		defer cancel()
		if err := identity.PurgeExpiredSessions(jobCtx); err != nil {
			log.Error("session cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid SESSION_CLEANUP_SCHEDULE: %w", err)
	}
	if _, err := scheduler.AddFunc(trendingRefreshJob, func() {
		trending.Refetch(ctx)
	}); err != nil {
		return fmt.Errorf("schedule trending refresh: %w", err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	// 6. Setup Server
	router := NewRouter(RouterConfig{
		AccountHandler: handler.NewAccountHandler(client, log),
		PostHandler:    handler.NewPostHandler(client, orchestrator, trending, log),
		StorageHandler: handler.NewStorageHandler(client, cfg.Backend, log),
		AvatarHandler:  handler.NewAvatarHandler(cfg.Backend.ProjectID, log),
		DeviceHandler:  handler.NewDeviceHandler(devices, log),
		Resolver:       client,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         log,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// uploads of the largest video must fit
		ReadTimeout: time.Duration(model.MaxVideoSizeBytes/(256*1024)) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
