package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civic-issue-service/internal/api/http"
	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/blobstore"
	"github.com/spec-kit/civic-issue-service/internal/classifier"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/observability"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	"github.com/spec-kit/civic-issue-service/internal/ratelimit"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
	"github.com/spec-kit/civic-issue-service/internal/worker"
)

const demoPassword = "password123"

type stores struct {
	issues  repository.IssueRepository
	users   repository.UserRepository
	photos  blobstore.Store
	limiter ratelimit.Limiter
	deps    map[string]handlers.Pinger
	closers []func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := openStores(ctx, cfg, logger)
	defer func() {
		for i := len(st.closers) - 1; i >= 0; i-- {
			st.closers[i]()
		}
	}()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(dispatcher, notificationService, metrics)

	var cls classifier.Classifier = classifier.Fallback{}
	if cfg.Classifier.URL != "" {
		cls = classifier.NewHTTPClassifier(cfg.Classifier.URL, cfg.Classifier.Timeout())
	} else {
		logger.Warn("no classifier configured, using fallback categorization")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: st.users,
		Tokens:   tokens,
		Logger:   logger,
	})
	userService := service.NewUserService(service.UserDependencies{UserRepo: st.users, Auth: authService, Logger: logger})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		IssueRepo:  st.issues,
		UserRepo:   st.users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:      st.issues,
		UserRepo:       st.users,
		Assignment:     assignmentService,
		Classifier:     cls,
		Photos:         st.photos,
		Dispatcher:     dispatcher,
		Logger:         logger,
		PlaceholderURL: cfg.Photo.PlaceholderURL,
		PhotoBaseURL:   cfg.Photo.PublicBaseURL,
		MaxPhotoBytes:  cfg.Photo.MaxBytes,
	})

	if err := authService.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		logger.Fatal("failed to ensure bootstrap admin", zap.Error(err))
	}
	if cfg.App.Env == "development" && cfg.Store.Backend == config.StoreMemory {
		if err := userService.SeedDemoUsers(ctx, demoPassword); err != nil {
			logger.Fatal("failed to seed demo users", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		// room for a handful of photos plus form fields
		BodyLimit: int(cfg.Photo.MaxBytes)*5 + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var issueLimit fiber.Handler
	if cfg.Limits.IssuesPerDay > 0 {
		issueLimit = httptransport.IssueCreationLimit(st.limiter, logger)
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, st.deps, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		Users:          handlers.NewUsersHandler(userService),
		Photos:         handlers.NewPhotosHandler(st.photos),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		IssueLimit:     issueLimit,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// openStores builds the issue store and worker directory for the configured
// backend. Durable backends keep photos and rate counters in Redis.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) stores {
	st := stores{deps: map[string]handlers.Pinger{}}
	window := 24 * time.Hour

	switch cfg.Store.Backend {
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		st.closers = append(st.closers, pg.Close)
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		st.issues = repository.NewIssueRepository(pg.Pool)
		st.users = repository.NewUserRepository(pg.Pool)
		st.deps["postgres"] = pg
	case config.StoreMongo:
		mg, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("failed to connect mongo", zap.Error(err))
		}
		st.closers = append(st.closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mg.Close(closeCtx)
		})
		st.issues = repository.NewMongoIssueRepository(mg.Database)
		st.users = repository.NewMongoUserRepository(mg.Database)
		st.deps["mongo"] = mg
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		st.issues = repository.NewMemoryIssueRepository()
		st.users = repository.NewMemoryUserRepository()
		st.photos = blobstore.NewMemoryStore()
		st.limiter = ratelimit.NewMemoryLimiter(cfg.Limits.IssuesPerDay, window)
		return st
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	st.closers = append(st.closers, rdb.Close)
	st.photos = blobstore.NewRedisStore(rdb.Client)
	st.limiter = ratelimit.NewRedisLimiter(rdb.Client, "issues:daily", cfg.Limits.IssuesPerDay, window)
	st.deps["redis"] = rdb
	return st
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
