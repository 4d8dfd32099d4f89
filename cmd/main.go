package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/zenon0777/payever-backend-assessment/internal/cache"
	"github.com/zenon0777/payever-backend-assessment/internal/config"
	"github.com/zenon0777/payever-backend-assessment/internal/directory"
	"github.com/zenon0777/payever-backend-assessment/internal/domain"
	"github.com/zenon0777/payever-backend-assessment/internal/handler"
	"github.com/zenon0777/payever-backend-assessment/internal/mq"
	"github.com/zenon0777/payever-backend-assessment/internal/notify"
	"github.com/zenon0777/payever-backend-assessment/internal/repository"
	"github.com/zenon0777/payever-backend-assessment/internal/service"
	"github.com/zenon0777/payever-backend-assessment/pkg/database"
	"github.com/zenon0777/payever-backend-assessment/pkg/log"
	"github.com/zenon0777/payever-backend-assessment/pkg/middleware"
	"github.com/zenon0777/payever-backend-assessment/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "user-service",
	})
	l := log.L()

	ctx := context.Background()

	// Initialize store
	users, avatars, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		l.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer closeStore()

	// Initialize avatar cache
	var avatarCache cache.AvatarCache = cache.NoopAvatarCache{}
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisAvatarCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to create redis cache")
		}
		avatarCache = redisCache
	}
	defer avatarCache.Close()

	// Initialize side-car storage
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		l.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to create storage")
	}

	// Initialize event publisher
	publisher, err := mq.NewPublisher(cfg.MQ)
	if err != nil {
		l.Fatal().Err(err).Str("driver", cfg.MQ.Driver).Msg("failed to create event publisher")
	}
	defer publisher.Close()

	userService := service.NewUserService(service.Deps{
		Users:     users,
		Avatars:   avatars,
		Directory: directory.NewClient(cfg.Directory),
		Storage:   store,
		Notifier:  notify.New(cfg.Mail),
		Publisher: publisher,
		Cache:     avatarCache,
		CacheTTL:  cfg.Cache.TTL,
	})

	httpHandler := handler.NewHandler(userService)

	// Setup Gin router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(log.GinMiddleware(l))
	router.Use(middleware.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	httpHandler.RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		l.Info().
			Str("addr", addr).
			Str("store", cfg.Store.Driver).
			Str("mq", cfg.MQ.Driver).
			Msg("user-service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("server exited")
}

// openStore connects the backend named by store.driver and returns its
// repositories with a function releasing the connection.
func openStore(ctx context.Context, cfg *config.Config) (repository.UserRepository, repository.AvatarRepository, func(), error) {
	l := log.L()

	switch cfg.Store.Driver {
	case "mongo":
		ms, err := repository.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := ms.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close mongo client")
			}
		}
		return ms.Users(), ms.Avatars(), closeFn, nil

	case "gorm", "":
		db, err := database.New(&database.Config{
			Driver:          cfg.Database.Driver,
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			FilePath:        cfg.Database.FilePath,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			LogLevel:        cfg.Database.LogLevel,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db, &domain.UserModel{}, &domain.AvatarModel{}); err != nil {
			database.Close(db)
			return nil, nil, nil, fmt.Errorf("failed to auto-migrate: %w", err)
		}
		l.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

		closeFn := func() {
			if err := database.Close(db); err != nil {
				l.Error().Err(err).Msg("failed to close database")
			}
		}
		return repository.NewGormUserRepository(db), repository.NewGormAvatarRepository(db), closeFn, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
