package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/videotube/internal/config"
	"github.com/Skotchmaster/videotube/internal/events"
	"github.com/Skotchmaster/videotube/internal/httpserver"
	"github.com/Skotchmaster/videotube/internal/media"
	"github.com/Skotchmaster/videotube/internal/migrations"
	"github.com/Skotchmaster/videotube/internal/repo"
	"github.com/Skotchmaster/videotube/internal/search"
	"github.com/Skotchmaster/videotube/internal/service"
	"github.com/Skotchmaster/videotube/pkg/db"
	"github.com/Skotchmaster/videotube/pkg/logging"
)

type eventPublisher interface {
	service.Publisher
	Close() error
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := migrations.Up(initCtx, cfg.DatabaseURL); err != nil {
		return err
	}

	gormDB, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gormDB); err != nil {
			logger.Error("db close error", "error", err)
		}
	}()
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	mediaClient, err := media.Dial(initCtx, media.Options{
		Endpoint:  cfg.Media.Endpoint,
		AccessKey: cfg.Media.AccessKey,
		SecretKey: cfg.Media.SecretKey,
		Bucket:    cfg.Media.Bucket,
		UseSSL:    cfg.Media.UseSSL,
		PublicURL: cfg.Media.PublicURL,
	})
	if err != nil {
		return err
	}

	var publisher eventPublisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		prod, err := events.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		publisher = prod
	} else {
		logger.Warn("kafka brokers not configured, user events are dropped")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}()

	var index service.ChannelIndex
	if cfg.Search.URL != "" {
		es, err := search.NewClient(cfg.Search.URL, cfg.Search.User, cfg.Search.Password)
		if err != nil {
			return err
		}
		index = search.NewIndex(es, cfg.Search.Index)
	} else {
		logger.Warn("elasticsearch not configured, channel search is disabled")
	}

	users := repo.New(gormDB)
	tokens := &service.TokenService{
		Repo:          users,
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	}
	sessions := &service.SessionService{
		Repo:          users,
		Tokens:        tokens,
		Media:         mediaClient,
		Events:        publisher,
		Index:         index,
		UploadTimeout: cfg.Media.UploadTimeout,
	}
	profiles := &service.ProfileService{
		Repo:          users,
		Media:         mediaClient,
		Events:        publisher,
		Index:         index,
		UploadTimeout: cfg.Media.UploadTimeout,
	}

	e := httpserver.New(logger, httpserver.Options{
		BodyLimit:    cfg.BodyLimit,
		AllowOrigins: cfg.AllowOrigins,
	})
	httpserver.Register(e, &httpserver.Deps{
		Users: &httpserver.UsersHTTP{Sessions: sessions, Profiles: profiles},
		Auth:  sessions,
		Ready: sqlDB.PingContext,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}
