package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/ladder-system/broadcast"
	"github.com/Dosada05/ladder-system/config"
	"github.com/Dosada05/ladder-system/db"
	"github.com/Dosada05/ladder-system/platform"
	"github.com/Dosada05/ladder-system/repositories"
	"github.com/Dosada05/ladder-system/services"
	"github.com/Dosada05/ladder-system/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.String("cluster", cfg.Cluster),
		slog.Duration("tick_interval", cfg.TickInterval))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Клиент игровой платформы
	client, err := platform.NewHTTPClient(platform.HTTPClientConfig{
		BaseURL: cfg.PlatformBaseURL,
		Token:   cfg.PlatformAPIToken,
	})
	if err != nil {
		logger.Error("failed to initialize platform client", slog.Any("error", err))
		os.Exit(1)
	}

	// Архив таблиц (Cloudflare R2), опционально
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("standings archive enabled")
	} else {
		logger.Info("standings archive disabled, R2 is not configured")
	}

	// WebSocket hub для подписчиков
	hub := broadcast.NewHub(logger)
	go hub.Run()

	// Репозитории
	leagueRepo := repositories.NewPostgresLeagueRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	templateRepo := repositories.NewPostgresTemplateRepository(dbConn)

	// Сервисы
	lifecycle := services.NewLifecycleService(teamRepo, gameRepo, templateRepo, client, hub, logger)
	batch := services.NewBatchService(teamRepo, gameRepo, templateRepo, client, hub, logger)
	standings := services.NewStandingsService(teamRepo, uploader, hub, logger)
	scheduler := services.NewScheduleService(leagueRepo, teamRepo, templateRepo, lifecycle, batch, standings, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", broadcast.ServeWS(hub, logger))
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting subscriber endpoint", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		logger.Info("scheduler started", slog.String("cluster", cfg.Cluster))

		// Первый проход сразу при старте, дальше по тикеру.
		if err := scheduler.RunCluster(groupCtx, cfg.Cluster); err != nil {
			logger.Error("scheduler run failed", slog.Any("error", err))
		}
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if err := scheduler.RunCluster(groupCtx, cfg.Cluster); err != nil {
					logger.Error("scheduler run failed", slog.Any("error", err))
				}
			}
		}
	})

	if err := group.Wait(); err != nil {
		logger.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}
