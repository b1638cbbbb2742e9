package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ksenchy/filevault/internal/auth"
	"github.com/ksenchy/filevault/internal/config"
	"github.com/ksenchy/filevault/internal/file"
	"github.com/ksenchy/filevault/internal/folder"
	"github.com/ksenchy/filevault/internal/logger"
	"github.com/ksenchy/filevault/internal/metrics"
	"github.com/ksenchy/filevault/internal/objectstore"
	"github.com/ksenchy/filevault/internal/server"
	"github.com/ksenchy/filevault/internal/storage"
)

func main() {
	_ = godotenv.Load()

	zlog, err := logger.Init()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		zlog.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		zlog.Fatal("connect minio", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		zlog.Fatal("ensure bucket", zap.Error(err))
	}

	metrics.InitMetrics()

	gateway := objectstore.NewGateway(minioClient, cfg.MinIO.Bucket)

	folderRepo := folder.NewRepository(dbPool)
	fileRepo := file.NewRepository(dbPool)

	folderService := folder.NewService(folderRepo, fileRepo, gateway, zlog)
	fileService := file.NewService(fileRepo, folderRepo, gateway, cfg.Upload.PresignTTL, cfg.Upload.MaxDirectUploadBytes, zlog)

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, folderService, cfg.Auth)

	router := server.NewRouter(server.Dependencies{
		Config:        cfg,
		Log:           zlog,
		DB:            dbPool,
		ObjectStore:   minioClient,
		AuthService:   authService,
		FolderService: folderService,
		FileService:   fileService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zlog.Info("FileVault API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zlog.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
}
