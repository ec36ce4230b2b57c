package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-recommender/internal/api"
	"food-recommender/internal/core/cache"
	"food-recommender/internal/core/food"
	"food-recommender/internal/infrastructure/config"
	"food-recommender/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("dataset_source", cfg.Dataset.Source),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Int("default_top_n", cfg.Recommend.DefaultTopN),
	)

	// 初始化快照快取
	snapshots, err := cache.NewService(context.Background(), &cfg.Cache)
	if err != nil {
		common.LogFatal("Failed to initialize cache service", zap.Error(err))
	}
	defer snapshots.Close()

	var store food.SnapshotStore
	if snapshots.Enabled() {
		store = snapshots
	}
	dataset := food.NewDataset(cfg.Dataset.Source, food.NewLoader(cfg.Dataset.FetchTimeout), store)

	// 預先載入資料集，失敗時仍啟動並由 /ready 回報
	if cfg.Dataset.WarmOnStart {
		warmCtx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.FetchTimeout+5*time.Second)
		if _, err := dataset.Table(warmCtx); err != nil {
			common.LogWarn("Dataset warm-up failed", zap.Error(err))
		}
		cancel()
	}

	router, err := api.SetupRouter(cfg, dataset)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
