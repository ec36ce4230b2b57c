package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"food-recommender/internal/api/handlers/dataset"
	"food-recommender/internal/api/handlers/health"
	recommendHandler "food-recommender/internal/api/handlers/recommend"
	"food-recommender/internal/api/middleware"
	"food-recommender/internal/core/food"
	recommendService "food-recommender/internal/core/recommend"
	"food-recommender/internal/infrastructure/config"
	"food-recommender/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, ds *food.Dataset) (*gin.Engine, error) {
	if cfg == nil || ds == nil {
		return nil, fmt.Errorf("config and dataset are required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	recommendSvc := recommendService.NewService(ds, cfg.Recommend)

	// 全局中間件：設置超時和依賴
	requestTimeout := cfg.Server.RequestTimeout
	router.Use(func(c *gin.Context) {
		if requestTimeout > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)
		}

		c.Set(health.ConfigKey, cfg)
		c.Set(health.DatasetKey, ds)

		c.Next()

		if c.Request.Context().Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", requestTimeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeRequestTimeout,
				Message: "Request timeout",
				Details: requestTimeout.String(),
			})
		}
	})

	router.NoRoute(func(c *gin.Context) {
		common.WriteErrorResponse(c.Writer, common.ErrNotFound, cfg.App.Debug)
		c.Abort()
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	{
		recommendHandlerInstance := recommendHandler.NewHandler(recommendSvc, cfg.App.Debug)
		api.POST("/recommend", recommendHandlerInstance.HandleRecommend)

		datasetHandler := dataset.NewHandler(ds, cfg.App.Debug)
		datasetGroup := api.Group("/dataset")
		{
			datasetGroup.GET("", datasetHandler.HandleStats)
			datasetGroup.POST("/reload", datasetHandler.HandleReload)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("dataset_source", ds.Source()),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Duration("timeout", requestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
