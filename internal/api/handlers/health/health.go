package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"food-recommender/internal/core/food"
	"food-recommender/internal/infrastructure/config"
	"food-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the router
const (
	ConfigKey  = "config"
	DatasetKey = "dataset"
)

// DatasetProbe 就緒檢查所需的資料集介面
type DatasetProbe interface {
	Table(ctx context.Context) (*food.Table, error)
	Stats() food.Stats
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Dataset   *food.Stats            `json:"dataset,omitempty"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	value, exists := c.Get(ConfigKey)
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return
	}
	cfg, ok := value.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid configuration type",
		})
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if probe, ok := datasetFrom(c); ok {
		stats := probe.Stats()
		response.Dataset = &stats
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 資料集可載入時才就緒
func ReadinessCheck(c *gin.Context) {
	probe, ok := datasetFrom(c)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "dataset not configured",
		})
		return
	}

	table, err := probe.Table(c.Request.Context())
	if err != nil {
		common.LogWarn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "dataset unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"rows":   table.Len(),
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func datasetFrom(c *gin.Context) (DatasetProbe, bool) {
	value, exists := c.Get(DatasetKey)
	if !exists {
		return nil, false
	}
	probe, ok := value.(DatasetProbe)
	return probe, ok
}
