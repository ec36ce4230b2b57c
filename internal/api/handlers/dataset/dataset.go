package dataset

import (
	"context"
	"net/http"

	"food-recommender/internal/core/food"
	"food-recommender/internal/metrics"
	"food-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Store 資料集句柄介面
type Store interface {
	Stats() food.Stats
	Reload(ctx context.Context) (*food.Table, error)
}

// Handler 資料集管理處理程序
type Handler struct {
	store Store
	debug bool
}

// NewHandler 創建資料集處理程序
func NewHandler(store Store, debug bool) *Handler {
	return &Handler{store: store, debug: debug}
}

// HandleStats 處理 GET /api/v1/dataset
func (h *Handler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

// HandleReload 處理 POST /api/v1/dataset/reload
func (h *Handler) HandleReload(c *gin.Context) {
	table, err := h.store.Reload(c.Request.Context())
	if err != nil {
		metrics.DatasetReloadsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		common.LogError("資料集重新載入失敗", zap.Error(err))
		common.WriteErrorResponse(c.Writer, err, h.debug)
		c.Abort()
		return
	}

	metrics.DatasetReloadsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	common.LogInfo("資料集已重新載入", zap.Int("rows", table.Len()))
	c.JSON(http.StatusOK, h.store.Stats())
}
