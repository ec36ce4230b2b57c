package recommend

import (
	"context"
	"net/http"

	recommendService "food-recommender/internal/core/recommend"
	"food-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recommender 推薦服務介面
type Recommender interface {
	Recommend(ctx context.Context, criteria recommendService.Criteria) (*recommendService.Result, error)
}

// Response 推薦結果回應
type Response struct {
	Columns []string                 `json:"columns"` // 顯示欄位順序
	Rows    []map[string]interface{} `json:"rows"`    // 以欄位名稱為鍵
	Count   int                      `json:"count"`   // 回傳筆數
	Matched int                      `json:"matched"` // 通過篩選的總筆數
}

// Handler 推薦處理程序
type Handler struct {
	service Recommender
	debug   bool
}

// NewHandler 創建推薦處理程序
func NewHandler(service Recommender, debug bool) *Handler {
	return &Handler{
		service: service,
		debug:   debug,
	}
}

// HandleRecommend 處理 POST /api/v1/recommend
func (h *Handler) HandleRecommend(c *gin.Context) {
	requestID := requestIDFrom(c)

	var req recommendService.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteErrorResponse(c.Writer,
			common.NewError(common.ErrCodeInvalidRequest, "Invalid request format", http.StatusBadRequest, err),
			h.debug,
		)
		c.Abort()
		return
	}

	criteria, err := req.ToCriteria()
	if err != nil {
		h.fail(c, requestID, err)
		return
	}

	result, err := h.service.Recommend(c.Request.Context(), criteria)
	if err != nil {
		h.fail(c, requestID, err)
		return
	}

	common.LogInfo("推薦成功",
		zap.String("request_id", requestID),
		zap.Int("count", len(result.Rows)),
		zap.Int("matched", result.Matched),
	)

	c.JSON(http.StatusOK, Response{
		Columns: result.Columns,
		Rows:    result.Records(),
		Count:   len(result.Rows),
		Matched: result.Matched,
	})
}

func (h *Handler) fail(c *gin.Context, requestID string, err error) {
	status := common.WriteErrorResponse(c.Writer, err, h.debug)
	fields := []zap.Field{
		zap.Error(err),
		zap.String("request_id", requestID),
		zap.Int("status", status),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("推薦失敗", fields...)
	} else {
		common.LogWarn("推薦條件無效", fields...)
	}
	c.Abort()
}

// requestIDFrom 取得或產生請求 ID
func requestIDFrom(c *gin.Context) string {
	requestID := c.Writer.Header().Get("X-Request-ID")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}
