package common

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteErrorResponse 寫入錯誤響應，debug 時附上原始錯誤
func WriteErrorResponse(w http.ResponseWriter, err error, debug bool) int {
	custom := ToCustomError(err)
	if custom == nil {
		custom = ErrInternalError
	}

	resp := ErrorResponse{
		Code:    custom.Code,
		Message: custom.Message,
	}
	// 4xx 的錯誤內容屬於使用者輸入，可以直接回傳
	if custom.Err != nil && (debug || custom.Status < http.StatusInternalServerError) {
		resp.Details = custom.Err.Error()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(custom.Status)
	_ = json.NewEncoder(w).Encode(resp)
	return custom.Status
}
