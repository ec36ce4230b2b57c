package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// DataSourceError 資料來源不存在、無法讀取或無法解析
type DataSourceError struct {
	Source string
	Reason string
	Err    error
}

func (e *DataSourceError) Error() string {
	msg := fmt.Sprintf("data source %q: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// NewDataSourceError 創建資料來源錯誤
func NewDataSourceError(source, reason string, err error) error {
	return &DataSourceError{Source: source, Reason: reason, Err: err}
}

// IsDataSourceError 檢查是否為資料來源錯誤
func IsDataSourceError(err error) bool {
	var target *DataSourceError
	return errors.As(err, &target)
}

// InvalidCriteriaError 推薦條件格式錯誤
type InvalidCriteriaError struct {
	Field   string
	Message string
}

func (e *InvalidCriteriaError) Error() string {
	return fmt.Sprintf("invalid criteria %s: %s", e.Field, e.Message)
}

// NewInvalidCriteriaError 創建推薦條件錯誤
func NewInvalidCriteriaError(field, message string) error {
	return &InvalidCriteriaError{Field: field, Message: message}
}

// IsInvalidCriteriaError 檢查是否為推薦條件錯誤
func IsInvalidCriteriaError(err error) bool {
	var target *InvalidCriteriaError
	return errors.As(err, &target)
}

// ValidationError 表示設定驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// ToCustomError 將領域錯誤對應為 API 錯誤
func ToCustomError(err error) *CustomError {
	var custom *CustomError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &custom):
		return custom
	case IsInvalidCriteriaError(err):
		return NewError(ErrCodeInvalidCriteria, "推薦條件無效", http.StatusBadRequest, err)
	case IsDataSourceError(err):
		return NewError(ErrCodeDataSource, "資料集無法載入", http.StatusServiceUnavailable, err)
	default:
		return NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, err)
	}
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeInvalidCriteria = "INVALID_CRITERIA"  // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError = "INTERNAL_ERROR"    // 500
	ErrCodeDataSource    = "DATA_SOURCE_ERROR" // 503
)

// 預定義錯誤
var (
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)
	ErrInternalError   = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
)
