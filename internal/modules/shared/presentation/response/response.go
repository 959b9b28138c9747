package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// エラー種別（error_kind）
const (
	KindInvalidInput        = "invalid_input"
	KindUpstreamUnreachable = "upstream_unreachable"
	KindUpstreamTimeout     = "upstream_timeout"
	KindUpstreamEmpty       = "upstream_empty"
	KindMalformedResponse   = "malformed_response"
	KindSchemaViolation     = "schema_violation"
	KindValidation          = "validation"
	KindSuperseded          = "superseded"
	KindNotFound            = "not_found"
	KindInternal            = "internal"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind"`
	Field     string `json:"field,omitempty"`
}

// JSON 値をJSONで書き出す
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error エラーレスポンスを書き出す
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, ErrorResponse{
		Success:   false,
		Error:     message,
		ErrorKind: kind,
	})
}

// FieldError 入力項目のエラーを書き出す
func FieldError(w http.ResponseWriter, status int, field, message string) {
	JSON(w, status, ErrorResponse{
		Success:   false,
		Error:     message,
		ErrorKind: KindValidation,
		Field:     field,
	})
}
