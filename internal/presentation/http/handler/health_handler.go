package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"prescription-api-app/internal/modules/shared/presentation/response"
)

// Version APIのバージョン
const Version = "1.0.0"

// pingTimeout 依存先1件あたりの確認時間
const pingTimeout = 2 * time.Second

// Pinger 接続確認ができる依存先
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler ヘルスチェックのハンドラー
type HealthHandler struct {
	provider string
	checks   map[string]Pinger
}

// NewHealthHandler 新しいHealthHandlerを作成（checksはnil可）
func NewHealthHandler(provider string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		provider: provider,
		checks:   checks,
	}
}

// HealthResponse ヘルスチェックのレスポンス
type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Provider     string            `json:"provider,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// ServeHTTP ヘルスチェックを処理
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, response.KindInvalidInput, "Method not allowed")
		return
	}

	res := HealthResponse{
		Status:   "ok",
		Version:  Version,
		Provider: h.provider,
	}
	status := http.StatusOK

	if len(h.checks) > 0 {
		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		res.Dependencies = make(map[string]string, len(names))
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			err := h.checks[name].Ping(ctx)
			cancel()

			if err != nil {
				res.Dependencies[name] = "unavailable"
				res.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			res.Dependencies[name] = "ok"
		}
	}

	response.JSON(w, status, res)
}
