package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"prescription-api-app/internal/modules/shared/presentation/response"
)

// Recovery パニックを500レスポンスに変換するミドルウェア
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// 接続断はサーバー側で処理させる
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("Panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"error", rec,
					"stack", string(debug.Stack()),
				)
				response.Error(w, http.StatusInternalServerError, response.KindInternal, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
