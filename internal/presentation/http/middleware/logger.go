package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"prescription-api-app/internal/modules/shared/presentation/session"
)

// HealthPath ログを抑制するヘルスチェックのパス
const HealthPath = "/health"

// statusRecorder ステータスコードと書き込みバイト数を記録するラッパー
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap http.ResponseController から元のWriterを参照できるようにする
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logger リクエストログを出力するミドルウェア
// ヘルスチェックは異常時のみ出力する
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newStatusRecorder(w)

			next.ServeHTTP(rw, r)

			if r.URL.Path == HealthPath {
				if rw.status != http.StatusOK {
					logger.Error("Health check failed", "status", rw.status)
				}
				return
			}

			level := slog.LevelInfo
			if rw.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"session_id", session.FromContext(r.Context()),
				"status", rw.status,
				"bytes", rw.written,
				"duration", time.Since(start),
			)
		})
	}
}
