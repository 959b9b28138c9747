package middleware

import (
	"fmt"
	"net/http"

	"prescription-api-app/internal/modules/shared/presentation/response"
	"prescription-api-app/internal/modules/shared/presentation/session"
)

// Session X-Session-ID ヘッダーをコンテキストに設定する
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := session.Normalize(r.Header.Get(session.HeaderName))
		if !ok {
			response.FieldError(w, http.StatusBadRequest, "session_id",
				fmt.Sprintf("%s must be at most %d characters", session.HeaderName, session.MaxIDLength))
			return
		}

		next.ServeHTTP(w, r.WithContext(session.WithID(r.Context(), id)))
	})
}
