package session

import (
	"context"
	"strings"
)

// HeaderName セッションIDを受け取るヘッダー
const HeaderName = "X-Session-ID"

// DefaultID ヘッダーが無い場合のセッションID
const DefaultID = "default"

// MaxIDLength 保存先の列幅に合わせた上限
const MaxIDLength = 64

type contextKey struct{}

// Normalize ヘッダー値をセッションIDに変換（空ならDefaultID、長すぎる場合はfalse）
func Normalize(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return DefaultID, true
	}
	if len(id) > MaxIDLength {
		return "", false
	}
	return id, true
}

// WithID セッションIDをコンテキストに設定
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext コンテキストからセッションIDを取得
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok && id != "" {
		return id
	}
	return DefaultID
}
