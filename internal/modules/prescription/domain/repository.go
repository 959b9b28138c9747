package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss キャッシュに値が存在しない
var ErrCacheMiss = errors.New("cache miss")

// VisionRepository 画像解析モデルのリポジトリインターフェース
type VisionRepository interface {
	// Extract 画像と指示文を1回だけ送信し、モデルの生テキストを返す
	Extract(ctx context.Context, req ExtractionRequest) (*RawExtraction, error)

	// ProviderName プロバイダー名を返す
	ProviderName() string
}

// CacheRepository キャッシュリポジトリのインターフェース
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
