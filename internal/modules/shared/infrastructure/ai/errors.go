package ai

import (
	"context"
	"errors"
	"net"
	"time"

	"prescription-api-app/internal/modules/prescription/domain"
)

// maxErrorBodyBytes エラー応答の本文として保持する上限
const maxErrorBodyBytes = 64 << 10

// withTimeout timeoutが0以下なら親のコンテキストをそのまま使う
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// transportError 通信エラーをタイムアウトとそれ以外に分類する
func transportError(ctx context.Context, err error, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.UpstreamTimeoutError{Timeout: timeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.UpstreamTimeoutError{Timeout: timeout, Err: err}
	}

	return &domain.UpstreamError{Err: err}
}

func isTimeout(err error) bool {
	var timeoutErr *domain.UpstreamTimeoutError
	return errors.As(err, &timeoutErr)
}
