package domain

import (
	"fmt"
	"time"
)

// InvalidInputError 画像入力が不正な場合のエラー
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// UpstreamError 外部モデルが非成功ステータスを返した、または到達できなかった場合のエラー
// StatusCode が0の場合は通信自体に失敗している
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// UpstreamTimeoutError 外部モデル呼び出しがタイムアウトした場合のエラー
type UpstreamTimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("upstream request timed out after %s", e.Timeout)
}

func (e *UpstreamTimeoutError) Unwrap() error {
	return e.Err
}

// UpstreamEmptyResponseError 成功ステータスだがテキストを含まない応答
type UpstreamEmptyResponseError struct {
	Provider string
}

func (e *UpstreamEmptyResponseError) Error() string {
	return fmt.Sprintf("%s returned no text content", e.Provider)
}

// MalformedResponseError モデル出力を構造化データとして解釈できない場合のエラー
type MalformedResponseError struct {
	RawText string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// SchemaViolationError 解釈はできたが抽出結果の契約に違反している場合のエラー
type SchemaViolationError struct {
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Field, e.Reason)
}
