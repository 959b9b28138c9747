package domain

import "time"

// RawExtraction 外部モデルから返された未検証のテキスト
type RawExtraction struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Model        string
	ReceivedAt   time.Time
}

// NewRawExtraction 新しいRawExtractionを作成
func NewRawExtraction(text string, inputTokens, outputTokens int, model string) *RawExtraction {
	return &RawExtraction{
		Text:         text,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Model:        model,
		ReceivedAt:   time.Now(),
	}
}

// TotalTokens 合計トークン数を返す
func (r *RawExtraction) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}
