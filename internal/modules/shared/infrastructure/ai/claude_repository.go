package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prescription-api-app/internal/config"
	"prescription-api-app/internal/modules/prescription/domain"
)

const anthropicVersion = "2023-06-01"

// ClaudeRepository Claude Messages APIのリポジトリ実装
type ClaudeRepository struct {
	apiKey      string
	model       string
	maxTokens   int
	timeout     time.Duration
	httpClient  *http.Client
	apiEndpoint string // テスト用にエンドポイントを差し替え可能に
}

// NewClaudeRepository 新しいClaudeRepositoryを作成
func NewClaudeRepository(cfg *config.VisionConfig) *ClaudeRepository {
	return &ClaudeRepository{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout(),
		httpClient:  &http.Client{},
		apiEndpoint: cfg.BaseURL,
	}
}

// SetHTTPClient テスト用にHTTPクライアントを設定（テストコードからのみ使用）
func (r *ClaudeRepository) SetHTTPClient(client *http.Client) {
	r.httpClient = client
}

// claudeResponse Messages APIの応答のうち使用する部分
type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Extract 画像と指示文を1回だけ送信する（再試行はしない）
func (r *ClaudeRepository) Extract(ctx context.Context, extraction domain.ExtractionRequest) (*domain.RawExtraction, error) {
	if extraction.Image == nil {
		return nil, &domain.InvalidInputError{Reason: "image is required"}
	}

	requestBody := map[string]interface{}{
		"model":      r.model,
		"max_tokens": r.maxTokens,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "image",
						"source": map[string]string{
							"type":       "base64",
							"media_type": extraction.Image.MediaType,
							"data":       extraction.Image.Base64,
						},
					},
					{
						"type": "text",
						"text": extraction.Instruction,
					},
				},
			},
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err, r.timeout)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       readErrorBody(resp.Body),
		}
	}

	var response claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		if ctxErr := transportError(ctx, err, r.timeout); isTimeout(ctxErr) {
			return nil, ctxErr
		}
		return nil, &domain.UpstreamEmptyResponseError{Provider: r.ProviderName()}
	}

	var texts []string
	for _, block := range response.Content {
		if block.Type != "" && block.Type != "text" {
			continue
		}
		if strings.TrimSpace(block.Text) != "" {
			texts = append(texts, block.Text)
		}
	}
	if len(texts) == 0 {
		return nil, &domain.UpstreamEmptyResponseError{Provider: r.ProviderName()}
	}

	return domain.NewRawExtraction(
		strings.Join(texts, "\n"),
		response.Usage.InputTokens,
		response.Usage.OutputTokens,
		r.model,
	), nil
}

// Model 使用するモデル名を返す
func (r *ClaudeRepository) Model() string {
	return r.model
}

// ProviderName プロバイダー名を返す
func (r *ClaudeRepository) ProviderName() string {
	return "Anthropic Claude"
}

// readErrorBody エラー応答の本文を上限付きで読む
func readErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	return string(data)
}
