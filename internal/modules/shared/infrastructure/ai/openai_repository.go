package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"prescription-api-app/internal/config"
	"prescription-api-app/internal/modules/prescription/domain"
)

// OpenAIRepository OpenAI互換のChat Completions APIのリポジトリ実装
// Hugging Face Routerなど、画像入力に対応したエンドポイントで使用する
type OpenAIRepository struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewOpenAIRepository 新しいOpenAIRepositoryを作成
func NewOpenAIRepository(cfg *config.VisionConfig) *OpenAIRepository {
	return newOpenAIRepository(cfg, &http.Client{})
}

func newOpenAIRepository(cfg *config.VisionConfig, httpClient *http.Client) *OpenAIRepository {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = httpClient

	return &OpenAIRepository{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout(),
	}
}

// Extract 画像と指示文を1回だけ送信する（再試行はしない）
func (r *OpenAIRepository) Extract(ctx context.Context, extraction domain.ExtractionRequest) (*domain.RawExtraction, error) {
	if extraction.Image == nil {
		return nil, &domain.InvalidInputError{Reason: "image is required"}
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extraction.Instruction,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    extraction.Image.DataURI(),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, r.mapError(ctx, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, &domain.UpstreamEmptyResponseError{Provider: r.ProviderName()}
	}

	model := resp.Model
	if model == "" {
		model = r.model
	}

	return domain.NewRawExtraction(
		resp.Choices[0].Message.Content,
		resp.Usage.PromptTokens,
		resp.Usage.CompletionTokens,
		model,
	), nil
}

// mapError go-openaiのエラーを抽出エラーに変換
func (r *OpenAIRepository) mapError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &domain.UpstreamError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &domain.UpstreamError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error(), Err: err}
	}

	return transportError(ctx, err, r.timeout)
}

// Model 使用するモデル名を返す
func (r *OpenAIRepository) Model() string {
	return r.model
}

// ProviderName プロバイダー名を返す
func (r *OpenAIRepository) ProviderName() string {
	return "OpenAI Compatible"
}
