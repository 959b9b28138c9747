package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	meddomain "prescription-api-app/internal/modules/medication/domain"
	"prescription-api-app/internal/modules/prescription/domain"
	"prescription-api-app/internal/modules/prescription/usecase"
	"prescription-api-app/internal/modules/shared/presentation/response"
	"prescription-api-app/internal/modules/shared/presentation/session"
)

// maxFormOverhead 画像以外のマルチパート部分に許容するサイズ
const maxFormOverhead = 1 << 20

// PrescriptionAnalyzer 処方箋解析ユースケースのインターフェース
type PrescriptionAnalyzer interface {
	AnalyzePrescription(ctx context.Context, sessionID string, img domain.RawImage) (*usecase.AnalyzeResult, error)
}

// PrescriptionHandler 処方箋解析APIのハンドラー
type PrescriptionHandler struct {
	analyzer PrescriptionAnalyzer
	logger   *slog.Logger
}

// NewPrescriptionHandler 新しいPrescriptionHandlerを作成
func NewPrescriptionHandler(analyzer PrescriptionAnalyzer, logger *slog.Logger) *PrescriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrescriptionHandler{
		analyzer: analyzer,
		logger:   logger,
	}
}

// AnalyzeResponse 処方箋解析APIのレスポンス
type AnalyzeResponse struct {
	Success              bool                         `json:"success"`
	DetectedLanguage     string                       `json:"detected_language"`
	DetectedLanguageName string                       `json:"detected_language_name"`
	Medications          []domain.ExtractedMedication `json:"medications"`
	Unreadable           bool                         `json:"unreadable"`
	Warnings             []string                     `json:"warnings"`
	RecordIDs            []string                     `json:"record_ids"`
	Provider             string                       `json:"provider"`
	Model                string                       `json:"model"`
	Tokens               *TokensResponse              `json:"tokens,omitempty"`
}

// TokensResponse トークン使用量のレスポンス
type TokensResponse struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// HandleAnalyze 処方箋画像を解析し、抽出した薬をセッションに追加する
func (h *PrescriptionHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxImageSize+maxFormOverhead)
	if err := r.ParseMultipartForm(domain.MaxImageSize + maxFormOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, response.KindInvalidInput, "Image size exceeds 10MB")
			return
		}
		response.Error(w, http.StatusBadRequest, response.KindInvalidInput, "Failed to parse form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.KindInvalidInput, "Image file is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	// 上限を1バイト超えて読み、サイズ超過は SniffImage に判定させる
	data, err := io.ReadAll(io.LimitReader(file, domain.MaxImageSize+1))
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.KindInvalidInput, "Failed to read image")
		return
	}

	img := domain.RawImage{
		Data:      data,
		MediaType: header.Header.Get("Content-Type"),
	}
	// ブラウザ以外のクライアントは汎用の型を送ってくることがある
	if img.MediaType == "application/octet-stream" {
		img.MediaType = ""
	}

	result, err := h.analyzer.AnalyzePrescription(r.Context(), session.FromContext(r.Context()), img)
	if err != nil {
		h.writeError(w, err)
		return
	}

	cacheStatus := "MISS"
	if result.Cached {
		cacheStatus = "HIT"
	}
	w.Header().Set("X-Cache", cacheStatus)

	response.JSON(w, http.StatusOK, newAnalyzeResponse(result))
}

func newAnalyzeResponse(result *usecase.AnalyzeResult) AnalyzeResponse {
	ids := make([]string, len(result.Records))
	for i, rec := range result.Records {
		ids[i] = rec.ID
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	res := AnalyzeResponse{
		Success:              true,
		DetectedLanguage:     result.Result.DetectedLanguageCode,
		DetectedLanguageName: result.Result.DetectedLanguageName,
		Medications:          result.Result.Medications,
		Unreadable:           result.Result.Unreadable(),
		Warnings:             warnings,
		RecordIDs:            ids,
		Provider:             result.Provider,
		Model:                result.Model,
	}
	if res.Medications == nil {
		res.Medications = []domain.ExtractedMedication{}
	}
	if !result.Cached {
		res.Tokens = &TokensResponse{
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
			TotalTokens:  result.InputTokens + result.OutputTokens,
		}
	}
	return res
}

// writeError エラーの種類に応じたステータスで応答する
func (h *PrescriptionHandler) writeError(w http.ResponseWriter, err error) {
	status, kind := classifyError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("prescription analysis failed", "error_kind", kind, "error", err)
	}
	response.Error(w, status, kind, err.Error())
}

// classifyError エラーをHTTPステータスとerror_kindに対応付ける
func classifyError(err error) (int, string) {
	var (
		invalidInput *domain.InvalidInputError
		timeout      *domain.UpstreamTimeoutError
		upstream     *domain.UpstreamError
		empty        *domain.UpstreamEmptyResponseError
		malformed    *domain.MalformedResponseError
		violation    *domain.SchemaViolationError
	)

	switch {
	case errors.As(err, &invalidInput):
		return http.StatusBadRequest, response.KindInvalidInput
	case errors.Is(err, meddomain.ErrExtractionSuperseded):
		return http.StatusConflict, response.KindSuperseded
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout, response.KindUpstreamTimeout
	case errors.As(err, &empty):
		return http.StatusBadGateway, response.KindUpstreamEmpty
	case errors.As(err, &upstream):
		return http.StatusBadGateway, response.KindUpstreamUnreachable
	case errors.As(err, &malformed):
		return http.StatusBadGateway, response.KindMalformedResponse
	case errors.As(err, &violation):
		return http.StatusBadGateway, response.KindSchemaViolation
	}
	return http.StatusInternalServerError, response.KindInternal
}
