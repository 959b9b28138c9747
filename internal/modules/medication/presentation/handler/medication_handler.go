package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"prescription-api-app/internal/modules/medication/domain"
	"prescription-api-app/internal/modules/medication/usecase"
	"prescription-api-app/internal/modules/shared/presentation/response"
	"prescription-api-app/internal/modules/shared/presentation/session"
)

// maxJSONBody JSONリクエストボディの上限
const maxJSONBody = 64 << 10

// MedicationService 手動登録と一覧取得のユースケースのインターフェース
type MedicationService interface {
	AddManual(ctx context.Context, sessionID string, in domain.ManualMedicationInput) (*domain.ManualMedication, error)
	ReplaceManual(ctx context.Context, sessionID, id string, in domain.ManualMedicationInput) (*domain.ManualMedication, error)
	List(ctx context.Context, sessionID string, q usecase.ListQuery) ([]domain.MedicationView, error)
}

// ContraindicationChecker 併用禁忌チェックのユースケースのインターフェース
type ContraindicationChecker interface {
	Check(ctx context.Context, sessionID, subject string) (*domain.ContraindicationVerdict, error)
}

// MedicationHandler 薬の一覧・手動登録・併用禁忌チェックAPIのハンドラー
type MedicationHandler struct {
	medications MedicationService
	checker     ContraindicationChecker
	logger      *slog.Logger
}

// NewMedicationHandler 新しいMedicationHandlerを作成
func NewMedicationHandler(medications MedicationService, checker ContraindicationChecker, logger *slog.Logger) *MedicationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MedicationHandler{
		medications: medications,
		checker:     checker,
		logger:      logger,
	}
}

// ListResponse 一覧APIのレスポンス
type ListResponse struct {
	Success     bool                    `json:"success"`
	Count       int                     `json:"count"`
	Medications []domain.MedicationView `json:"medications"`
}

// MedicationResponse 手動登録APIのレスポンス
type MedicationResponse struct {
	Success    bool                     `json:"success"`
	Medication *domain.ManualMedication `json:"medication"`
}

// ContraindicationRequest 併用禁忌チェックAPIのリクエスト
type ContraindicationRequest struct {
	Name string `json:"name"`
}

// ContraindicationResponse 併用禁忌チェックAPIのレスポンス
type ContraindicationResponse struct {
	Success  bool                            `json:"success"`
	Verified bool                            `json:"verified"`
	Verdict  *domain.ContraindicationVerdict `json:"verdict"`
}

// HandleList 条件に合う薬の一覧を返す
func (h *MedicationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := usecase.ListQuery{
		Text:   q.Get("q"),
		Timing: strings.ToLower(strings.TrimSpace(q.Get("timing"))),
		Food:   q.Get("food"),
		Sort:   q.Get("sort"),
	}

	views, err := h.medications.List(r.Context(), session.FromContext(r.Context()), query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if views == nil {
		views = []domain.MedicationView{}
	}

	response.JSON(w, http.StatusOK, ListResponse{
		Success:     true,
		Count:       len(views),
		Medications: views,
	})
}

// HandleCreate 手動入力の薬を登録する
func (h *MedicationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in domain.ManualMedicationInput
	if !h.decodeJSON(w, r, &in) {
		return
	}

	m, err := h.medications.AddManual(r.Context(), session.FromContext(r.Context()), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/medications/"+m.ID)
	response.JSON(w, http.StatusCreated, MedicationResponse{Success: true, Medication: m})
}

// HandleReplace 手動登録の薬を置き換える
func (h *MedicationHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		response.FieldError(w, http.StatusBadRequest, "id", "Medication id is required")
		return
	}

	var in domain.ManualMedicationInput
	if !h.decodeJSON(w, r, &in) {
		return
	}

	m, err := h.medications.ReplaceManual(r.Context(), session.FromContext(r.Context()), id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, MedicationResponse{Success: true, Medication: m})
}

// HandleContraindications 指定の薬を登録済みの薬と照合する
func (h *MedicationHandler) HandleContraindications(w http.ResponseWriter, r *http.Request) {
	var req ContraindicationRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	verdict, err := h.checker.Check(r.Context(), session.FromContext(r.Context()), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, ContraindicationResponse{
		Success:  true,
		Verified: verdict.Verified(),
		Verdict:  verdict,
	})
}

// decodeJSON リクエストボディを読み込む（失敗時は応答済みでfalseを返す）
func (h *MedicationHandler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, response.KindValidation, "Invalid JSON body")
		return false
	}
	return true
}

// writeError エラーの種類に応じたステータスで応答する
func (h *MedicationHandler) writeError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		response.FieldError(w, http.StatusBadRequest, validation.Field, err.Error())
	case errors.Is(err, domain.ErrMedicationNotFound):
		response.Error(w, http.StatusNotFound, response.KindNotFound, err.Error())
	default:
		h.logger.Error("medication request failed", "error", err)
		response.Error(w, http.StatusInternalServerError, response.KindInternal, "Internal server error")
	}
}
