package usecase

import (
	"context"

	"github.com/google/uuid"

	"prescription-api-app/internal/modules/medication/domain"
)

// ListQuery 一覧取得の条件（画面から受け取った文字列のまま）
type ListQuery struct {
	Text   string
	Timing string
	Food   string
	Sort   string
}

// MedicationUseCase 手動登録と一覧取得のユースケース
type MedicationUseCase struct {
	sessions *SessionRegistry
	newID    func() string
}

// NewMedicationUseCase 新しいMedicationUseCaseを作成
func NewMedicationUseCase(sessions *SessionRegistry) *MedicationUseCase {
	return &MedicationUseCase{
		sessions: sessions,
		newID:    uuid.NewString,
	}
}

// AddManual 手動入力の薬を登録
func (uc *MedicationUseCase) AddManual(ctx context.Context, sessionID string, in domain.ManualMedicationInput) (*domain.ManualMedication, error) {
	m, err := domain.NewManualMedication(uc.newID(), in)
	if err != nil {
		return nil, err
	}

	record, err := uc.sessions.Get(ctx, sessionID).Aggregator().AddManual(m)
	if err != nil {
		return nil, err
	}

	uc.sessions.Persist(ctx, sessionID, []domain.MedicationRecord{record})
	return record.Manual, nil
}

// ReplaceManual 手動登録の薬を入力内容で置き換える（IDは変わらない）
func (uc *MedicationUseCase) ReplaceManual(ctx context.Context, sessionID, id string, in domain.ManualMedicationInput) (*domain.ManualMedication, error) {
	m, err := domain.NewManualMedication(id, in)
	if err != nil {
		return nil, err
	}

	record, err := uc.sessions.Get(ctx, sessionID).Aggregator().ReplaceManual(id, m)
	if err != nil {
		return nil, err
	}

	uc.sessions.PersistReplace(ctx, sessionID, record)
	return record.Manual, nil
}

// List 条件に合う薬の一覧を取得
func (uc *MedicationUseCase) List(ctx context.Context, sessionID string, q ListQuery) ([]domain.MedicationView, error) {
	order, err := ParseSortOrder(q.Sort)
	if err != nil {
		return nil, &domain.ValidationError{Field: "sort"}
	}
	food, err := ParseFoodFilter(q.Food)
	if err != nil {
		return nil, &domain.ValidationError{Field: "food"}
	}

	filter := Filter{
		Text:   q.Text,
		Timing: q.Timing,
		Food:   food,
	}
	return uc.sessions.Get(ctx, sessionID).Aggregator().Query(filter, order), nil
}
