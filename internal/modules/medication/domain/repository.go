package domain

import "context"

// MedicationRepository セッション単位の薬の保存先
// 集約はメモリ上で完結しており、保存先は任意
type MedicationRepository interface {
	Save(ctx context.Context, sessionID string, records []MedicationRecord) error
	Replace(ctx context.Context, sessionID string, record MedicationRecord) error
	FindBySession(ctx context.Context, sessionID string) ([]MedicationRecord, error)
}
