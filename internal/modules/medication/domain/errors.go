package domain

import (
	"errors"
	"fmt"
)

// ErrExtractionSuperseded より新しい抽出リクエストが発行されたため結果を破棄した
var ErrExtractionSuperseded = errors.New("extraction superseded by a newer request")

// ErrMedicationNotFound 指定IDの手動登録薬が存在しない
var ErrMedicationNotFound = errors.New("medication not found")

// ValidationError 手動登録の入力エラー
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s is required or invalid", e.Field)
}
