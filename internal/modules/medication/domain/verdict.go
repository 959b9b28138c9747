package domain

import (
	"fmt"
	"time"
)

// VerdictOutcome 安全性チェックの結果区分
type VerdictOutcome string

const (
	// OutcomeNoComparison 比較対象の薬が登録されていない
	OutcomeNoComparison VerdictOutcome = "no_comparison"
	// OutcomeUnverified 相互作用の情報源を参照していない
	OutcomeUnverified VerdictOutcome = "unverified"
	// OutcomeVerified 情報源を参照した上での判定
	OutcomeVerified VerdictOutcome = "verified"
)

// ContraindicationVerdict 併用禁忌チェックの結果
type ContraindicationVerdict struct {
	SubjectName          string         `json:"medication"`
	HasContraindications bool           `json:"has_contraindications"`
	Warnings             []string       `json:"warnings"`
	Recommendation       string         `json:"recommendations"`
	ComparedWith         []string       `json:"compared_with"`
	Outcome              VerdictOutcome `json:"outcome"`
	EvaluatedAt          time.Time      `json:"evaluated_at"`
}

// NewNoComparisonVerdict 比較対象がない場合の結果を作成
func NewNoComparisonVerdict(subject string) *ContraindicationVerdict {
	return &ContraindicationVerdict{
		SubjectName:          subject,
		HasContraindications: false,
		Warnings:             []string{},
		Recommendation:       fmt.Sprintf("No other medications are on record to compare %s against, so no interaction check was performed.", subject),
		ComparedWith:         []string{},
		Outcome:              OutcomeNoComparison,
		EvaluatedAt:          time.Now(),
	}
}

// Verified 相互作用が無いことが確認済みかどうか
func (v *ContraindicationVerdict) Verified() bool {
	return v.Outcome == OutcomeVerified
}
