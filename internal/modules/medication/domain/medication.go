package domain

import (
	"strings"
	"time"
)

// 手動登録時に付与する説明文
const (
	DefaultExplanation      = "This medication helps manage your condition."
	DefaultWhyTimingMatters = "Taking it at consistent times maintains stable levels in your body."
	WithFoodWarning         = "Take with food to reduce stomach upset"
)

// ManualTiming 手動登録で選べる服用タイミング
type ManualTiming string

const (
	ManualTimingMorning   ManualTiming = "morning"
	ManualTimingAfternoon ManualTiming = "afternoon"
	ManualTimingEvening   ManualTiming = "evening"
	ManualTimingNight     ManualTiming = "night"
	ManualTimingWithMeals ManualTiming = "with_meals"
)

// ParseManualTiming 文字列をManualTimingに変換（"withMeals" や "with meals" 表記も受け付ける）
func ParseManualTiming(s string) (ManualTiming, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "withmeals", "with-meals", "with meals":
		v = string(ManualTimingWithMeals)
	}

	t := ManualTiming(v)
	switch t {
	case ManualTimingMorning, ManualTimingAfternoon, ManualTimingEvening, ManualTimingNight, ManualTimingWithMeals:
		return t, true
	}
	return "", false
}

// ManualMedicationInput 利用者が入力した薬の情報
type ManualMedicationInput struct {
	Name      string   `json:"name"`
	Dosage    string   `json:"dosage"`
	Frequency string   `json:"frequency"`
	Timing    []string `json:"timing"`
	WithFood  bool     `json:"with_food"`
}

// ManualMedication 手動登録された薬エンティティ
// 編集はせず、置き換えのみ行う
type ManualMedication struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Dosage           string         `json:"dosage"`
	Frequency        string         `json:"frequency"`
	Timing           []ManualTiming `json:"timing"`
	WithFood         bool           `json:"with_food"`
	Explanation      string         `json:"plain_language_explanation"`
	WhyTimingMatters string         `json:"why_timing_matters"`
	Warnings         []string       `json:"warnings"`
	CreatedAt        time.Time      `json:"created_at"`
}

// NewManualMedication 入力を検証してManualMedicationを作成
func NewManualMedication(id string, in ManualMedicationInput) (*ManualMedication, error) {
	m := &ManualMedication{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		Dosage:    strings.TrimSpace(in.Dosage),
		Frequency: strings.TrimSpace(in.Frequency),
		Timing:    make([]ManualTiming, 0, len(in.Timing)),
		WithFood:  in.WithFood,
		CreatedAt: time.Now(),
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[ManualTiming]bool)
	for _, v := range in.Timing {
		t, ok := ParseManualTiming(v)
		if !ok {
			return nil, &ValidationError{Field: "timing"}
		}
		if !seen[t] {
			seen[t] = true
			m.Timing = append(m.Timing, t)
		}
	}

	m.Explanation = DefaultExplanation
	m.WhyTimingMatters = DefaultWhyTimingMatters
	m.Warnings = []string{}
	if m.WithFood {
		m.Warnings = append(m.Warnings, WithFoodWarning)
	}

	return m, nil
}

// Validate 必須項目を name, dosage, frequency の順に確認
func (m *ManualMedication) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return &ValidationError{Field: "name"}
	}
	if strings.TrimSpace(m.Dosage) == "" {
		return &ValidationError{Field: "dosage"}
	}
	if strings.TrimSpace(m.Frequency) == "" {
		return &ValidationError{Field: "frequency"}
	}
	return nil
}
