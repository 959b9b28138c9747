package domain

import "strings"

// 言語判定に失敗した場合の値
const (
	UnknownLanguageCode = "unknown"
	UnknownLanguageName = "Unknown"
)

// 抽出結果のフィールド名（モデルへの指示と検証で共有）
const (
	FieldDetectedLanguage     = "detected_language"
	FieldDetectedLanguageName = "detected_language_name"
	FieldMedications          = "medications"
	FieldNameEnglish          = "name_english"
	FieldDescription          = "description"
	FieldImportance           = "importance"
	FieldTiming               = "timing"
	FieldWithFood             = "with_food"
)

// Timing 服用タイミング
type Timing string

const (
	TimingMorning   Timing = "morning"
	TimingAfternoon Timing = "afternoon"
	TimingEvening   Timing = "evening"
	TimingNight     Timing = "night"
)

// Timings 指示で許可しているタイミングの一覧
var Timings = []Timing{TimingMorning, TimingAfternoon, TimingEvening, TimingNight}

// ParseTiming 文字列をTimingに変換
func ParseTiming(s string) (Timing, bool) {
	t := Timing(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TimingMorning, TimingAfternoon, TimingEvening, TimingNight:
		return t, true
	}
	return "", false
}

// FoodRelation 食事との関係
type FoodRelation string

const (
	FoodBefore FoodRelation = "before"
	FoodAfter  FoodRelation = "after"
	FoodWith   FoodRelation = "with"
)

// FoodRelations 指示で許可している食事との関係の一覧
var FoodRelations = []FoodRelation{FoodBefore, FoodAfter, FoodWith}

// Label モデルへの指示で使う表記（"before food" 等）
func (f FoodRelation) Label() string {
	return string(f) + " food"
}

// ParseFoodRelation "before food" / "before" のどちらの表記も受け付ける
func ParseFoodRelation(s string) (FoodRelation, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSpace(strings.TrimSuffix(v, "food"))
	f := FoodRelation(v)
	switch f {
	case FoodBefore, FoodAfter, FoodWith:
		return f, true
	}
	return "", false
}

// ExtractedMedication 処方箋から抽出された薬
type ExtractedMedication struct {
	NameEnglish string         `json:"name_english"`
	Description string         `json:"description"`
	Importance  string         `json:"importance"`
	Timing      []Timing       `json:"timing"`
	WithFood    []FoodRelation `json:"with_food"`
}

// ExtractionResult 検証済みの抽出結果
type ExtractionResult struct {
	DetectedLanguageCode string                `json:"detected_language"`
	DetectedLanguageName string                `json:"detected_language_name"`
	Medications          []ExtractedMedication `json:"medications"`
}

// Unreadable モデルが画像を読み取れなかったことを示すかどうか
func (r *ExtractionResult) Unreadable() bool {
	return r.DetectedLanguageCode == UnknownLanguageCode && len(r.Medications) == 0
}

// MedicationNames 抽出された薬名の一覧
func (r *ExtractionResult) MedicationNames() []string {
	names := make([]string, len(r.Medications))
	for i, m := range r.Medications {
		names[i] = m.NameEnglish
	}
	return names
}
