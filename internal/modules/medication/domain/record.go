package domain

import (
	prescription "prescription-api-app/internal/modules/prescription/domain"
)

// Source 薬の登録元
type Source string

const (
	SourceExtracted Source = "extracted"
	SourceManual    Source = "manual"
)

// MedicationRecord 集約内の1件（抽出結果か手動登録のどちらか一方を持つ）
type MedicationRecord struct {
	ID        string
	Seq       int
	Source    Source
	Extracted *prescription.ExtractedMedication
	Manual    *ManualMedication
}

// Name 表示名を返す
func (r MedicationRecord) Name() string {
	switch r.Source {
	case SourceManual:
		return r.Manual.Name
	case SourceExtracted:
		return r.Extracted.NameEnglish
	}
	return ""
}

// View 検索・並び替え用の共通形式に変換
func (r MedicationRecord) View() MedicationView {
	v := MedicationView{
		ID:     r.ID,
		Seq:    r.Seq,
		Source: r.Source,
		Name:   r.Name(),
	}

	switch r.Source {
	case SourceManual:
		m := r.Manual
		v.Dosage = m.Dosage
		v.Frequency = m.Frequency
		v.Description = m.Explanation
		v.Importance = m.WhyTimingMatters
		v.Timing = make([]string, len(m.Timing))
		for i, t := range m.Timing {
			v.Timing[i] = string(t)
		}
		v.FoodRelations = []string{}
		if m.WithFood {
			v.FoodRelations = append(v.FoodRelations, string(prescription.FoodWith))
		}
		v.Warnings = append([]string{}, m.Warnings...)
	case SourceExtracted:
		e := r.Extracted
		v.Description = e.Description
		v.Importance = e.Importance
		v.Timing = make([]string, len(e.Timing))
		for i, t := range e.Timing {
			v.Timing[i] = string(t)
		}
		v.FoodRelations = make([]string, len(e.WithFood))
		for i, f := range e.WithFood {
			v.FoodRelations[i] = string(f)
		}
		v.Warnings = []string{}
	}

	return v
}

// MedicationView 抽出・手動登録を区別しない読み取り専用の表現
type MedicationView struct {
	ID            string   `json:"id"`
	Seq           int      `json:"seq"`
	Source        Source   `json:"source"`
	Name          string   `json:"name"`
	Dosage        string   `json:"dosage"`
	Frequency     string   `json:"frequency"`
	Description   string   `json:"description"`
	Importance    string   `json:"importance"`
	Timing        []string `json:"timing"`
	FoodRelations []string `json:"food_relations"`
	Warnings      []string `json:"warnings"`
}

// HasFoodRelation 食事との関係が指定されているか
func (v MedicationView) HasFoodRelation() bool {
	return len(v.FoodRelations) > 0
}

// HasTiming 指定のタイミングを含むか
func (v MedicationView) HasTiming(timing string) bool {
	for _, t := range v.Timing {
		if t == timing {
			return true
		}
	}
	return false
}

// HasFood 指定の食事との関係を含むか
func (v MedicationView) HasFood(relation string) bool {
	for _, f := range v.FoodRelations {
		if f == relation {
			return true
		}
	}
	return false
}
