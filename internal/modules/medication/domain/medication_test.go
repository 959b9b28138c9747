package domain

import (
	"errors"
	"reflect"
	"testing"

	prescription "prescription-api-app/internal/modules/prescription/domain"
)

func TestNewManualMedication(t *testing.T) {
	tests := []struct {
		name      string
		input     ManualMedicationInput
		wantField string
	}{
		{
			name: "正常系: 全項目入力",
			input: ManualMedicationInput{
				Name:      "Lisinopril",
				Dosage:    "10mg",
				Frequency: "once daily",
				Timing:    []string{"morning", "withMeals"},
				WithFood:  true,
			},
		},
		{
			name:      "異常系: 名前が空",
			input:     ManualMedicationInput{Name: "", Dosage: "10mg", Frequency: "daily"},
			wantField: "name",
		},
		{
			name:      "異常系: 用量が空白のみ",
			input:     ManualMedicationInput{Name: "Aspirin", Dosage: "   ", Frequency: "daily"},
			wantField: "dosage",
		},
		{
			name:      "異常系: 頻度が空",
			input:     ManualMedicationInput{Name: "Aspirin", Dosage: "81mg"},
			wantField: "frequency",
		},
		{
			name:      "異常系: 複数欠落時は名前を優先",
			input:     ManualMedicationInput{},
			wantField: "name",
		},
		{
			name:      "異常系: 未知のタイミング",
			input:     ManualMedicationInput{Name: "Aspirin", Dosage: "81mg", Frequency: "daily", Timing: []string{"noon"}},
			wantField: "timing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManualMedication("id-1", tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("NewManualMedication() error = %v", err)
				}
				if m.ID != "id-1" {
					t.Errorf("ID = %s, want id-1", m.ID)
				}
				return
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.wantField {
				t.Errorf("Field = %s, want %s", validationErr.Field, tt.wantField)
			}
		})
	}
}

func TestNewManualMedication_DerivedText(t *testing.T) {
	withFood, err := NewManualMedication("a", ManualMedicationInput{
		Name: "Metformin", Dosage: "500mg", Frequency: "twice daily",
		Timing: []string{"morning", "morning", "night"}, WithFood: true,
	})
	if err != nil {
		t.Fatalf("NewManualMedication() error = %v", err)
	}

	if withFood.Explanation != DefaultExplanation {
		t.Errorf("Explanation = %s", withFood.Explanation)
	}
	if withFood.WhyTimingMatters != DefaultWhyTimingMatters {
		t.Errorf("WhyTimingMatters = %s", withFood.WhyTimingMatters)
	}
	if !reflect.DeepEqual(withFood.Warnings, []string{WithFoodWarning}) {
		t.Errorf("Warnings = %v", withFood.Warnings)
	}
	if !reflect.DeepEqual(withFood.Timing, []ManualTiming{ManualTimingMorning, ManualTimingNight}) {
		t.Errorf("Timing = %v", withFood.Timing)
	}

	noFood, err := NewManualMedication("b", ManualMedicationInput{Name: "Vitamin D", Dosage: "1000IU", Frequency: "daily"})
	if err != nil {
		t.Fatalf("NewManualMedication() error = %v", err)
	}
	if len(noFood.Warnings) != 0 || noFood.Warnings == nil {
		t.Errorf("Warnings = %v, want empty", noFood.Warnings)
	}
}

func TestMedicationRecord_View(t *testing.T) {
	manual, _ := NewManualMedication("m-1", ManualMedicationInput{
		Name: "Aspirin", Dosage: "81mg", Frequency: "daily", Timing: []string{"morning"}, WithFood: true,
	})
	manualView := MedicationRecord{ID: "m-1", Seq: 1, Source: SourceManual, Manual: manual}.View()

	if manualView.Name != "Aspirin" || manualView.Dosage != "81mg" {
		t.Errorf("manual view = %+v", manualView)
	}
	if !manualView.HasFoodRelation() || !manualView.HasFood("with") {
		t.Error("Expected manual with_food to map to the with relation")
	}
	if !manualView.HasTiming("morning") {
		t.Error("Expected morning timing")
	}

	extracted := &prescription.ExtractedMedication{
		NameEnglish: "Metformin",
		Description: "d",
		Importance:  "i",
		Timing:      []prescription.Timing{prescription.TimingNight},
		WithFood:    []prescription.FoodRelation{},
	}
	extractedView := MedicationRecord{ID: "e-1", Seq: 2, Source: SourceExtracted, Extracted: extracted}.View()

	if extractedView.Name != "Metformin" || extractedView.Dosage != "" {
		t.Errorf("extracted view = %+v", extractedView)
	}
	if extractedView.HasFoodRelation() {
		t.Error("Expected no food relation")
	}
	if extractedView.Seq != 2 || extractedView.Source != SourceExtracted {
		t.Errorf("extracted view = %+v", extractedView)
	}
}

func TestParseManualTiming(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   ManualTiming
		wantOK bool
	}{
		{name: "正常系: 保存形式", input: "with_meals", want: ManualTimingWithMeals, wantOK: true},
		{name: "正常系: キャメルケース", input: "withMeals", want: ManualTimingWithMeals, wantOK: true},
		{name: "正常系: 空白区切り", input: "with meals", want: ManualTimingWithMeals, wantOK: true},
		{name: "正常系: ハイフン区切り", input: "with-meals", want: ManualTimingWithMeals, wantOK: true},
		{name: "正常系: 大文字と前後の空白", input: "  Morning ", want: ManualTimingMorning, wantOK: true},
		{name: "異常系: 未知の値", input: "noon"},
		{name: "境界値: 空文字", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseManualTiming(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseManualTiming(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNewNoComparisonVerdict(t *testing.T) {
	v := NewNoComparisonVerdict("Ibuprofen")

	if v.HasContraindications {
		t.Error("Expected HasContraindications = false")
	}
	if len(v.Warnings) != 0 {
		t.Errorf("Warnings = %v", v.Warnings)
	}
	if v.Outcome != OutcomeNoComparison {
		t.Errorf("Outcome = %s", v.Outcome)
	}
	if v.Verified() {
		t.Error("no-comparison verdict must not be verified")
	}
}
