package usecase

import (
	"fmt"
	"strings"

	"prescription-api-app/internal/modules/prescription/domain"
)

// 旧プロンプトで使われていた綴り（正式なキーが無い場合のみ参照）
var legacyFieldAliases = map[string]string{
	domain.FieldDescription: "dicription",
	domain.FieldImportance:  "megication_importance",
}

// ValidateExtraction パース済みの候補値を検証し、抽出結果に変換する
//
// 最初に見つかった違反を SchemaViolationError として返す。
// timing/with_food の列挙外の値はその要素だけを捨て、警告として返す。
func ValidateExtraction(candidate map[string]any) (*domain.ExtractionResult, []string, error) {
	if candidate == nil {
		return nil, nil, &domain.SchemaViolationError{Field: "$", Reason: "must be an object"}
	}

	code, err := requireString(candidate, domain.FieldDetectedLanguage, domain.FieldDetectedLanguage)
	if err != nil {
		return nil, nil, err
	}
	name, err := requireString(candidate, domain.FieldDetectedLanguageName, domain.FieldDetectedLanguageName)
	if err != nil {
		return nil, nil, err
	}

	rawMeds, ok := candidate[domain.FieldMedications]
	if !ok || rawMeds == nil {
		return nil, nil, &domain.SchemaViolationError{Field: domain.FieldMedications, Reason: "is required"}
	}
	items, ok := rawMeds.([]any)
	if !ok {
		return nil, nil, &domain.SchemaViolationError{Field: domain.FieldMedications, Reason: "must be an array"}
	}

	var warnings []string
	medications := make([]domain.ExtractedMedication, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s[%d]", domain.FieldMedications, i)
		med, medWarnings, err := validateMedication(item, path)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, medWarnings...)
		medications = append(medications, *med)
	}

	if strings.EqualFold(code, domain.UnknownLanguageCode) {
		code = domain.UnknownLanguageCode
	}

	// 読み取り失敗の合図は「unknown」と空配列の組でのみ表す
	unknown := code == domain.UnknownLanguageCode
	if unknown && len(medications) > 0 {
		return nil, nil, &domain.SchemaViolationError{
			Field:  domain.FieldMedications,
			Reason: "must be empty when detected_language is unknown",
		}
	}
	if !unknown && len(medications) == 0 {
		return nil, nil, &domain.SchemaViolationError{
			Field:  domain.FieldDetectedLanguage,
			Reason: `must be "unknown" when no medications were extracted`,
		}
	}

	return &domain.ExtractionResult{
		DetectedLanguageCode: code,
		DetectedLanguageName: name,
		Medications:          medications,
	}, warnings, nil
}

// validateMedication 薬1件分を検証
func validateMedication(item any, path string) (*domain.ExtractedMedication, []string, error) {
	fields, ok := item.(map[string]any)
	if !ok {
		return nil, nil, &domain.SchemaViolationError{Field: path, Reason: "must be an object"}
	}

	nameEnglish, err := requireNonEmpty(fields, domain.FieldNameEnglish, path)
	if err != nil {
		return nil, nil, err
	}
	description, err := requireNonEmpty(fields, domain.FieldDescription, path)
	if err != nil {
		return nil, nil, err
	}
	importance, err := requireNonEmpty(fields, domain.FieldImportance, path)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string

	timingValues, err := optionalStrings(fields, domain.FieldTiming, path, &warnings)
	if err != nil {
		return nil, nil, err
	}
	timing := make([]domain.Timing, 0, len(timingValues))
	seenTiming := make(map[domain.Timing]bool)
	for _, v := range timingValues {
		t, ok := domain.ParseTiming(v)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s.%s: dropped unsupported value %q", path, domain.FieldTiming, v))
			continue
		}
		if !seenTiming[t] {
			seenTiming[t] = true
			timing = append(timing, t)
		}
	}

	foodValues, err := optionalStrings(fields, domain.FieldWithFood, path, &warnings)
	if err != nil {
		return nil, nil, err
	}
	withFood := make([]domain.FoodRelation, 0, len(foodValues))
	seenFood := make(map[domain.FoodRelation]bool)
	for _, v := range foodValues {
		f, ok := domain.ParseFoodRelation(v)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s.%s: dropped unsupported value %q", path, domain.FieldWithFood, v))
			continue
		}
		if !seenFood[f] {
			seenFood[f] = true
			withFood = append(withFood, f)
		}
	}

	return &domain.ExtractedMedication{
		NameEnglish: nameEnglish,
		Description: description,
		Importance:  importance,
		Timing:      timing,
		WithFood:    withFood,
	}, warnings, nil
}

// requireString 文字列フィールドの存在と型を確認
func requireString(fields map[string]any, key, path string) (string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", &domain.SchemaViolationError{Field: path, Reason: "is required"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &domain.SchemaViolationError{Field: path, Reason: "must be a string"}
	}
	return s, nil
}

// requireNonEmpty 空でない文字列フィールドを取得（旧綴りも参照する）
func requireNonEmpty(fields map[string]any, key, parent string) (string, error) {
	path := parent + "." + key
	if _, ok := fields[key]; !ok {
		if alias, hasAlias := legacyFieldAliases[key]; hasAlias {
			if _, aliased := fields[alias]; aliased {
				key = alias
			}
		}
	}

	s, err := requireString(fields, key, path)
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &domain.SchemaViolationError{Field: path, Reason: "must not be empty"}
	}
	return s, nil
}

// optionalStrings 省略可能な配列フィールドを読み取る（文字列以外の要素は警告付きで捨てる）
func optionalStrings(fields map[string]any, key, parent string, warnings *[]string) ([]string, error) {
	path := parent + "." + key
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, &domain.SchemaViolationError{Field: path, Reason: "must be an array"}
	}

	values := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			*warnings = append(*warnings, fmt.Sprintf("%s: dropped non-string value %v", path, item))
			continue
		}
		values = append(values, s)
	}
	return values, nil
}
