package domain

import "fmt"

// FallbackPayload 画像が読み取れない場合にモデルへ返させる値
const FallbackPayload = `{"detected_language":"unknown","detected_language_name":"Unknown","medications":[]}`

// ExtractionInstruction 処方箋読み取り用の指示文
// フィールド名と列挙値は ValidateExtraction の検査内容と一致させること
var ExtractionInstruction = fmt.Sprintf(`Analyze this prescription image. It may be written in ANY language.

Return ONLY valid JSON with exactly this structure (no markdown, no explanation):
{
  "%s": "ISO 639-1 language code of the prescription (en/es/hi/ar/zh/fr/de/pt/ru/ja ...)",
  "%s": "English name of that language",
  "%s": [
    {
      "%s": "medication name in English",
      "%s": "description of the medication in 30 to 40 words",
      "%s": "why it is important to take this medication",
      "%s": ["%s", "%s", "%s", "%s"],
      "%s": ["%s", "%s", "%s"]
    }
  ]
}

Rules:
- "%s" may only contain values from: %s, %s, %s, %s. Use an empty array if the prescription does not say.
- "%s" may only contain values from: "%s", "%s", "%s". Use an empty array if the prescription does not say.
- Every medication must have a non-empty "%s", "%s" and "%s".

If the image is unclear or is not a prescription, return exactly:
%s`,
	FieldDetectedLanguage,
	FieldDetectedLanguageName,
	FieldMedications,
	FieldNameEnglish,
	FieldDescription,
	FieldImportance,
	FieldTiming, TimingMorning, TimingAfternoon, TimingEvening, TimingNight,
	FieldWithFood, FoodBefore.Label(), FoodAfter.Label(), FoodWith.Label(),
	FieldTiming, TimingMorning, TimingAfternoon, TimingEvening, TimingNight,
	FieldWithFood, FoodBefore.Label(), FoodAfter.Label(), FoodWith.Label(),
	FieldNameEnglish, FieldDescription, FieldImportance,
	FallbackPayload,
)

// ExtractionRequest 1回分の抽出リクエスト
type ExtractionRequest struct {
	Image       *EncodedImage
	Instruction string
}

// NewExtractionRequest 固定の指示文で抽出リクエストを作成
func NewExtractionRequest(image *EncodedImage) ExtractionRequest {
	return ExtractionRequest{
		Image:       image,
		Instruction: ExtractionInstruction,
	}
}
