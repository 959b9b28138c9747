package usecase

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"prescription-api-app/internal/modules/medication/domain"
)

// SortOrder 並び順
type SortOrder string

const (
	SortNameAsc   SortOrder = "name_asc"
	SortNameDesc  SortOrder = "name_desc"
	SortDosageAsc SortOrder = "dosage_asc"
	SortFoodFirst SortOrder = "food_first"
)

// sortAliases 画面側の表記
var sortAliases = map[string]SortOrder{
	"":           SortNameAsc,
	"name-asc":   SortNameAsc,
	"name-desc":  SortNameDesc,
	"dosage":     SortDosageAsc,
	"dosage-asc": SortDosageAsc,
	"food-first": SortFoodFirst,
}

// ParseSortOrder 並び順の文字列を解釈
func ParseSortOrder(s string) (SortOrder, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if order, ok := sortAliases[v]; ok {
		return order, nil
	}

	switch order := SortOrder(v); order {
	case SortNameAsc, SortNameDesc, SortDosageAsc, SortFoodFirst:
		return order, nil
	}
	return "", fmt.Errorf("unsupported sort order: %q", s)
}

// FoodFilter 食事との関係による絞り込み
type FoodFilter string

const (
	FoodFilterAll    FoodFilter = ""
	FoodFilterAny    FoodFilter = "with-food"
	FoodFilterNone   FoodFilter = "without-food"
	FoodFilterBefore FoodFilter = "before"
	FoodFilterAfter  FoodFilter = "after"
	FoodFilterDuring FoodFilter = "with"
)

// filterAll 画面側で「すべて」を表す値
const filterAll = "all"

// ParseFoodFilter 絞り込み条件の文字列を解釈
func ParseFoodFilter(s string) (FoodFilter, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch f := FoodFilter(strings.ReplaceAll(v, "_", "-")); f {
	case FoodFilterAll, FoodFilterAny, FoodFilterNone, FoodFilterBefore, FoodFilterAfter, FoodFilterDuring:
		return f, nil
	case filterAll:
		return FoodFilterAll, nil
	}
	return "", fmt.Errorf("unsupported food filter: %q", s)
}

// Filter 検索条件（指定された条件はすべて満たす必要がある）
type Filter struct {
	Text   string
	Timing string
	Food   FoodFilter
}

// Match ビューが条件を満たすか
func (f Filter) Match(v domain.MedicationView) bool {
	if text := strings.TrimSpace(f.Text); text != "" {
		if !strings.Contains(strings.ToLower(v.Name), strings.ToLower(text)) {
			return false
		}
	}

	if timing := strings.ToLower(strings.TrimSpace(f.Timing)); timing != "" && timing != filterAll {
		// 登録時と同じ表記ゆれを許容する
		if t, ok := domain.ParseManualTiming(timing); ok {
			timing = string(t)
		}
		if !v.HasTiming(timing) {
			return false
		}
	}

	switch f.Food {
	case FoodFilterAny:
		return v.HasFoodRelation()
	case FoodFilterNone:
		return !v.HasFoodRelation()
	case FoodFilterBefore, FoodFilterAfter, FoodFilterDuring:
		return v.HasFood(string(f.Food))
	}
	return true
}

// sortViews 安定ソートで並べ替える（同順位は登録順）
func sortViews(views []domain.MedicationView, order SortOrder) {
	bySeq := func(a, b domain.MedicationView) int {
		return a.Seq - b.Seq
	}
	slices.SortStableFunc(views, bySeq)

	switch order {
	case SortNameAsc, SortNameDesc:
		// Collatorは並行利用できないため呼び出しごとに作る
		collator := collate.New(language.English)
		slices.SortStableFunc(views, func(a, b domain.MedicationView) int {
			if order == SortNameDesc {
				return collator.CompareString(b.Name, a.Name)
			}
			return collator.CompareString(a.Name, b.Name)
		})
	case SortDosageAsc:
		// 用量は自由記述のため数値ではなく文字列順（"100mg" < "20mg"）
		slices.SortStableFunc(views, func(a, b domain.MedicationView) int {
			return strings.Compare(a.Dosage, b.Dosage)
		})
	case SortFoodFirst:
		slices.SortStableFunc(views, func(a, b domain.MedicationView) int {
			return foodRank(a) - foodRank(b)
		})
	}
}

func foodRank(v domain.MedicationView) int {
	if v.HasFoodRelation() {
		return 0
	}
	return 1
}
