package usecase

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"prescription-api-app/internal/modules/medication/domain"
	prescription "prescription-api-app/internal/modules/prescription/domain"
)

// Aggregator 抽出結果と手動登録を1つの並びとして保持する集約
//
// 書き込みは1つずつ直列化し、読み取りはロック中に作ったコピーに対して行う。
// I/Oは行わない。
type Aggregator struct {
	mu      sync.RWMutex
	records []domain.MedicationRecord
	nextSeq int
	newID   func() string
}

// NewAggregator 新しいAggregatorを作成
func NewAggregator() *Aggregator {
	return &Aggregator{
		newID: uuid.NewString,
	}
}

// AddBatch 抽出された薬をまとめて追加（重複排除はしない）
func (a *Aggregator) AddBatch(meds []prescription.ExtractedMedication) []domain.MedicationRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	added := make([]domain.MedicationRecord, 0, len(meds))
	for i := range meds {
		med := meds[i]
		record := domain.MedicationRecord{
			ID:        a.newID(),
			Seq:       a.nextSeq,
			Source:    domain.SourceExtracted,
			Extracted: &med,
		}
		a.nextSeq++
		a.records = append(a.records, record)
		added = append(added, record)
	}
	return added
}

// AddManual 手動登録の薬を追加
func (a *Aggregator) AddManual(m *domain.ManualMedication) (domain.MedicationRecord, error) {
	if err := m.Validate(); err != nil {
		return domain.MedicationRecord{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	record := domain.MedicationRecord{
		ID:     m.ID,
		Seq:    a.nextSeq,
		Source: domain.SourceManual,
		Manual: m,
	}
	a.nextSeq++
	a.records = append(a.records, record)
	return record, nil
}

// ReplaceManual 手動登録の薬を同じID・同じ位置のまま置き換える
func (a *Aggregator) ReplaceManual(id string, m *domain.ManualMedication) (domain.MedicationRecord, error) {
	if err := m.Validate(); err != nil {
		return domain.MedicationRecord{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, r := range a.records {
		if r.Source != domain.SourceManual || r.ID != id {
			continue
		}

		replacement := *m
		replacement.ID = id
		record := domain.MedicationRecord{
			ID:     id,
			Seq:    r.Seq,
			Source: domain.SourceManual,
			Manual: &replacement,
		}

		// 既に渡したスナップショットを書き換えないようコピーしてから差し替える
		next := make([]domain.MedicationRecord, len(a.records))
		copy(next, a.records)
		next[i] = record
		a.records = next
		return record, nil
	}

	return domain.MedicationRecord{}, domain.ErrMedicationNotFound
}

// Restore 保存済みのレコードで中身を置き換える
func (a *Aggregator) Restore(records []domain.MedicationRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = append([]domain.MedicationRecord(nil), records...)
	a.nextSeq = 0
	for _, r := range records {
		if r.Seq >= a.nextSeq {
			a.nextSeq = r.Seq + 1
		}
	}
}

// Len 登録件数を返す
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

// Snapshot 登録順のビュー一覧を返す
func (a *Aggregator) Snapshot() []domain.MedicationView {
	records := a.snapshot()
	views := make([]domain.MedicationView, len(records))
	for i, r := range records {
		views[i] = r.View()
	}
	return views
}

// Query 条件で絞り込み、指定順に並べたビュー一覧を返す
func (a *Aggregator) Query(filter Filter, order SortOrder) []domain.MedicationView {
	records := a.snapshot()

	views := make([]domain.MedicationView, 0, len(records))
	for _, r := range records {
		v := r.View()
		if filter.Match(v) {
			views = append(views, v)
		}
	}

	sortViews(views, order)
	return views
}

// ActiveNames 登録されている薬名（重複なし・登録順）
func (a *Aggregator) ActiveNames() []string {
	records := a.snapshot()

	seen := make(map[string]bool)
	names := make([]string, 0, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r.Name())
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// snapshot 現在のレコード列を取得（要素は不変として扱う）
func (a *Aggregator) snapshot() []domain.MedicationRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.records[:len(a.records):len(a.records)]
}
