package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"prescription-api-app/internal/modules/medication/domain"
	prescription "prescription-api-app/internal/modules/prescription/domain"
)

// MockMedicationRepository モック薬リポジトリ
type MockMedicationRepository struct {
	mu                sync.Mutex
	SaveFunc          func(ctx context.Context, sessionID string, records []domain.MedicationRecord) error
	ReplaceFunc       func(ctx context.Context, sessionID string, record domain.MedicationRecord) error
	FindBySessionFunc func(ctx context.Context, sessionID string) ([]domain.MedicationRecord, error)
	saved             []domain.MedicationRecord
	replaced          []domain.MedicationRecord
	findCalls         int
}

func (m *MockMedicationRepository) Save(ctx context.Context, sessionID string, records []domain.MedicationRecord) error {
	m.mu.Lock()
	m.saved = append(m.saved, records...)
	m.mu.Unlock()
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, sessionID, records)
	}
	return nil
}

func (m *MockMedicationRepository) Replace(ctx context.Context, sessionID string, record domain.MedicationRecord) error {
	m.mu.Lock()
	m.replaced = append(m.replaced, record)
	m.mu.Unlock()
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, sessionID, record)
	}
	return nil
}

func (m *MockMedicationRepository) FindBySession(ctx context.Context, sessionID string) ([]domain.MedicationRecord, error) {
	m.mu.Lock()
	m.findCalls++
	m.mu.Unlock()
	if m.FindBySessionFunc != nil {
		return m.FindBySessionFunc(ctx, sessionID)
	}
	return nil, nil
}

func TestSession_CommitExtraction(t *testing.T) {
	s := NewSession("s1")
	meds := []prescription.ExtractedMedication{extracted("Metformin", nil, nil)}

	_, token, cancel := s.BeginExtraction(context.Background())
	defer cancel()

	records, err := s.CommitExtraction(token, meds)
	if err != nil {
		t.Fatalf("CommitExtraction() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(records))
	}
	if s.Aggregator().Len() != 1 {
		t.Errorf("Expected aggregator len 1, got %d", s.Aggregator().Len())
	}
}

// 後から開始したリクエストがあれば、先に開始した方の結果は破棄される
func TestSession_CommitExtraction_Superseded(t *testing.T) {
	s := NewSession("s1")

	oldCtx, oldToken, oldCancel := s.BeginExtraction(context.Background())
	defer oldCancel()
	_, newToken, newCancel := s.BeginExtraction(context.Background())
	defer newCancel()

	if newToken <= oldToken {
		t.Fatalf("トークンは単調増加のはず: old=%d new=%d", oldToken, newToken)
	}
	if !errors.Is(oldCtx.Err(), context.Canceled) {
		t.Errorf("古いリクエストはキャンセルされるはず: %v", oldCtx.Err())
	}
	if s.IsLatest(oldToken) {
		t.Error("Expected old token not to be latest")
	}
	if !s.IsLatest(newToken) {
		t.Error("Expected new token to be latest")
	}

	// 新しい方が先に完了し、古い方が遅れて届く
	if _, err := s.CommitExtraction(newToken, []prescription.ExtractedMedication{extracted("Aspirin", nil, nil)}); err != nil {
		t.Fatalf("CommitExtraction(new) error = %v", err)
	}
	_, err := s.CommitExtraction(oldToken, []prescription.ExtractedMedication{extracted("Stale", nil, nil)})
	if !errors.Is(err, domain.ErrExtractionSuperseded) {
		t.Fatalf("Expected ErrExtractionSuperseded, got %v", err)
	}

	names := s.Aggregator().ActiveNames()
	if len(names) != 1 || names[0] != "Aspirin" {
		t.Errorf("古い結果で上書きされてはいけない: %v", names)
	}
}

func TestSession_Verdicts(t *testing.T) {
	s := NewSession("s1")

	if _, ok := s.LatestVerdict("Ibuprofen"); ok {
		t.Fatal("Expected no verdict initially")
	}

	first := domain.NewNoComparisonVerdict("Ibuprofen")
	s.RecordVerdict(first)
	second := &domain.ContraindicationVerdict{SubjectName: "ibuprofen", Outcome: domain.OutcomeUnverified}
	s.RecordVerdict(second)

	got, ok := s.LatestVerdict(" IBUPROFEN ")
	if !ok {
		t.Fatal("Expected verdict to exist")
	}
	if got != second {
		t.Error("同じ薬の判定は最新のものに置き換わるはず")
	}
}

func TestSessionRegistry_Get(t *testing.T) {
	t.Run("正常系: 同じIDは同じセッション", func(t *testing.T) {
		r := NewSessionRegistry(nil, nil)
		a := r.Get(context.Background(), "alice")
		b := r.Get(context.Background(), "alice")
		c := r.Get(context.Background(), "bob")

		if a != b {
			t.Error("Expected same session for same ID")
		}
		if a == c {
			t.Error("Expected different sessions for different IDs")
		}
		if r.Len() != 2 {
			t.Errorf("Expected 2 sessions, got %d", r.Len())
		}
	})

	t.Run("正常系: 保存先から復元", func(t *testing.T) {
		repo := &MockMedicationRepository{
			FindBySessionFunc: func(ctx context.Context, sessionID string) ([]domain.MedicationRecord, error) {
				return []domain.MedicationRecord{
					{ID: "r1", Seq: 0, Source: domain.SourceExtracted, Extracted: &prescription.ExtractedMedication{NameEnglish: "Metformin"}},
				}, nil
			},
		}
		r := NewSessionRegistry(repo, nil)

		s := r.Get(context.Background(), "alice")
		r.Get(context.Background(), "alice")

		if s.Aggregator().Len() != 1 {
			t.Errorf("Expected 1 restored record, got %d", s.Aggregator().Len())
		}
		if repo.findCalls != 1 {
			t.Errorf("復元は初回のみのはず: %d回", repo.findCalls)
		}
	})

	t.Run("異常系: 復元に失敗しても空のセッションを返す", func(t *testing.T) {
		repo := &MockMedicationRepository{
			FindBySessionFunc: func(ctx context.Context, sessionID string) ([]domain.MedicationRecord, error) {
				return nil, errors.New("connection refused")
			},
		}
		r := NewSessionRegistry(repo, nil)

		s := r.Get(context.Background(), "alice")
		if s == nil {
			t.Fatal("Expected non-nil session")
		}
		if s.Aggregator().Len() != 0 {
			t.Errorf("Expected empty aggregator, got %d", s.Aggregator().Len())
		}
	})
}

func TestSessionRegistry_Persist(t *testing.T) {
	repo := &MockMedicationRepository{
		SaveFunc: func(ctx context.Context, sessionID string, records []domain.MedicationRecord) error {
			return errors.New("disk full")
		},
	}
	r := NewSessionRegistry(repo, nil)

	// 失敗はログのみで呼び出し側には返さない
	r.Persist(context.Background(), "alice", []domain.MedicationRecord{{ID: "r1"}})
	r.Persist(context.Background(), "alice", nil)
	r.PersistReplace(context.Background(), "alice", domain.MedicationRecord{ID: "r2"})

	if len(repo.saved) != 1 {
		t.Errorf("空の追加は書き込まないはず: saved=%d", len(repo.saved))
	}
	if len(repo.replaced) != 1 {
		t.Errorf("Expected 1 replace, got %d", len(repo.replaced))
	}

	// 保存先なし
	NewSessionRegistry(nil, nil).Persist(context.Background(), "alice", []domain.MedicationRecord{{ID: "r1"}})
}
