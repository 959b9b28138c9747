package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"prescription-api-app/internal/modules/medication/domain"
	prescription "prescription-api-app/internal/modules/prescription/domain"
)

// MockEvaluator モック判定ポリシー
type MockEvaluator struct {
	EvaluateFunc func(ctx context.Context, subject string, others []string) (*domain.ContraindicationVerdict, error)
	calls        int
}

func (m *MockEvaluator) Evaluate(ctx context.Context, subject string, others []string) (*domain.ContraindicationVerdict, error) {
	m.calls++
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, subject, others)
	}
	return &domain.ContraindicationVerdict{SubjectName: subject, Outcome: domain.OutcomeVerified}, nil
}

// 比較対象がなければポリシーを呼ばない
func TestEvaluateContraindications_NoComparison(t *testing.T) {
	policy := &MockEvaluator{}

	verdict, err := EvaluateContraindications(context.Background(), policy, "Ibuprofen", nil)
	if err != nil {
		t.Fatalf("EvaluateContraindications() error = %v", err)
	}

	if policy.calls != 0 {
		t.Errorf("Expected policy not to be invoked, got %d calls", policy.calls)
	}
	if verdict.HasContraindications {
		t.Error("Expected HasContraindications false")
	}
	if len(verdict.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", verdict.Warnings)
	}
	if verdict.Outcome != domain.OutcomeNoComparison {
		t.Errorf("Expected outcome no_comparison, got %s", verdict.Outcome)
	}
	if !strings.Contains(verdict.Recommendation, "No other medications are on record") {
		t.Errorf("unexpected recommendation: %q", verdict.Recommendation)
	}
	if verdict.Verified() {
		t.Error("比較していない結果を確認済みとしてはいけない")
	}
}

func TestEvaluateContraindications_DelegatesToPolicy(t *testing.T) {
	t.Run("正常系: ポリシーの結果を返す", func(t *testing.T) {
		policy := &MockEvaluator{}
		verdict, err := EvaluateContraindications(context.Background(), policy, "Ibuprofen", []string{"Aspirin"})
		if err != nil {
			t.Fatalf("EvaluateContraindications() error = %v", err)
		}
		if policy.calls != 1 {
			t.Errorf("Expected 1 call, got %d", policy.calls)
		}
		if !verdict.Verified() {
			t.Error("Expected verified outcome from policy")
		}
	})

	t.Run("異常系: ポリシーのエラーを包んで返す", func(t *testing.T) {
		sentinel := errors.New("source unavailable")
		policy := &MockEvaluator{
			EvaluateFunc: func(ctx context.Context, subject string, others []string) (*domain.ContraindicationVerdict, error) {
				return nil, sentinel
			},
		}
		_, err := EvaluateContraindications(context.Background(), policy, "Ibuprofen", []string{"Aspirin"})
		if !errors.Is(err, sentinel) {
			t.Errorf("Expected wrapped sentinel, got %v", err)
		}
	})
}

func TestConservativeEvaluator(t *testing.T) {
	verdict, err := ConservativeEvaluator{}.Evaluate(context.Background(), "Ibuprofen", []string{"Aspirin", "Warfarin"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if verdict.HasContraindications {
		t.Error("Expected HasContraindications false")
	}
	if verdict.Verified() {
		t.Error("情報源を参照していないため確認済みではない")
	}
	if verdict.Outcome != domain.OutcomeUnverified {
		t.Errorf("Expected outcome unverified, got %s", verdict.Outcome)
	}

	rec := strings.ToLower(verdict.Recommendation)
	if !strings.Contains(rec, "doctor or pharmacist") {
		t.Errorf("専門家への相談を促すはず: %q", verdict.Recommendation)
	}
	if !strings.Contains(rec, "no drug interaction source was consulted") {
		t.Errorf("情報源を参照していないことを明示するはず: %q", verdict.Recommendation)
	}
	for _, claim := range []string{"no known interactions", "no interactions", "safe to take"} {
		if strings.Contains(rec, claim) {
			t.Errorf("確認していない否定を主張してはいけない: %q", verdict.Recommendation)
		}
	}
	if !reflect.DeepEqual(verdict.ComparedWith, []string{"Aspirin", "Warfarin"}) {
		t.Errorf("unexpected compared_with: %v", verdict.ComparedWith)
	}
}

func TestContraindicationUseCase_Check(t *testing.T) {
	t.Run("正常系: 他の薬がなければ比較しない", func(t *testing.T) {
		policy := &MockEvaluator{}
		sessions := NewSessionRegistry(nil, nil)
		uc := NewContraindicationUseCase(sessions, policy, nil)

		verdict, err := uc.Check(context.Background(), "alice", "Ibuprofen")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if policy.calls != 0 {
			t.Errorf("Expected policy not to be invoked, got %d calls", policy.calls)
		}
		if verdict.Outcome != domain.OutcomeNoComparison {
			t.Errorf("Expected no_comparison, got %s", verdict.Outcome)
		}
	})

	t.Run("正常系: 自分自身は比較対象から除く", func(t *testing.T) {
		var gotOthers []string
		policy := &MockEvaluator{
			EvaluateFunc: func(ctx context.Context, subject string, others []string) (*domain.ContraindicationVerdict, error) {
				gotOthers = others
				return ConservativeEvaluator{}.Evaluate(ctx, subject, others)
			},
		}
		sessions := NewSessionRegistry(nil, nil)
		session := sessions.Get(context.Background(), "alice")
		session.Aggregator().AddBatch([]prescription.ExtractedMedication{
			extracted("Ibuprofen", nil, nil),
			extracted("Metformin", nil, nil),
		})
		if _, err := session.Aggregator().AddManual(manual(t, "Aspirin", "81mg", false)); err != nil {
			t.Fatalf("AddManual() error = %v", err)
		}

		uc := NewContraindicationUseCase(sessions, policy, nil)
		verdict, err := uc.Check(context.Background(), "alice", "ibuprofen")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}

		if !reflect.DeepEqual(gotOthers, []string{"Metformin", "Aspirin"}) {
			t.Errorf("unexpected others: %v", gotOthers)
		}
		latest, ok := session.LatestVerdict("Ibuprofen")
		if !ok || latest != verdict {
			t.Error("Expected verdict to be recorded on the session")
		}
	})

	t.Run("正常系: 既定は保守的な判定", func(t *testing.T) {
		sessions := NewSessionRegistry(nil, nil)
		sessions.Get(context.Background(), "alice").Aggregator().AddBatch([]prescription.ExtractedMedication{
			extracted("Metformin", nil, nil),
		})
		uc := NewContraindicationUseCase(sessions, nil, nil)

		verdict, err := uc.Check(context.Background(), "alice", "Ibuprofen")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if verdict.Outcome != domain.OutcomeUnverified {
			t.Errorf("Expected unverified, got %s", verdict.Outcome)
		}
	})

	t.Run("異常系: 名前が空", func(t *testing.T) {
		uc := NewContraindicationUseCase(NewSessionRegistry(nil, nil), nil, nil)
		_, err := uc.Check(context.Background(), "alice", "   ")
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "name" {
			t.Errorf("Expected ValidationError{name}, got %v", err)
		}
	})
}
