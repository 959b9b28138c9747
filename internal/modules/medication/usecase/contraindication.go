package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"prescription-api-app/internal/modules/medication/domain"
)

// Evaluator 併用禁忌の判定ポリシー
// 相互作用の情報源を参照する実装に差し替えられる
type Evaluator interface {
	Evaluate(ctx context.Context, subject string, others []string) (*domain.ContraindicationVerdict, error)
}

// ConservativeEvaluator 情報源を持たない場合の判定
//
// 禁忌なしとするが確認済みとは扱わず、必ず医師・薬剤師への相談を促す。
type ConservativeEvaluator struct{}

// Evaluate 判定を返す（情報源は参照しない）
func (ConservativeEvaluator) Evaluate(_ context.Context, subject string, others []string) (*domain.ContraindicationVerdict, error) {
	return &domain.ContraindicationVerdict{
		SubjectName:          subject,
		HasContraindications: false,
		Warnings:             []string{},
		Recommendation: fmt.Sprintf(
			"No drug interaction source was consulted for %s against %s, so interactions have not been ruled out. Please consult your doctor or pharmacist before taking these medications together.",
			subject, strings.Join(others, ", "),
		),
		ComparedWith: append([]string{}, others...),
		Outcome:      domain.OutcomeUnverified,
		EvaluatedAt:  time.Now(),
	}, nil
}

// EvaluateContraindications 比較対象がある場合だけポリシーで判定する
func EvaluateContraindications(ctx context.Context, policy Evaluator, subject string, others []string) (*domain.ContraindicationVerdict, error) {
	if len(others) == 0 {
		return domain.NewNoComparisonVerdict(subject), nil
	}

	verdict, err := policy.Evaluate(ctx, subject, others)
	if err != nil {
		return nil, fmt.Errorf("contraindication evaluation failed: %w", err)
	}
	return verdict, nil
}

// ContraindicationUseCase 登録済みの薬との併用禁忌チェック
type ContraindicationUseCase struct {
	sessions  *SessionRegistry
	evaluator Evaluator
	logger    *slog.Logger
}

// NewContraindicationUseCase 新しいContraindicationUseCaseを作成
func NewContraindicationUseCase(sessions *SessionRegistry, evaluator Evaluator, logger *slog.Logger) *ContraindicationUseCase {
	if evaluator == nil {
		evaluator = ConservativeEvaluator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContraindicationUseCase{
		sessions:  sessions,
		evaluator: evaluator,
		logger:    logger,
	}
}

// Check 指定の薬を、セッションに登録されている他の薬と照合する
func (uc *ContraindicationUseCase) Check(ctx context.Context, sessionID, subject string) (*domain.ContraindicationVerdict, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, &domain.ValidationError{Field: "name"}
	}

	session := uc.sessions.Get(ctx, sessionID)

	others := make([]string, 0)
	for _, name := range session.Aggregator().ActiveNames() {
		if strings.EqualFold(name, subject) {
			continue
		}
		others = append(others, name)
	}

	verdict, err := EvaluateContraindications(ctx, uc.evaluator, subject, others)
	if err != nil {
		return nil, err
	}

	session.RecordVerdict(verdict)
	uc.logger.Info("contraindication check completed",
		"session_id", sessionID,
		"medication", subject,
		"compared_with", len(others),
		"outcome", verdict.Outcome,
	)
	return verdict, nil
}
