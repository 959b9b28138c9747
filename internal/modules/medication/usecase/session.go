package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"prescription-api-app/internal/modules/medication/domain"
	prescription "prescription-api-app/internal/modules/prescription/domain"
)

// Session 1利用者分の集約と抽出リクエストの世代を保持する
type Session struct {
	id         string
	aggregator *Aggregator

	mu       sync.Mutex
	latest   uint64
	cancel   context.CancelFunc
	verdicts map[string]*domain.ContraindicationVerdict
}

// NewSession 新しいSessionを作成
func NewSession(id string) *Session {
	return &Session{
		id:         id,
		aggregator: NewAggregator(),
		verdicts:   make(map[string]*domain.ContraindicationVerdict),
	}
}

// ID セッションIDを返す
func (s *Session) ID() string {
	return s.id
}

// Aggregator セッションの集約を返す
func (s *Session) Aggregator() *Aggregator {
	return s.aggregator
}

// BeginExtraction 新しい抽出リクエストのトークンを発行する
//
// 実行中の古いリクエストのコンテキストはキャンセルされる。
// 返されたcancelは呼び出し側が必ず呼ぶこと。
func (s *Session) BeginExtraction(ctx context.Context) (context.Context, uint64, context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	s.latest++
	extractCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return extractCtx, s.latest, cancel
}

// IsLatest トークンが最新のリクエストのものか
func (s *Session) IsLatest(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token == s.latest
}

// CommitExtraction 最新のリクエストの結果だけを集約に追加する
func (s *Session) CommitExtraction(token uint64, meds []prescription.ExtractedMedication) ([]domain.MedicationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.latest {
		return nil, domain.ErrExtractionSuperseded
	}
	return s.aggregator.AddBatch(meds), nil
}

// RecordVerdict 薬ごとの最新の判定を保存（同じ薬の以前の判定は置き換える）
func (s *Session) RecordVerdict(v *domain.ContraindicationVerdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdicts[verdictKey(v.SubjectName)] = v
}

// LatestVerdict 薬の最新の判定を取得
func (s *Session) LatestVerdict(subject string) (*domain.ContraindicationVerdict, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.verdicts[verdictKey(subject)]
	return v, ok
}

func verdictKey(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// SessionRegistry セッションの一覧
//
// repoが設定されている場合は追加・置き換えを書き込み、初回アクセス時に読み戻す。
// 保存先の失敗はログに残すだけで、メモリ上の集約には影響させない。
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	repo     domain.MedicationRepository
	logger   *slog.Logger
}

// NewSessionRegistry 新しいSessionRegistryを作成（repoはnil可）
func NewSessionRegistry(repo domain.MedicationRepository, logger *slog.Logger) *SessionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		repo:     repo,
		logger:   logger,
	}
}

// Get セッションを取得（無ければ作成する）
func (r *SessionRegistry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	s := NewSession(id)
	if r.repo != nil {
		records, err := r.repo.FindBySession(ctx, id)
		if err != nil {
			r.logger.Warn("failed to restore session", "session_id", id, "error", err)
		} else if len(records) > 0 {
			s.aggregator.Restore(records)
			r.logger.Info("session restored", "session_id", id, "records", len(records))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		return existing
	}
	r.sessions[id] = s
	return s
}

// Len セッション数を返す
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Persist 追加したレコードを保存先に書き込む
func (r *SessionRegistry) Persist(ctx context.Context, sessionID string, records []domain.MedicationRecord) {
	if r.repo == nil || len(records) == 0 {
		return
	}
	if err := r.repo.Save(ctx, sessionID, records); err != nil {
		r.logger.Warn("failed to persist medications", "session_id", sessionID, "records", len(records), "error", err)
	}
}

// PersistReplace 置き換えたレコードを保存先に書き込む
func (r *SessionRegistry) PersistReplace(ctx context.Context, sessionID string, record domain.MedicationRecord) {
	if r.repo == nil {
		return
	}
	if err := r.repo.Replace(ctx, sessionID, record); err != nil {
		r.logger.Warn("failed to persist replaced medication", "session_id", sessionID, "id", record.ID, "error", err)
	}
}
