package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	meddomain "prescription-api-app/internal/modules/medication/domain"
	medusecase "prescription-api-app/internal/modules/medication/usecase"
	"prescription-api-app/internal/modules/prescription/domain"
)

// cacheKeyPrefix 抽出結果キャッシュのキー接頭辞
const cacheKeyPrefix = "prescription:extract:"

// AnalyzeResult 処方箋解析の結果
type AnalyzeResult struct {
	Result       *domain.ExtractionResult
	Warnings     []string
	Records      []meddomain.MedicationRecord
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	Cached       bool
}

// AnalyzeUseCase 処方箋画像の解析ユースケース
type AnalyzeUseCase struct {
	visionRepo domain.VisionRepository
	cacheRepo  domain.CacheRepository
	cacheTTL   time.Duration
	sessions   *medusecase.SessionRegistry
	logger     *slog.Logger
}

// NewAnalyzeUseCase 新しいAnalyzeUseCaseを作成（cacheRepoはnil可）
func NewAnalyzeUseCase(
	visionRepo domain.VisionRepository,
	cacheRepo domain.CacheRepository,
	cacheTTL time.Duration,
	sessions *medusecase.SessionRegistry,
	logger *slog.Logger,
) *AnalyzeUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeUseCase{
		visionRepo: visionRepo,
		cacheRepo:  cacheRepo,
		cacheTTL:   cacheTTL,
		sessions:   sessions,
		logger:     logger,
	}
}

// AnalyzePrescription 画像から薬の情報を抽出し、セッションの集約に追加する
//
// 失敗した場合と、より新しいリクエストに追い越された場合は集約を変更しない。
func (uc *AnalyzeUseCase) AnalyzePrescription(ctx context.Context, sessionID string, img domain.RawImage) (*AnalyzeResult, error) {
	// 通信前に画像を検証
	mediaType, err := domain.SniffImage(img.Data)
	if err != nil {
		return nil, err
	}
	if img.MediaType != "" {
		declared, ok := domain.NormalizeMediaType(img.MediaType)
		if !ok {
			return nil, &domain.InvalidInputError{Reason: fmt.Sprintf("unsupported media type: %s", img.MediaType)}
		}
		if declared != mediaType {
			return nil, &domain.InvalidInputError{Reason: fmt.Sprintf("declared media type %s does not match image content %s", declared, mediaType)}
		}
	}

	encoded, err := domain.EncodeImage(domain.RawImage{Data: img.Data, MediaType: mediaType})
	if err != nil {
		return nil, err
	}

	session := uc.sessions.Get(ctx, sessionID)
	extractCtx, token, cancel := session.BeginExtraction(ctx)
	defer cancel()

	key := cacheKey(img.Data)
	raw, cached := uc.lookupCache(extractCtx, key)
	if !cached {
		uc.logger.Info("extraction started",
			"session_id", sessionID,
			"provider", uc.visionRepo.ProviderName(),
			"media_type", mediaType,
			"bytes", len(img.Data),
		)

		raw, err = uc.visionRepo.Extract(extractCtx, domain.NewExtractionRequest(encoded))
		if err != nil {
			if !session.IsLatest(token) {
				uc.logger.Info("extraction superseded", "session_id", sessionID, "token", token)
				return nil, meddomain.ErrExtractionSuperseded
			}
			return nil, fmt.Errorf("extraction failed: %w", err)
		}
	}

	candidate, err := ParseResponse(raw.Text)
	if err != nil {
		uc.logger.Warn("model returned malformed output", "session_id", sessionID, "cached", cached, "error", err)
		return nil, uc.rejectOutput(ctx, session, token, sessionID, key, cached, err)
	}

	result, warnings, err := ValidateExtraction(candidate)
	if err != nil {
		uc.logger.Warn("model output violates extraction schema", "session_id", sessionID, "cached", cached, "error", err)
		return nil, uc.rejectOutput(ctx, session, token, sessionID, key, cached, err)
	}
	for _, w := range warnings {
		uc.logger.Warn("extraction value dropped", "session_id", sessionID, "detail", w)
	}

	if !cached {
		uc.storeCache(ctx, key, raw.Text)
	}

	records, err := session.CommitExtraction(token, result.Medications)
	if err != nil {
		if errors.Is(err, meddomain.ErrExtractionSuperseded) {
			uc.logger.Info("extraction superseded", "session_id", sessionID, "token", token)
		}
		return nil, err
	}
	uc.sessions.Persist(ctx, sessionID, records)

	uc.logger.Info("extraction completed",
		"session_id", sessionID,
		"language", result.DetectedLanguageCode,
		"medications", len(result.Medications),
		"unreadable", result.Unreadable(),
		"cached", cached,
		"tokens", raw.TotalTokens(),
	)

	return &AnalyzeResult{
		Result:       result,
		Warnings:     warnings,
		Records:      records,
		Provider:     uc.visionRepo.ProviderName(),
		Model:        raw.Model,
		InputTokens:  raw.InputTokens,
		OutputTokens: raw.OutputTokens,
		Cached:       cached,
	}, nil
}

// rejectOutput 読み取れなかった出力の後始末
// キャッシュ由来なら削除し、追い越されたリクエストは ErrExtractionSuperseded を返す
func (uc *AnalyzeUseCase) rejectOutput(ctx context.Context, session *medusecase.Session, token uint64, sessionID, key string, cached bool, err error) error {
	if cached {
		uc.evictCache(ctx, key)
	}
	if !session.IsLatest(token) {
		uc.logger.Info("extraction superseded", "session_id", sessionID, "token", token)
		return meddomain.ErrExtractionSuperseded
	}
	return err
}

// lookupCache 同じ画像の検証済み出力があれば取得（キャッシュの失敗は無視する）
func (uc *AnalyzeUseCase) lookupCache(ctx context.Context, key string) (*domain.RawExtraction, bool) {
	if uc.cacheRepo == nil {
		return nil, false
	}

	data, err := uc.cacheRepo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			uc.logger.Warn("cache lookup failed", "key", key, "error", err)
		}
		return nil, false
	}

	return domain.NewRawExtraction(string(data), 0, 0, "cache"), true
}

func (uc *AnalyzeUseCase) storeCache(ctx context.Context, key, text string) {
	if uc.cacheRepo == nil {
		return
	}
	if err := uc.cacheRepo.Set(ctx, key, []byte(text), uc.cacheTTL); err != nil {
		uc.logger.Warn("cache store failed", "key", key, "error", err)
	}
}

func (uc *AnalyzeUseCase) evictCache(ctx context.Context, key string) {
	if uc.cacheRepo == nil {
		return
	}
	if err := uc.cacheRepo.Delete(ctx, key); err != nil {
		uc.logger.Warn("cache eviction failed", "key", key, "error", err)
	}
}

// cacheKey 画像内容のSHA-256からキャッシュキーを作成
func cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
