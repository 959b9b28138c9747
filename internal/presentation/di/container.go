package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"prescription-api-app/internal/config"
	meddomain "prescription-api-app/internal/modules/medication/domain"
	medicationHandler "prescription-api-app/internal/modules/medication/presentation/handler"
	medicationUsecase "prescription-api-app/internal/modules/medication/usecase"
	"prescription-api-app/internal/modules/prescription/domain"
	prescriptionHandler "prescription-api-app/internal/modules/prescription/presentation/handler"
	prescriptionUsecase "prescription-api-app/internal/modules/prescription/usecase"
	sharedAI "prescription-api-app/internal/modules/shared/infrastructure/ai"
	sharedCache "prescription-api-app/internal/modules/shared/infrastructure/cache"
	sharedDB "prescription-api-app/internal/modules/shared/infrastructure/database"
	httpHandler "prescription-api-app/internal/presentation/http/handler"
)

// schemaTimeout 起動時のテーブル作成の待ち時間
const schemaTimeout = 10 * time.Second

// visionProvider 画像解析モデルの実装（DIで選択する）
type visionProvider interface {
	domain.VisionRepository
	Model() string
}

// Container DIコンテナ
type Container struct {
	logger *slog.Logger

	// Shared Infrastructure
	visionRepo     visionProvider
	cacheRepo      *sharedCache.RedisRepository
	medicationRepo *sharedDB.BunMedicationRepository

	// Medication Module
	sessions                *medicationUsecase.SessionRegistry
	medicationUseCase       *medicationUsecase.MedicationUseCase
	contraindicationUseCase *medicationUsecase.ContraindicationUseCase
	medicationHandler       *medicationHandler.MedicationHandler

	// Prescription Module
	analyzeUseCase      *prescriptionUsecase.AnalyzeUseCase
	prescriptionHandler *prescriptionHandler.PrescriptionHandler

	healthHandler *httpHandler.HealthHandler
}

// NewContainer 新しいContainerを作成
// Redis/MySQLは設定で有効な場合のみ接続する
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	container := &Container{logger: logger}

	// Shared Infrastructure: Vision Repository
	visionRepo, err := newVisionProvider(&cfg.Vision)
	if err != nil {
		return nil, err
	}
	container.visionRepo = visionRepo

	// Shared Infrastructure: Cache Repository
	var cacheRepo domain.CacheRepository
	if cfg.Redis.Enabled {
		redisRepo, err := sharedCache.NewRedisRepository(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache repository: %w", err)
		}
		container.cacheRepo = redisRepo
		cacheRepo = redisRepo
	}

	// Shared Infrastructure: Medication Repository
	var medicationRepo meddomain.MedicationRepository
	if cfg.MySQL.Enabled {
		bunRepo, err := sharedDB.NewBunMedicationRepository(&cfg.MySQL)
		if err != nil {
			_ = container.Close()
			return nil, fmt.Errorf("failed to initialize medication repository: %w", err)
		}
		container.medicationRepo = bunRepo

		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := bunRepo.CreateSchema(ctx); err != nil {
			_ = container.Close()
			return nil, fmt.Errorf("failed to prepare medication schema: %w", err)
		}
		medicationRepo = bunRepo
	}

	// Medication Module
	container.sessions = medicationUsecase.NewSessionRegistry(medicationRepo, logger)
	container.medicationUseCase = medicationUsecase.NewMedicationUseCase(container.sessions)
	container.contraindicationUseCase = medicationUsecase.NewContraindicationUseCase(
		container.sessions, medicationUsecase.ConservativeEvaluator{}, logger)
	container.medicationHandler = medicationHandler.NewMedicationHandler(
		container.medicationUseCase, container.contraindicationUseCase, logger)

	// Prescription Module
	container.analyzeUseCase = prescriptionUsecase.NewAnalyzeUseCase(
		visionRepo, cacheRepo, cfg.Redis.TTL(), container.sessions, logger)
	container.prescriptionHandler = prescriptionHandler.NewPrescriptionHandler(container.analyzeUseCase, logger)

	// Health Check
	checks := make(map[string]httpHandler.Pinger)
	if container.cacheRepo != nil {
		checks["redis"] = container.cacheRepo
	}
	if container.medicationRepo != nil {
		checks["mysql"] = container.medicationRepo
	}
	container.healthHandler = httpHandler.NewHealthHandler(visionRepo.ProviderName(), checks)

	return container, nil
}

// newVisionProvider 設定に応じて画像解析モデルの実装を選ぶ
func newVisionProvider(cfg *config.VisionConfig) (visionProvider, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return sharedAI.NewClaudeRepository(cfg), nil
	case config.ProviderOpenAI:
		return sharedAI.NewOpenAIRepository(cfg), nil
	}
	return nil, fmt.Errorf("unsupported vision provider: %q", cfg.Provider)
}

// ProviderName 画像解析モデルのプロバイダー名を取得
func (c *Container) ProviderName() string {
	return c.visionRepo.ProviderName()
}

// Model 画像解析モデル名を取得
func (c *Container) Model() string {
	return c.visionRepo.Model()
}

// Logger ロガーを取得
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// AnalyzeUseCase 処方箋解析ユースケースを取得
func (c *Container) AnalyzeUseCase() *prescriptionUsecase.AnalyzeUseCase {
	return c.analyzeUseCase
}

// PrescriptionHandler 処方箋解析APIハンドラーを取得
func (c *Container) PrescriptionHandler() *prescriptionHandler.PrescriptionHandler {
	return c.prescriptionHandler
}

// MedicationHandler 薬APIハンドラーを取得
func (c *Container) MedicationHandler() *medicationHandler.MedicationHandler {
	return c.medicationHandler
}

// HealthHandler ヘルスチェックハンドラーを取得
func (c *Container) HealthHandler() *httpHandler.HealthHandler {
	return c.healthHandler
}

// Close リソースをクローズ
func (c *Container) Close() error {
	var errs []error

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache repository: %w", err))
		}
		c.cacheRepo = nil
	}

	if c.medicationRepo != nil {
		if err := c.medicationRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close medication repository: %w", err))
		}
		c.medicationRepo = nil
	}

	return errors.Join(errs...)
}
