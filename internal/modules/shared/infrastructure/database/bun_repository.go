package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	_ "github.com/go-sql-driver/mysql"

	"prescription-api-app/internal/config"
	"prescription-api-app/internal/modules/medication/domain"
	prescription "prescription-api-app/internal/modules/prescription/domain"
)

// MedicationRecord BUNモデル
type MedicationRecord struct {
	bun.BaseModel `bun:"table:medication_records"`

	ID        string                            `bun:"id,pk,type:varchar(36)"`
	SessionID string                            `bun:"session_id,notnull,type:varchar(64)"`
	Seq       int                               `bun:"seq,notnull"`
	Source    string                            `bun:"source,notnull,type:varchar(16)"`
	Name      string                            `bun:"name,notnull,type:varchar(255)"`
	Extracted *prescription.ExtractedMedication `bun:"extracted,type:json"`
	Manual    *domain.ManualMedication          `bun:"manual,type:json"`
	CreatedAt time.Time                         `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time                         `bun:"updated_at,notnull,default:current_timestamp"`
}

// BunMedicationRepository BUN実装
type BunMedicationRepository struct {
	db *bun.DB
}

// NewBunMedicationRepository 新しいBunMedicationRepositoryを作成
func NewBunMedicationRepository(cfg *config.MySQLConfig) (*BunMedicationRepository, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local&clientFoundRows=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, mysqldialect.New())

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &BunMedicationRepository{db: db}, nil
}

// NewBunMedicationRepositoryWithDB DBインスタンスから作成（テスト用）
func NewBunMedicationRepositoryWithDB(db *bun.DB) *BunMedicationRepository {
	return &BunMedicationRepository{db: db}
}

// CreateSchema テーブルが無ければ作成
func (r *BunMedicationRepository) CreateSchema(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().Model((*MedicationRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create medication_records table: %w", err)
	}
	return nil
}

// Save レコードをまとめて追加
func (r *BunMedicationRepository) Save(ctx context.Context, sessionID string, records []domain.MedicationRecord) error {
	if len(records) == 0 {
		return nil
	}

	models := make([]MedicationRecord, len(records))
	for i, record := range records {
		models[i] = *r.toModel(sessionID, record)
	}

	// トランザクション内で実行
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&models).Exec(ctx); err != nil {
			return fmt.Errorf("failed to save medications: %w", err)
		}
		return nil
	})
}

// Replace 手動登録の薬を置き換える（IDと並び順は変えない）
func (r *BunMedicationRepository) Replace(ctx context.Context, sessionID string, record domain.MedicationRecord) error {
	model := r.toModel(sessionID, record)
	model.UpdatedAt = time.Now()

	res, err := r.db.NewUpdate().
		Model(model).
		Column("name", "manual", "updated_at").
		Where("id = ?", model.ID).
		Where("session_id = ?", sessionID).
		Where("source = ?", string(domain.SourceManual)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to replace medication: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to replace medication: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrMedicationNotFound, record.ID)
	}
	return nil
}

// FindBySession セッションのレコードを登録順に取得
func (r *BunMedicationRepository) FindBySession(ctx context.Context, sessionID string) ([]domain.MedicationRecord, error) {
	var models []MedicationRecord
	err := r.db.NewSelect().
		Model(&models).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find medications: %w", err)
	}

	records := make([]domain.MedicationRecord, 0, len(models))
	for i := range models {
		record, err := r.toRecord(&models[i])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Ping 接続確認（ヘルスチェック用）
func (r *BunMedicationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close データベース接続を閉じる
func (r *BunMedicationRepository) Close() error {
	return r.db.Close()
}

// toModel レコードをモデルに変換
func (r *BunMedicationRepository) toModel(sessionID string, record domain.MedicationRecord) *MedicationRecord {
	now := time.Now()
	return &MedicationRecord{
		ID:        record.ID,
		SessionID: sessionID,
		Seq:       record.Seq,
		Source:    string(record.Source),
		Name:      record.Name(),
		Extracted: record.Extracted,
		Manual:    record.Manual,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// toRecord モデルをレコードに変換
func (r *BunMedicationRepository) toRecord(model *MedicationRecord) (domain.MedicationRecord, error) {
	record := domain.MedicationRecord{
		ID:     model.ID,
		Seq:    model.Seq,
		Source: domain.Source(model.Source),
	}

	switch record.Source {
	case domain.SourceExtracted:
		if model.Extracted == nil {
			return domain.MedicationRecord{}, fmt.Errorf("medication %s: extracted payload is missing", model.ID)
		}
		record.Extracted = model.Extracted
	case domain.SourceManual:
		if model.Manual == nil {
			return domain.MedicationRecord{}, fmt.Errorf("medication %s: manual payload is missing", model.ID)
		}
		record.Manual = model.Manual
	default:
		return domain.MedicationRecord{}, fmt.Errorf("medication %s: unknown source %q", model.ID, model.Source)
	}

	return record, nil
}
