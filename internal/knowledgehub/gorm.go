package knowledgehub

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/agenty/agenty-backend/internal/platform/logger"
)

type InsightBookmark struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InsightID      string    `gorm:"column:insight_id;not null;index" json:"insight_id"`
	UserID         string    `gorm:"column:user_id;not null;index" json:"user_id"`
	InsightHubID   string    `gorm:"column:insight_hub_id;not null;index" json:"insight_hub_id"`
	InsightTitle   string    `gorm:"column:insight_title;not null" json:"insight_title"`
	InsightContent string    `gorm:"column:insight_content;not null" json:"insight_content"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (InsightBookmark) TableName() string {
	return "insight_bookmark"
}

func (b *InsightBookmark) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type GormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormStore(db *gorm.DB, baseLog *logger.Logger) *GormStore {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &GormStore{db: db, log: baseLog.With("store", "GormStore")}
}

// OpenPostgres connects to dsn and optionally migrates the bookmark table.
func OpenPostgres(dsn string, autoMigrate bool, baseLog *logger.Logger) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return openStore(db, autoMigrate, baseLog)
}

// openStore wraps db and optionally migrates it. db is closed when migration fails.
func openStore(db *gorm.DB, autoMigrate bool, baseLog *logger.Logger) (*GormStore, error) {
	s := NewGormStore(db, baseLog)
	if autoMigrate {
		if err := s.AutoMigrate(); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *GormStore) Name() string { return "postgres" }

func (s *GormStore) AutoMigrate() error {
	s.log.Info("Auto migrating insight_bookmark table...")
	if err := s.db.AutoMigrate(&InsightBookmark{}); err != nil {
		s.log.Error("Auto migration failed for insight_bookmark", "error", err)
		return fmt.Errorf("migrate insight_bookmark: %w", err)
	}
	return nil
}

func (s *GormStore) Save(ctx context.Context, b Bookmark) (SaveResult, error) {
	row := &InsightBookmark{
		InsightID:      b.InsightID,
		UserID:         b.UserID,
		InsightHubID:   b.HubID,
		InsightTitle:   b.Title,
		InsightContent: b.Content,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		s.log.FromContext(ctx).Error("save bookmark failed", "insight_id", b.InsightID, "error", err)
		return SaveResult{}, fmt.Errorf("save bookmark: %w", err)
	}
	return SaveResult{ID: row.ID.String(), SavedAt: row.CreatedAt}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
