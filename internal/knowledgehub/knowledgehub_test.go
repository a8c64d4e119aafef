package knowledgehub

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var sample = Bookmark{
	InsightID: "ins-1",
	UserID:    "user-1",
	HubID:     "hub-1",
	Title:     "Q3 sales",
	Content:   "Sales grew 12% quarter over quarter.",
}

func TestMemoryStoreDoesNotDeduplicate(t *testing.T) {
	s := NewMemoryStore(nil)
	first, err := s.Save(context.Background(), sample)
	require.NoError(t, err)
	second, err := s.Save(context.Background(), sample)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStoreCountsConcurrentSaves(t *testing.T) {
	s := NewMemoryStore(nil)
	var g errgroup.Group
	for i := 0; i < 500; i++ {
		g.Go(func() error {
			_, err := s.Save(context.Background(), sample)
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 500, s.Len())
}

func TestMemoryStoreHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore(nil).Save(ctx, sample)
	assert.ErrorIs(t, err, context.Canceled)
}

func sqliteStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s := NewGormStore(db, nil)
	require.NoError(t, s.AutoMigrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGormStoreSave(t *testing.T) {
	s := sqliteStore(t)

	res, err := s.Save(context.Background(), sample)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.False(t, res.SavedAt.IsZero())

	var row InsightBookmark
	require.NoError(t, s.db.First(&row, "id = ?", res.ID).Error)
	assert.Equal(t, "Q3 sales", row.InsightTitle)
	assert.Equal(t, "hub-1", row.InsightHubID)
}

func TestGormStoreKeepsDuplicates(t *testing.T) {
	s := sqliteStore(t)
	for i := 0; i < 2; i++ {
		_, err := s.Save(context.Background(), sample)
		require.NoError(t, err)
	}
	var n int64
	require.NoError(t, s.db.Model(&InsightBookmark{}).Where("insight_id = ?", "ins-1").Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestOpenStoreClosesPoolWhenMigrationFails(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "hub.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	// A view with the table's name makes CREATE TABLE fail.
	require.NoError(t, db.Exec("CREATE VIEW insight_bookmark AS SELECT 1 AS id").Error)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	s, err := openStore(db, true, nil)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorContains(t, sqlDB.Ping(), "database is closed")
}
