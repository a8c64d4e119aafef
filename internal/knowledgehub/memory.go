package knowledgehub

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/agenty/agenty-backend/internal/platform/logger"
)

// MemoryStore stands in for the hub service on local runs. It logs each
// bookmark and counts it but keeps no payloads, so it never grows.
type MemoryStore struct {
	saved atomic.Int64
	log   *logger.Logger
}

func NewMemoryStore(baseLog *logger.Logger) *MemoryStore {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &MemoryStore{log: baseLog.With("store", "MemoryStore")}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Save(ctx context.Context, b Bookmark) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}
	s.log.FromContext(ctx).Info("Simulating bookmarking insight",
		"insight_id", b.InsightID, "user_id", b.UserID, "hub_id", b.HubID)

	s.saved.Add(1)
	return SaveResult{ID: uuid.NewString(), SavedAt: time.Now().UTC()}, nil
}

// Len reports how many bookmarks have been saved.
func (s *MemoryStore) Len() int {
	return int(s.saved.Load())
}
