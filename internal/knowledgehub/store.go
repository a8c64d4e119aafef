// Package knowledgehub persists bookmarked insights into a user's Insight Hub.
package knowledgehub

import (
	"context"
	"time"
)

type Bookmark struct {
	InsightID string
	UserID    string
	HubID     string
	Title     string
	Content   string
}

type SaveResult struct {
	ID      string
	SavedAt time.Time
}

// Store is the slice of the Knowledge-Hub the flows depend on. Saves are not
// deduplicated: bookmarking the same insight twice stores it twice.
type Store interface {
	Save(ctx context.Context, b Bookmark) (SaveResult, error)
	Name() string
}
