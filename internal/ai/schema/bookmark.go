package schema

import (
	"strings"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
)

type BookmarkInsightInput struct {
	InsightID      string `json:"insightId"`
	UserID         string `json:"userId"`
	InsightHubID   string `json:"insightHubId"`
	InsightTitle   string `json:"insightTitle"`
	InsightContent string `json:"insightContent"`
}

func (in BookmarkInsightInput) Validate() error {
	fields := []struct {
		name, val string
	}{
		{"insightId", in.InsightID},
		{"userId", in.UserID},
		{"insightHubId", in.InsightHubID},
		{"insightTitle", in.InsightTitle},
		{"insightContent", in.InsightContent},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.val) == "" {
			return flowerr.Required(f.name)
		}
	}
	return nil
}

type BookmarkInsightOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
