package schema

import (
	"fmt"
	"strings"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
)

type GenerateInsightCardsInput struct {
	DataDescription string `json:"dataDescription"`
}

func (in GenerateInsightCardsInput) Validate() error {
	if strings.TrimSpace(in.DataDescription) == "" {
		return flowerr.Required("dataDescription")
	}
	return nil
}

func (in GenerateInsightCardsInput) PromptVars() map[string]any {
	return map[string]any{"dataDescription": strings.TrimSpace(in.DataDescription)}
}

// CardChartType is the visualization an insight card asks for. Unlike ChartType
// it also allows a plain table.
type CardChartType string

const (
	CardLine  CardChartType = "line"
	CardBar   CardChartType = "bar"
	CardPie   CardChartType = "pie"
	CardTable CardChartType = "table"
)

func (t CardChartType) Valid() bool {
	switch t {
	case CardLine, CardBar, CardPie, CardTable:
		return true
	}
	return false
}

type InsightCard struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	ChartType   CardChartType `json:"chartType"`
	DataFields  []string      `json:"dataFields"`
}

func (c InsightCard) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("title is empty")
	}
	if !c.ChartType.Valid() {
		return fmt.Errorf("chartType %q is not one of line, bar, pie, table", c.ChartType)
	}
	return nil
}

// InsightCardSet is the wire envelope for GenerateInsightCards output.
type InsightCardSet struct {
	Cards []InsightCard `json:"cards"`
}

func (s *InsightCardSet) Validate() error {
	for i, c := range s.Cards {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("cards[%d]: %w", i, err)
		}
	}
	return nil
}

type GenerateInsightCardsOutput []InsightCard
