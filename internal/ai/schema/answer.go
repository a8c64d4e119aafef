package schema

import (
	"strings"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
)

type AnswerDataQuestionsInput struct {
	Question              string `json:"question"`
	DataSourceDescription string `json:"dataSourceDescription"`
}

func (in AnswerDataQuestionsInput) Validate() error {
	if strings.TrimSpace(in.Question) == "" {
		return flowerr.Required("question")
	}
	if strings.TrimSpace(in.DataSourceDescription) == "" {
		return flowerr.Required("dataSourceDescription")
	}
	return nil
}

func (in AnswerDataQuestionsInput) PromptVars() map[string]any {
	return map[string]any{
		"question":              strings.TrimSpace(in.Question),
		"dataSourceDescription": strings.TrimSpace(in.DataSourceDescription),
	}
}

// AnswerDataQuestionsOutput is a natural-language answer with an optional chart
// and table the dashboard can render next to it.
type AnswerDataQuestionsOutput struct {
	Answer string     `json:"answer"`
	Chart  *ChartSpec `json:"chart,omitempty"`
	Table  *TableSpec `json:"table,omitempty"`
}

func (out *AnswerDataQuestionsOutput) Validate() error {
	if strings.TrimSpace(out.Answer) == "" {
		return &flowerr.ValidationError{Field: "answer", Reason: "empty"}
	}
	if err := out.Chart.Validate(); err != nil {
		return err
	}
	return out.Table.Validate()
}
