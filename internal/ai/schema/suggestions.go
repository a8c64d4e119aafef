package schema

import "strings"

type SmartSuggestionsInput struct {
	Query       string   `json:"query"`
	DataSources []string `json:"dataSources,omitempty"`
}

// Validate accepts an empty query; the dashboard asks for suggestions before
// the user has typed anything.
func (in SmartSuggestionsInput) Validate() error {
	return nil
}

func (in SmartSuggestionsInput) PromptVars() map[string]any {
	sources := make([]string, 0, len(in.DataSources))
	for _, s := range in.DataSources {
		if s = strings.TrimSpace(s); s != "" {
			sources = append(sources, s)
		}
	}
	return map[string]any{
		"query":       strings.TrimSpace(in.Query),
		"dataSources": sources,
	}
}

type SmartSuggestionsOutput struct {
	Suggestions []string `json:"suggestions"`
}

func (out *SmartSuggestionsOutput) Validate() error {
	return nil
}

// Clean drops blank suggestions and keeps at most max of the rest in order.
func (out *SmartSuggestionsOutput) Clean(max int) SmartSuggestionsOutput {
	kept := make([]string, 0, len(out.Suggestions))
	for _, s := range out.Suggestions {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if max > 0 && len(kept) >= max {
			break
		}
		kept = append(kept, s)
	}
	return SmartSuggestionsOutput{Suggestions: kept}
}
