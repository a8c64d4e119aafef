package promptstyle

import "strings"

const marker = "AGENTY_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to system prompts. Applying it
// twice is a no-op.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are the analysis assistant inside the AgentY data dashboard.")
	b.WriteString("\nGround every statement in the data description and question you are given.")
	b.WriteString("\nIf the data cannot answer the question, say so plainly.")
	if mode == "json" {
		b.WriteString("\nReply with a single JSON value that matches the requested schema. No markdown fences and no commentary.")
	} else {
		b.WriteString("\nBe concise.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
