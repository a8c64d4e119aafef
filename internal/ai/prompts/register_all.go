package prompts

import (
	"sync"

	"github.com/agenty/agenty-backend/internal/ai/schema"
)

var registerOnce sync.Once

// RegisterAll registers every flow prompt. Safe to call more than once.
func RegisterAll() {
	registerOnce.Do(registerAll)
}

func registerAll() {
	RegisterSpec(Spec{
		Name:       PromptAnswerDataQuestions,
		Version:    2,
		Descriptor: schema.AnswerDescriptor,
		System: `
You are an AI assistant helping users explore and understand their data.
You will receive a question and a description of the data source.
Your goal is to provide a dynamic response with a text summary and, if relevant, charts or tables that answer the question using the provided data source information.
- If a chart is the best way to visualize the answer, provide the chart data and configuration. Use recharts format for data (an array of flat records) and shadcn/ui chart conventions for config (keyed by the data field it plots, each with a label and optional color).
- Every config key must be a field that appears in the chart data.
- If a table is more appropriate, provide the headers and rows. Every row must have exactly one cell per header.
- Always provide a concise text summary of your findings in the 'answer' field.`,
		User: `
Question: {{.question}}
Data Source Description: {{.dataSourceDescription}}`,
	})

	RegisterSpec(Spec{
		Name:       PromptGenerateInsightCards,
		Version:    1,
		Descriptor: schema.InsightCardsDescriptor,
		System: `
You are an AI assistant that generates insight cards for a data analyst dashboard.
Based on the description of the uploaded data, generate a list of insight cards that highlight key trends, anomalies, and important metrics.
Each insight card should include a title, a detailed description, a recommended chart type (line, bar, pie or table), and the relevant data fields.`,
		User: `
Data Description: {{.dataDescription}}

Ensure the output is a JSON object whose "cards" field is an array of insight card objects.`,
	})

	RegisterSpec(Spec{
		Name:       PromptSmartSuggestions,
		Version:    1,
		Descriptor: schema.SuggestionsDescriptor,
		System: `
You are an AI assistant that provides smart suggestions and autocompletions for user queries.
Based on the user's current query and available data sources, provide a list of suggestions that can help the user explore their data more efficiently.`,
		User: `
Current Query: {{.query}}
Available Data Sources: {{joinList .dataSources | orDefault "` + NoDataSources + `"}}

Suggestions should be concise and relevant to the query and data sources.
Return the suggestions as a JSON object whose "suggestions" field is an array of strings.`,
	})
}
