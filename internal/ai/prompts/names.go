package prompts

type PromptName string

const (
	PromptAnswerDataQuestions  PromptName = "answer_data_questions"
	PromptGenerateInsightCards PromptName = "generate_insight_cards"
	PromptSmartSuggestions     PromptName = "smart_suggestions"
)
