package processor

// BuildSimplificationPrompt asks the model for a lay summary and a task checklist.
// The response format is a request to the model, not a contract: callers pass
// the completion through as opaque text.
func BuildSimplificationPrompt(text string) string {
	return `
You are a medical assistant. Simplify the following medical instructions into:
1. A plain-language summary for a non-expert.
2. A checklist of tasks or reminders.

Original Text:
` + text + `

Respond in this format:
Summary: <simple explanation>
Checklist: [<item 1>, <item 2>, ...]
`
}
