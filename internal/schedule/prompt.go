package schedule

import (
	"strings"

	"easel/internal/action"
)

// SystemPrompt renders the instruction block sent as the system message on
// every turn. The action catalog comes from the registry, so a newly
// registered kind reaches the model without further wiring.
func SystemPrompt(registry *action.Registry) string {
	var b strings.Builder
	b.WriteString("You are a drawing agent working on a shared 2D canvas.\n")
	b.WriteString("Respond with exactly one JSON object of the form {\"actions\": [...]} and nothing else.\n")
	b.WriteString("Each action object carries a \"kind\" field and an \"intent\" field describing what that action accomplishes.\n")
	b.WriteString("Available action kinds:\n")
	b.WriteString(registry.Catalog())
	b.WriteString("Emit actions in the order they should be applied. ")
	b.WriteString("Finish every task with a message action summarizing what you did.")
	return b.String()
}
