package types

// TodoStatus tracks a todo item through the agent's backlog.
type TodoStatus string

const (
	TodoPending    TodoStatus = "todo"
	TodoInProgress TodoStatus = "in-progress"
	TodoDone       TodoStatus = "done"
)

// TodoItem is one backlog entry on the scheduler's per-run todo list.
type TodoItem struct {
	Text   string     `json:"text"`
	Status TodoStatus `json:"status"`
}

// CompletionCheckResult is the verdict of one verification pass. It is a
// value recomputed on every check and never persisted; IsComplete is the
// conjunction of every sub-check, while ForceContinuation is driven by
// unfulfilled action intents and overrides an otherwise clean keyword pass.
type CompletionCheckResult struct {
	IsComplete          bool     `json:"isComplete"`
	Satisfied           []string `json:"satisfied,omitempty"`
	Unsatisfied         []string `json:"unsatisfied,omitempty"`
	MissingDetails      []string `json:"missingDetails,omitempty"`
	PositionIssues      []string `json:"positionIssues,omitempty"`
	ForceContinuation   bool     `json:"forceContinuation"`
	ContinuationReasons []string `json:"continuationReasons,omitempty"`
}

// ContextItem references a set of shapes or a bounded area attached to a
// prompt. Coordinates are expressed relative to the document origin captured
// at prompt time; OffsetX/OffsetY record that frame so replay stays
// consistent even if the viewport has since moved.
type ContextItem struct {
	Source   string   `json:"source"` // "user" or "agent"
	ShapeIDs []string `json:"shapeIds,omitempty"`
	Bounds   *Box     `json:"bounds,omitempty"`
	OffsetX  float64  `json:"offsetX"`
	OffsetY  float64  `json:"offsetY"`
}
