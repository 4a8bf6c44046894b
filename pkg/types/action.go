package types

// ActionKind discriminates the action union. The JSON field name ("kind") and
// the values below are part of the wire schema: adding a kind is allowed,
// renaming the discriminator or an existing kind is not.
type ActionKind string

const (
	KindCreate  ActionKind = "create"
	KindUpdate  ActionKind = "update"
	KindMove    ActionKind = "move"
	KindLabel   ActionKind = "label"
	KindClear   ActionKind = "clear"
	KindPen     ActionKind = "pen"
	KindMessage ActionKind = "message"
	KindThink   ActionKind = "think"
	KindReview  ActionKind = "review"
	KindTodo    ActionKind = "todo"
	KindSetView ActionKind = "setview"
)

// Point is a single pen-stroke coordinate in document space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Action is one discrete edit or communicative step produced by the model.
// It is decoded as a flat struct: the Kind field selects which of the
// remaining fields are meaningful, and per-kind schema validation rejects
// actions whose required fields are absent. Intent carries the author's
// stated goal for the action and is matched against the document later
// during completion verification.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Intent string     `json:"intent,omitempty"`

	// create / update / label
	Shape string `json:"shape,omitempty"`
	Text  string `json:"text,omitempty"`

	// update / move / label target
	ShapeID string `json:"shapeId,omitempty"`

	// create / move geometry
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	W *float64 `json:"w,omitempty"`
	H *float64 `json:"h,omitempty"`

	// pen
	Points []Point `json:"points,omitempty"`

	// todo
	Todo   string     `json:"todo,omitempty"`
	Status TodoStatus `json:"status,omitempty"`

	// setview / clear scope
	Bounds *Box `json:"bounds,omitempty"`

	// message / think / review free text
	Message string `json:"message,omitempty"`
}

// Envelope delivers an action together with its streaming state. An envelope
// for a given stream index is emitted with Complete=false zero or more times
// while the action's fields are still growing, then exactly once with
// Complete=true; after that the slot is immutable.
type Envelope struct {
	Index     int    `json:"index"`
	Action    Action `json:"action"`
	Complete  bool   `json:"complete"`
	ElapsedMs int64  `json:"elapsedMs"`
}
