package action

import (
	"fmt"
	"math"

	"easel/pkg/types"
)

// Builtin returns a registry populated with every action kind the engine
// ships. The set is versioned: kinds may be added, never renamed.
func Builtin() *Registry {
	r := NewRegistry()
	for _, spec := range builtinSpecs() {
		if err := r.Register(spec); err != nil {
			// Registration of the built-in table only fails on a programming
			// error (duplicate kind), never at runtime.
			panic(err)
		}
	}
	return r
}

func builtinSpecs() []Spec {
	return []Spec{
		{
			Kind:        types.KindCreate,
			Description: "create a new shape; requires shape, x, y, w, h; text optional",
			Schema:      schemaCreate,
			Sanitize:    sanitizeCreate,
			Apply:       applyCreate,
			Describe: func(a types.Action) string {
				if a.Text != "" {
					return fmt.Sprintf("create %s %q", a.Shape, a.Text)
				}
				return fmt.Sprintf("create %s", a.Shape)
			},
		},
		{
			Kind:        types.KindUpdate,
			Description: "change properties of an existing shape; requires shapeId plus at least one property",
			Schema:      schemaUpdate,
			Sanitize:    sanitizeShapeExists,
			Apply:       applyUpdate,
			Describe: func(a types.Action) string {
				return fmt.Sprintf("update %s", a.ShapeID)
			},
		},
		{
			Kind:        types.KindMove,
			Description: "move an existing shape to x, y; requires shapeId, x, y",
			Schema:      schemaMove,
			Sanitize:    sanitizeMove,
			Apply:       applyMove,
			Describe: func(a types.Action) string {
				return fmt.Sprintf("move %s", a.ShapeID)
			},
		},
		{
			Kind:        types.KindLabel,
			Description: "set the text of an existing shape; requires shapeId and text",
			Schema:      schemaLabel,
			Sanitize:    sanitizeLabel,
			Apply:       applyLabel,
			Describe: func(a types.Action) string {
				return fmt.Sprintf("label %s %q", a.ShapeID, a.Text)
			},
		},
		{
			Kind:        types.KindClear,
			Description: "delete shapes, optionally within bounds; only valid when the user asked to clear",
			Schema:      func(types.Action) error { return nil },
			Sanitize:    sanitizeClear,
			Apply:       applyClear,
			Describe:    func(types.Action) string { return "clear the canvas" },
		},
		{
			Kind:        types.KindPen,
			Description: "draw a freehand stroke; requires at least two points",
			Schema:      schemaPen,
			Apply:       applyPen,
			Describe:    func(a types.Action) string { return fmt.Sprintf("pen stroke (%d points)", len(a.Points)) },
		},
		{
			Kind:        types.KindMessage,
			Description: "say something to the user; requires message",
			Schema:      schemaFreeText,
			Apply:       applyLogOnly,
			Describe:    func(a types.Action) string { return "message to user" },
		},
		{
			Kind:        types.KindThink,
			Description: "reason out loud without touching the canvas; requires message",
			Schema:      schemaFreeText,
			Apply:       applyLogOnly,
			Describe:    func(a types.Action) string { return "thinking" },
		},
		{
			Kind:        types.KindReview,
			Description: "request a self-review of the work done so far",
			Schema:      func(types.Action) error { return nil },
			Apply:       applyLogOnly,
			Describe:    func(types.Action) string { return "self review" },
		},
		{
			Kind:        types.KindTodo,
			Description: "add or update a backlog item; requires todo text and a status of todo, in-progress or done",
			Schema:      schemaTodo,
			Apply:       applyTodo,
			Describe: func(a types.Action) string {
				return fmt.Sprintf("todo [%s] %s", a.Status, a.Todo)
			},
		},
		{
			Kind:        types.KindSetView,
			Description: "move the agent's viewport; requires bounds",
			Schema:      schemaSetView,
			Apply:       applySetView,
			Describe:    func(types.Action) string { return "set viewport" },
		},
	}
}

// --- schemas ---

func schemaCreate(a types.Action) error {
	if a.Shape == "" {
		return fmt.Errorf("create: shape is required")
	}
	if a.X == nil || a.Y == nil || a.W == nil || a.H == nil {
		return fmt.Errorf("create: x, y, w, h are required")
	}
	if *a.W <= 0 || *a.H <= 0 {
		return fmt.Errorf("create: w and h must be positive")
	}
	return nil
}

func schemaUpdate(a types.Action) error {
	if a.ShapeID == "" {
		return fmt.Errorf("update: shapeId is required")
	}
	if a.Text == "" && a.X == nil && a.Y == nil && a.W == nil && a.H == nil {
		return fmt.Errorf("update: at least one property is required")
	}
	return nil
}

func schemaMove(a types.Action) error {
	if a.ShapeID == "" {
		return fmt.Errorf("move: shapeId is required")
	}
	if a.X == nil || a.Y == nil {
		return fmt.Errorf("move: x and y are required")
	}
	return nil
}

func schemaLabel(a types.Action) error {
	if a.ShapeID == "" {
		return fmt.Errorf("label: shapeId is required")
	}
	if a.Text == "" {
		return fmt.Errorf("label: text is required")
	}
	return nil
}

func schemaPen(a types.Action) error {
	if len(a.Points) < 2 {
		return fmt.Errorf("pen: at least two points are required")
	}
	return nil
}

func schemaFreeText(a types.Action) error {
	if a.Message == "" {
		return fmt.Errorf("%s: message is required", a.Kind)
	}
	return nil
}

func schemaTodo(a types.Action) error {
	if a.Todo == "" {
		return fmt.Errorf("todo: text is required")
	}
	switch a.Status {
	case "", types.TodoPending, types.TodoInProgress, types.TodoDone:
		return nil
	default:
		return fmt.Errorf("todo: unknown status %q", a.Status)
	}
}

func schemaSetView(a types.Action) error {
	if a.Bounds == nil {
		return fmt.Errorf("setview: bounds are required")
	}
	return nil
}

// --- sanitizers ---

// sanitizeCreate drops a create that would duplicate an existing shape: same
// kind, same text, overlapping the same spot. Streams that restate earlier
// work become no-ops instead of stacking copies.
func sanitizeCreate(ctx *ExecContext, a types.Action) *types.Action {
	target := ctx.Frame.ToDocument(types.Box{X: *a.X, Y: *a.Y, W: *a.W, H: *a.H})
	for _, shape := range ctx.Doc.ListShapes(&target) {
		if shape.Kind == a.Shape && shape.Text == a.Text {
			return nil
		}
	}
	return &a
}

// sanitizeShapeExists vetoes actions whose target shape is gone.
func sanitizeShapeExists(ctx *ExecContext, a types.Action) *types.Action {
	if _, err := ctx.Doc.GetBounds(a.ShapeID); err != nil {
		return nil
	}
	return &a
}

func sanitizeMove(ctx *ExecContext, a types.Action) *types.Action {
	bounds, err := ctx.Doc.GetBounds(a.ShapeID)
	if err != nil {
		return nil
	}
	target := ctx.Frame.PointToDocument(types.Point{X: *a.X, Y: *a.Y})
	if math.Abs(bounds.X-target.X) < 0.5 && math.Abs(bounds.Y-target.Y) < 0.5 {
		return nil // already there
	}
	return &a
}

func sanitizeLabel(ctx *ExecContext, a types.Action) *types.Action {
	if _, err := ctx.Doc.GetBounds(a.ShapeID); err != nil {
		return nil
	}
	if text, err := ctx.Doc.ExtractText(a.ShapeID); err == nil && text == a.Text {
		return nil // already labeled
	}
	return &a
}

// sanitizeClear vetoes the clear unless the originating prompt contains
// explicit clearing vocabulary and no creation vocabulary, regardless of the
// action's own fields.
func sanitizeClear(ctx *ExecContext, a types.Action) *types.Action {
	if !PromptAllowsClear(ctx.Prompt) {
		return nil
	}
	return &a
}

// --- appliers ---

func applyCreate(ctx *ExecContext, a types.Action) error {
	spec := types.ShapeSpec{
		Kind:   a.Shape,
		Text:   a.Text,
		Bounds: ctx.Frame.ToDocument(types.Box{X: *a.X, Y: *a.Y, W: *a.W, H: *a.H}),
	}
	_, err := ctx.Doc.CreateShapes([]types.ShapeSpec{spec})
	return err
}

func applyUpdate(ctx *ExecContext, a types.Action) error {
	patch := types.ShapePatch{W: a.W, H: a.H}
	if a.Text != "" {
		patch.Text = &a.Text
	}
	if a.X != nil && a.Y != nil {
		p := ctx.Frame.PointToDocument(types.Point{X: *a.X, Y: *a.Y})
		patch.X = &p.X
		patch.Y = &p.Y
	}
	return ctx.Doc.UpdateShape(a.ShapeID, patch)
}

func applyMove(ctx *ExecContext, a types.Action) error {
	p := ctx.Frame.PointToDocument(types.Point{X: *a.X, Y: *a.Y})
	return ctx.Doc.UpdateShape(a.ShapeID, types.ShapePatch{X: &p.X, Y: &p.Y})
}

func applyLabel(ctx *ExecContext, a types.Action) error {
	return ctx.Doc.UpdateShape(a.ShapeID, types.ShapePatch{Text: &a.Text})
}

func applyClear(ctx *ExecContext, a types.Action) error {
	var scope *types.Box
	if a.Bounds != nil {
		b := ctx.Frame.ToDocument(*a.Bounds)
		scope = &b
	}
	shapes := ctx.Doc.ListShapes(scope)
	ids := make([]string, 0, len(shapes))
	for _, shape := range shapes {
		ids = append(ids, shape.ID)
	}
	return ctx.Doc.DeleteShapes(ids)
}

func applyPen(ctx *ExecContext, a types.Action) error {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, raw := range a.Points {
		p := ctx.Frame.PointToDocument(raw)
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	spec := types.ShapeSpec{
		Kind:   "draw",
		Bounds: types.Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY},
	}
	_, err := ctx.Doc.CreateShapes([]types.ShapeSpec{spec})
	return err
}

// applyLogOnly covers communicative kinds: the envelope stream already
// delivers them to the caller, so applying them only leaves a trace.
func applyLogOnly(ctx *ExecContext, a types.Action) error {
	ctx.Logger.Debug("%s action: %s", a.Kind, a.Message)
	return nil
}

func applyTodo(ctx *ExecContext, a types.Action) error {
	if ctx.Todos == nil {
		return nil
	}
	status := a.Status
	if status == "" {
		status = types.TodoPending
	}
	ctx.Todos.UpsertTodo(a.Todo, status)
	return nil
}

func applySetView(ctx *ExecContext, a types.Action) error {
	if ctx.View == nil {
		return nil
	}
	ctx.View.SetView(ctx.Frame.ToDocument(*a.Bounds))
	return nil
}
