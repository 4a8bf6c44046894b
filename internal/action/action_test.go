package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easel/internal/canvas"
	"easel/internal/logging"
	"easel/pkg/types"
)

func f(v float64) *float64 { return &v }

func newCtx(prompt string) (*ExecContext, *canvas.MemoryDocument) {
	doc := canvas.NewMemoryDocument()
	return &ExecContext{
		Doc:    doc,
		Prompt: prompt,
		Logger: logging.Nop(),
	}, doc
}

func TestRegistryRejectsDuplicateKind(t *testing.T) {
	r := NewRegistry()
	spec := Spec{
		Kind:   types.KindMessage,
		Schema: func(types.Action) error { return nil },
		Apply:  func(*ExecContext, types.Action) error { return nil },
	}
	require.NoError(t, r.Register(spec))
	assert.Error(t, r.Register(spec))
}

func TestBuiltinCatalogCoversEveryKind(t *testing.T) {
	r := Builtin()
	kinds := r.Kinds()
	assert.Len(t, kinds, 11)

	catalog := r.Catalog()
	for _, kind := range kinds {
		assert.Contains(t, catalog, string(kind))
	}
}

func TestCreateSchema(t *testing.T) {
	r := Builtin()
	spec, ok := r.Lookup(types.KindCreate)
	require.True(t, ok)

	valid := types.Action{Kind: types.KindCreate, Shape: "rectangle", X: f(0), Y: f(0), W: f(10), H: f(10)}
	assert.NoError(t, spec.Schema(valid))

	missingGeometry := types.Action{Kind: types.KindCreate, Shape: "rectangle"}
	assert.Error(t, spec.Schema(missingGeometry))

	missingShape := types.Action{Kind: types.KindCreate, X: f(0), Y: f(0), W: f(10), H: f(10)}
	assert.Error(t, spec.Schema(missingShape))
}

func TestClearVetoedWhenPromptCreates(t *testing.T) {
	r := Builtin()
	spec, _ := r.Lookup(types.KindClear)

	// Creation vocabulary present: always vetoed, regardless of the action's
	// own fields.
	ctx, _ := newCtx("draw a house with 2 windows")
	clear := types.Action{Kind: types.KindClear, Bounds: &types.Box{W: 100, H: 100}}
	assert.Nil(t, spec.Sanitize(ctx, clear))

	ctx, _ = newCtx("please add three circles")
	assert.Nil(t, spec.Sanitize(ctx, clear))

	// Explicit clear request with no creation vocabulary: allowed.
	ctx, _ = newCtx("clear the canvas")
	assert.NotNil(t, spec.Sanitize(ctx, clear))

	// Mixed request: creation wins.
	ctx, _ = newCtx("clear the canvas and draw a cat")
	assert.Nil(t, spec.Sanitize(ctx, clear))
}

func TestClearApplyScopesToBounds(t *testing.T) {
	ctx, doc := newCtx("clear this area")
	_, err := doc.CreateShapes([]types.ShapeSpec{
		{Kind: "rectangle", Bounds: types.Box{X: 0, Y: 0, W: 10, H: 10}},
		{Kind: "rectangle", Bounds: types.Box{X: 500, Y: 500, W: 10, H: 10}},
	})
	require.NoError(t, err)

	r := Builtin()
	spec, _ := r.Lookup(types.KindClear)
	clear := types.Action{Kind: types.KindClear, Bounds: &types.Box{X: 0, Y: 0, W: 100, H: 100}}
	require.NoError(t, spec.Apply(ctx, clear))

	remaining := doc.ListShapes(nil)
	require.Len(t, remaining, 1)
	assert.Equal(t, 500.0, remaining[0].Bounds.X)
}

func TestCreateSanitizeDropsDuplicates(t *testing.T) {
	ctx, doc := newCtx("draw a door")
	_, err := doc.CreateShapes([]types.ShapeSpec{
		{Kind: "rectangle", Text: "door", Bounds: types.Box{X: 0, Y: 0, W: 40, H: 80}},
	})
	require.NoError(t, err)

	r := Builtin()
	spec, _ := r.Lookup(types.KindCreate)

	dup := types.Action{Kind: types.KindCreate, Shape: "rectangle", Text: "door", X: f(5), Y: f(5), W: f(40), H: f(80)}
	assert.Nil(t, spec.Sanitize(ctx, dup))

	elsewhere := types.Action{Kind: types.KindCreate, Shape: "rectangle", Text: "door", X: f(300), Y: f(300), W: f(40), H: f(80)}
	assert.NotNil(t, spec.Sanitize(ctx, elsewhere))
}

func TestLabelSanitizeAndApply(t *testing.T) {
	ctx, doc := newCtx("label the rooms")
	ids, err := doc.CreateShapes([]types.ShapeSpec{
		{Kind: "rectangle", Bounds: types.Box{W: 50, H: 50}},
	})
	require.NoError(t, err)

	r := Builtin()
	spec, _ := r.Lookup(types.KindLabel)

	missing := types.Action{Kind: types.KindLabel, ShapeID: "shape-gone", Text: "kitchen"}
	assert.Nil(t, spec.Sanitize(ctx, missing))

	label := types.Action{Kind: types.KindLabel, ShapeID: ids[0], Text: "kitchen"}
	sanitized := spec.Sanitize(ctx, label)
	require.NotNil(t, sanitized)
	require.NoError(t, spec.Apply(ctx, *sanitized))

	text, err := doc.ExtractText(ids[0])
	require.NoError(t, err)
	assert.Equal(t, "kitchen", text)

	// Re-labeling with identical text is idempotent: vetoed.
	assert.Nil(t, spec.Sanitize(ctx, label))
}

func TestMoveSanitizeVetoesNoop(t *testing.T) {
	ctx, doc := newCtx("move the box")
	ids, err := doc.CreateShapes([]types.ShapeSpec{
		{Kind: "rectangle", Bounds: types.Box{X: 100, Y: 100, W: 10, H: 10}},
	})
	require.NoError(t, err)

	r := Builtin()
	spec, _ := r.Lookup(types.KindMove)

	samePlace := types.Action{Kind: types.KindMove, ShapeID: ids[0], X: f(100), Y: f(100)}
	assert.Nil(t, spec.Sanitize(ctx, samePlace))

	elsewhere := types.Action{Kind: types.KindMove, ShapeID: ids[0], X: f(200), Y: f(50)}
	sanitized := spec.Sanitize(ctx, elsewhere)
	require.NotNil(t, sanitized)
	require.NoError(t, spec.Apply(ctx, *sanitized))

	bounds, err := doc.GetBounds(ids[0])
	require.NoError(t, err)
	assert.Equal(t, 200.0, bounds.X)
	assert.Equal(t, 50.0, bounds.Y)
}

func TestTodoApplyRoutesToSink(t *testing.T) {
	sink := &recordingTodoSink{}
	ctx, _ := newCtx("draw a flowchart")
	ctx.Todos = sink

	r := Builtin()
	spec, _ := r.Lookup(types.KindTodo)

	item := types.Action{Kind: types.KindTodo, Todo: "add arrows", Status: types.TodoInProgress}
	require.NoError(t, spec.Schema(item))
	require.NoError(t, spec.Apply(ctx, item))

	require.Len(t, sink.items, 1)
	assert.Equal(t, "add arrows", sink.items[0].Text)
	assert.Equal(t, types.TodoInProgress, sink.items[0].Status)

	bad := types.Action{Kind: types.KindTodo, Todo: "x", Status: "later"}
	assert.Error(t, spec.Schema(bad))
}

func TestPromptMentionsLabels(t *testing.T) {
	assert.True(t, PromptMentionsLabels("draw a map and label each country"))
	assert.True(t, PromptMentionsLabels("annotate the diagram"))
	assert.False(t, PromptMentionsLabels("draw three circles"))
}

type recordingTodoSink struct {
	items []types.TodoItem
}

func (s *recordingTodoSink) UpsertTodo(text string, status types.TodoStatus) {
	s.items = append(s.items, types.TodoItem{Text: text, Status: status})
}
