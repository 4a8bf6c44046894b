package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easel/internal/action"
	"easel/internal/canvas"
	"easel/internal/logging"
	"easel/pkg/types"
)

func f(v float64) *float64 { return &v }

func newDispatcher(prompt string) (*Dispatcher, *canvas.MemoryDocument) {
	doc := canvas.NewMemoryDocument()
	ctx := &action.ExecContext{Doc: doc, Prompt: prompt, Logger: logging.Nop()}
	return New(action.Builtin(), ctx, logging.Nop()), doc
}

func createEnvelope(index int, text string) types.Envelope {
	return types.Envelope{
		Index:    index,
		Complete: true,
		Action: types.Action{
			Kind:  types.KindCreate,
			Shape: "rectangle",
			Text:  text,
			X:     f(float64(index) * 100), Y: f(0), W: f(50), H: f(50),
		},
	}
}

func TestIncompleteEnvelopesHaveNoEffect(t *testing.T) {
	d, doc := newDispatcher("draw a box")

	env := createEnvelope(0, "box")
	env.Complete = false
	_, handled := d.Handle(env)

	assert.False(t, handled)
	assert.Empty(t, doc.ListShapes(nil))
}

func TestSingleDeliveryPerSlot(t *testing.T) {
	d, doc := newDispatcher("draw boxes")

	env := createEnvelope(0, "box")
	result, handled := d.Handle(env)
	require.True(t, handled)
	assert.Equal(t, OutcomeApplied, result.Outcome)

	// Same slot again: ignored even though the action would pass validation.
	_, handled = d.Handle(env)
	assert.False(t, handled)
	assert.Len(t, doc.ListShapes(nil), 1)
	assert.Equal(t, 1, d.AppliedCount())
}

func TestSchemaViolationDroppedWithoutAborting(t *testing.T) {
	d, doc := newDispatcher("draw boxes")

	invalid := types.Envelope{
		Index:    0,
		Complete: true,
		Action:   types.Action{Kind: types.KindCreate}, // missing shape and geometry
	}
	result, handled := d.Handle(invalid)
	require.True(t, handled)
	assert.Equal(t, OutcomeDroppedSchema, result.Outcome)
	assert.Error(t, result.Err)

	// Stream continues: the next slot still applies.
	result, handled = d.Handle(createEnvelope(1, "box"))
	require.True(t, handled)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Len(t, doc.ListShapes(nil), 1)
}

func TestUnknownKindDropped(t *testing.T) {
	d, _ := newDispatcher("draw")

	env := types.Envelope{Index: 0, Complete: true, Action: types.Action{Kind: "teleport"}}
	result, handled := d.Handle(env)
	require.True(t, handled)
	assert.Equal(t, OutcomeDroppedSchema, result.Outcome)
}

func TestSanitizeVetoIsSilent(t *testing.T) {
	d, doc := newDispatcher("draw a house") // creation vocabulary: clear must be vetoed

	env := types.Envelope{Index: 0, Complete: true, Action: types.Action{Kind: types.KindClear}}
	result, handled := d.Handle(env)
	require.True(t, handled)
	assert.Equal(t, OutcomeDroppedVeto, result.Outcome)
	assert.NoError(t, result.Err)
	assert.Empty(t, doc.ListShapes(nil))
}

func TestSanitizePanicTreatedAsVeto(t *testing.T) {
	registry := action.NewRegistry()
	require.NoError(t, registry.Register(action.Spec{
		Kind:     "explode",
		Schema:   func(types.Action) error { return nil },
		Sanitize: func(*action.ExecContext, types.Action) *types.Action { panic("boom") },
		Apply:    func(*action.ExecContext, types.Action) error { return nil },
	}))

	ctx := &action.ExecContext{Doc: canvas.NewMemoryDocument(), Logger: logging.Nop()}
	d := New(registry, ctx, logging.Nop())

	result, handled := d.Handle(types.Envelope{Index: 0, Complete: true, Action: types.Action{Kind: "explode"}})
	require.True(t, handled)
	assert.Equal(t, OutcomeDroppedVeto, result.Outcome)
}

func TestApplyFailureIsolatedPerAction(t *testing.T) {
	applyErr := errors.New("capability unavailable")
	registry := action.NewRegistry()
	require.NoError(t, registry.Register(action.Spec{
		Kind:   "flaky",
		Schema: func(types.Action) error { return nil },
		Apply: func(_ *action.ExecContext, a types.Action) error {
			if a.Message == "fail" {
				return applyErr
			}
			return nil
		},
	}))

	ctx := &action.ExecContext{Doc: canvas.NewMemoryDocument(), Logger: logging.Nop()}
	d := New(registry, ctx, logging.Nop())

	result, _ := d.Handle(types.Envelope{Index: 0, Complete: true, Action: types.Action{Kind: "flaky", Message: "fail"}})
	assert.Equal(t, OutcomeDroppedApply, result.Outcome)
	assert.ErrorIs(t, result.Err, applyErr)

	result, _ = d.Handle(types.Envelope{Index: 1, Complete: true, Action: types.Action{Kind: "flaky"}})
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, 1, d.AppliedCount())
}
