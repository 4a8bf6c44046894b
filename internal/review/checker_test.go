package review

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easel/internal/canvas"
	"easel/internal/history"
	"easel/pkg/types"
)

func addShapes(t *testing.T, doc *canvas.MemoryDocument, specs ...types.ShapeSpec) []string {
	t.Helper()
	ids, err := doc.CreateShapes(specs)
	require.NoError(t, err)
	return ids
}

func circle(x float64) types.ShapeSpec {
	return types.ShapeSpec{Kind: "circle", Bounds: types.Box{X: x, Y: 0, W: 40, H: 40}}
}

func TestQuantitySatisfiedWithExactCount(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	addShapes(t, doc, circle(0), circle(100), circle(200))

	result := NewChecker(nil).Check("draw 3 circles", history.NewStore(nil), doc, nil)

	assert.True(t, result.IsComplete)
	assert.Contains(t, result.Satisfied, "3 circle")
	assert.Empty(t, result.Unsatisfied)
}

func TestQuantityShortfallReportsRemainder(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	addShapes(t, doc, circle(0), circle(100))

	result := NewChecker(nil).Check("draw 3 circles", history.NewStore(nil), doc, nil)

	assert.False(t, result.IsComplete)
	assert.Contains(t, result.Unsatisfied, "need 1 more circle")
}

func TestKeywordAndQuantityCombined(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	addShapes(t, doc,
		types.ShapeSpec{Kind: "rectangle", Text: "door", Bounds: types.Box{X: 0, Y: 0, W: 30, H: 60}},
		types.ShapeSpec{Kind: "rectangle", Text: "window", Bounds: types.Box{X: 50, Y: 0, W: 30, H: 30}},
	)

	result := NewChecker(nil).Check("add a door and 2 windows", history.NewStore(nil), doc, nil)

	assert.False(t, result.IsComplete)
	assert.Contains(t, result.Satisfied, "door")
	assert.Contains(t, result.Unsatisfied, "need 1 more window")
}

func TestLabelIntentVerifiedAgainstShapeText(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	ids := addShapes(t, doc, types.ShapeSpec{Kind: "rectangle", Text: "door", Bounds: types.Box{W: 30, H: 60}})

	hist := history.NewStore(nil)
	hist.AppendAction(types.Action{Kind: types.KindLabel, Intent: "door", ShapeID: ids[0]})

	result := NewChecker(nil).Check("add a door label", hist, doc, nil)
	assert.True(t, result.IsComplete)
	assert.False(t, result.ForceContinuation)
}

func TestLabelIntentUnfulfilledForcesContinuation(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	ids := addShapes(t, doc, types.ShapeSpec{Kind: "rectangle", Bounds: types.Box{W: 30, H: 60}})

	hist := history.NewStore(nil)
	hist.AppendAction(types.Action{Kind: types.KindLabel, Intent: "door", ShapeID: ids[0]})

	result := NewChecker(nil).Check("add a door label", hist, doc, nil)
	assert.False(t, result.IsComplete)
	assert.True(t, result.ForceContinuation)
	require.NotEmpty(t, result.ContinuationReasons)
	assert.Contains(t, result.ContinuationReasons[0], "no text")
}

func TestCreateIntentQuantityRecounted(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	addShapes(t, doc,
		types.ShapeSpec{Kind: "line", Text: "branch", Bounds: types.Box{W: 10, H: 50}},
		types.ShapeSpec{Kind: "line", Text: "branch", Bounds: types.Box{X: 20, W: 10, H: 50}},
	)

	hist := history.NewStore(nil)
	hist.AppendAction(types.Action{Kind: types.KindCreate, Intent: "add 3 branches"})

	result := NewChecker(nil).Check("draw a tree with branches", hist, doc, nil)
	assert.True(t, result.ForceContinuation)
	assert.False(t, result.IsComplete)
	require.NotEmpty(t, result.ContinuationReasons)
	assert.Contains(t, result.ContinuationReasons[0], "2 of 3 branch")
}

func TestCommunicativeKindsNeverForceContinuation(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	hist := history.NewStore(nil)
	hist.AppendAction(types.Action{Kind: types.KindMessage, Intent: "summarize the drawing", Message: "done"})
	hist.AppendAction(types.Action{Kind: types.KindThink, Intent: "plan the layout"})

	result := NewChecker(nil).Check("say hello", hist, doc, nil)
	assert.False(t, result.ForceContinuation)
}

func TestPositionIssueFlaggedBeyondTolerance(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	scope := types.Box{X: 0, Y: 0, W: 200, H: 200}
	addShapes(t, doc,
		types.ShapeSpec{Kind: "circle", Bounds: types.Box{X: 10, Y: 10, W: 40, H: 40}},
		types.ShapeSpec{Kind: "circle", Bounds: types.Box{X: 500, Y: 0, W: 40, H: 40}},
	)

	result := NewChecker(nil).Check("draw 2 circles", history.NewStore(nil), doc, &scope)

	assert.False(t, result.IsComplete)
	require.Len(t, result.PositionIssues, 1)
	assert.Contains(t, result.PositionIssues[0], "340")
}

func TestSlightDriftWithinToleranceIgnored(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	scope := types.Box{X: 0, Y: 0, W: 200, H: 200}
	addShapes(t, doc, types.ShapeSpec{Kind: "circle", Bounds: types.Box{X: 190, Y: 0, W: 40, H: 40}})

	result := NewChecker(nil).Check("draw one circle", history.NewStore(nil), doc, &scope)
	assert.Empty(t, result.PositionIssues)
}

func TestCheckIsIdempotent(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	addShapes(t, doc, circle(0), circle(100))

	hist := history.NewStore(nil)
	hist.AppendPrompt("draw 3 circles", nil)
	hist.AppendAction(types.Action{Kind: types.KindCreate, Intent: "add 2 circles"})

	checker := NewChecker(nil)
	first := checker.Check("draw 3 circles", hist, doc, nil)
	second := checker.Check("draw 3 circles", hist, doc, nil)
	assert.Equal(t, first, second)
	assert.False(t, first.IsComplete)
}

func TestLabelCheckCountsUnlabeledShapes(t *testing.T) {
	doc := canvas.NewMemoryDocument()
	addShapes(t, doc,
		types.ShapeSpec{Kind: "rectangle", Text: "alpha", Bounds: types.Box{W: 40, H: 40}},
		types.ShapeSpec{Kind: "rectangle", Bounds: types.Box{X: 60, W: 40, H: 40}},
	)

	result := NewChecker(nil).Check("label every rectangle", history.NewStore(nil), doc, nil)

	assert.False(t, result.IsComplete)
	assert.Contains(t, result.Unsatisfied, "1 of 2 shapes missing labels")
}

func TestExtractionMemoized(t *testing.T) {
	checker := NewChecker(nil)
	doc := canvas.NewMemoryDocument()
	for i := 0; i < 3; i++ {
		instruction := fmt.Sprintf("draw %d circles", i+1)
		checker.Check(instruction, history.NewStore(nil), doc, nil)
		checker.Check(instruction, history.NewStore(nil), doc, nil)
	}
	// Three distinct instructions, each checked twice: one memo entry apiece.
	assert.Equal(t, 3, checker.memo.Len())
}
