package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easel/pkg/types"
)

func TestCreateListAndBoundsFilter(t *testing.T) {
	doc := NewMemoryDocument()

	ids, err := doc.CreateShapes([]types.ShapeSpec{
		{Kind: "rectangle", Text: "door", Bounds: types.Box{X: 0, Y: 0, W: 40, H: 80}},
		{Kind: "ellipse", Text: "window", Bounds: types.Box{X: 500, Y: 500, W: 30, H: 30}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	all := doc.ListShapes(nil)
	assert.Len(t, all, 2)

	scope := types.Box{X: 0, Y: 0, W: 100, H: 100}
	inScope := doc.ListShapes(&scope)
	require.Len(t, inScope, 1)
	assert.Equal(t, "door", inScope[0].Text)
}

func TestUpdateAndExtractText(t *testing.T) {
	doc := NewMemoryDocument()
	ids, err := doc.CreateShapes([]types.ShapeSpec{
		{Kind: "rectangle", Bounds: types.Box{W: 10, H: 10}},
	})
	require.NoError(t, err)

	label := "kitchen"
	x := 25.0
	require.NoError(t, doc.UpdateShape(ids[0], types.ShapePatch{Text: &label, X: &x}))

	text, err := doc.ExtractText(ids[0])
	require.NoError(t, err)
	assert.Equal(t, "kitchen", text)

	bounds, err := doc.GetBounds(ids[0])
	require.NoError(t, err)
	assert.Equal(t, 25.0, bounds.X)

	err = doc.UpdateShape("shape-missing", types.ShapePatch{Text: &label})
	assert.ErrorIs(t, err, ErrShapeNotFound)
}

func TestDeleteIgnoresUnknownIDs(t *testing.T) {
	doc := NewMemoryDocument()
	ids, err := doc.CreateShapes([]types.ShapeSpec{
		{Kind: "rectangle", Bounds: types.Box{W: 10, H: 10}},
	})
	require.NoError(t, err)

	require.NoError(t, doc.DeleteShapes([]string{ids[0], "shape-missing"}))
	assert.Empty(t, doc.ListShapes(nil))
}

func TestSubscribeReceivesChanges(t *testing.T) {
	doc := NewMemoryDocument()
	feed, cancel := doc.Subscribe()
	defer cancel()

	ids, err := doc.CreateShapes([]types.ShapeSpec{{Kind: "ellipse", Bounds: types.Box{W: 5, H: 5}}})
	require.NoError(t, err)

	change := <-feed
	assert.Equal(t, ChangeCreated, change.Kind)
	assert.Equal(t, ids, change.ShapeIDs)

	require.NoError(t, doc.DeleteShapes(ids))
	change = <-feed
	assert.Equal(t, ChangeDeleted, change.Kind)
}

func TestOffsetFrameRoundTrip(t *testing.T) {
	frame := OffsetFrame{OriginX: 100, OriginY: -50}
	box := types.Box{X: 10, Y: 20, W: 30, H: 40}

	docBox := frame.ToDocument(box)
	assert.Equal(t, 110.0, docBox.X)
	assert.Equal(t, -30.0, docBox.Y)
	assert.Equal(t, box, frame.FromDocument(docBox))
}
