package canvas

import "easel/pkg/types"

// OffsetFrame records the coordinate frame a prompt was authored in. Model
// output and prompt context items are expressed relative to this origin;
// the frame converts them into absolute document coordinates and back so a
// prompt replayed later still refers to the same spot on the canvas.
type OffsetFrame struct {
	OriginX float64
	OriginY float64
}

// ToDocument converts a frame-relative box into document coordinates.
func (f OffsetFrame) ToDocument(b types.Box) types.Box {
	b.X += f.OriginX
	b.Y += f.OriginY
	return b
}

// FromDocument converts a document-space box into this frame.
func (f OffsetFrame) FromDocument(b types.Box) types.Box {
	b.X -= f.OriginX
	b.Y -= f.OriginY
	return b
}

// PointToDocument converts a frame-relative point into document coordinates.
func (f OffsetFrame) PointToDocument(p types.Point) types.Point {
	return types.Point{X: p.X + f.OriginX, Y: p.Y + f.OriginY}
}
