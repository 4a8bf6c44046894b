package types

// Box is an axis-aligned bounding box in document coordinates.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Union returns the smallest box covering both b and other.
func (b Box) Union(other Box) Box {
	minX := min(b.X, other.X)
	minY := min(b.Y, other.Y)
	maxX := max(b.X+b.W, other.X+other.W)
	maxY := max(b.Y+b.H, other.Y+other.H)
	return Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Expanded returns the box grown by margin on every side.
func (b Box) Expanded(margin float64) Box {
	return Box{X: b.X - margin, Y: b.Y - margin, W: b.W + 2*margin, H: b.H + 2*margin}
}

// Intersects reports whether b and other overlap.
func (b Box) Intersects(other Box) bool {
	return b.X < other.X+other.W && other.X < b.X+b.W &&
		b.Y < other.Y+other.H && other.Y < b.Y+b.H
}

// Contains reports whether inner lies entirely within b.
func (b Box) Contains(inner Box) bool {
	return inner.X >= b.X && inner.Y >= b.Y &&
		inner.X+inner.W <= b.X+b.W && inner.Y+inner.H <= b.Y+b.H
}

// DistanceOutside returns how far inner protrudes beyond b on its worst axis,
// or 0 when b contains inner.
func (b Box) DistanceOutside(inner Box) float64 {
	var d float64
	d = max(d, b.X-inner.X)
	d = max(d, b.Y-inner.Y)
	d = max(d, (inner.X+inner.W)-(b.X+b.W))
	d = max(d, (inner.Y+inner.H)-(b.Y+b.H))
	return max(d, 0)
}

// Shape is the engine's read view of one drawable element.
type Shape struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Text   string `json:"text,omitempty"`
	Bounds Box    `json:"bounds"`
}

// ShapeSpec describes a shape to be created.
type ShapeSpec struct {
	Kind   string `json:"kind"`
	Text   string `json:"text,omitempty"`
	Bounds Box    `json:"bounds"`
}

// ShapePatch is a partial update applied to an existing shape. Nil fields are
// left untouched.
type ShapePatch struct {
	Text *string `json:"text,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
	W    *float64 `json:"w,omitempty"`
	H    *float64 `json:"h,omitempty"`
}
