package canvas

import (
	"sync"

	"easel/internal/utils/id"
	"easel/pkg/types"
)

// ChangeKind labels one document mutation.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change is pushed to subscribers after every mutation.
type Change struct {
	Kind     ChangeKind
	ShapeIDs []string
}

// MemoryDocument is an in-memory Document used by the one-shot CLI, the
// HTTP server's default canvas, and tests. Mutations are pushed to
// subscribers rather than observed by polling.
type MemoryDocument struct {
	mu     sync.RWMutex
	shapes map[string]types.Shape
	order  []string
	subs   map[chan Change]struct{}
}

// NewMemoryDocument returns an empty in-memory document.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{
		shapes: make(map[string]types.Shape),
		subs:   make(map[chan Change]struct{}),
	}
}

// Subscribe registers a change feed. The returned cancel func must be called
// when the subscriber is done; a slow subscriber misses changes rather than
// blocking mutations.
func (d *MemoryDocument) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 64)
	d.mu.Lock()
	d.subs[ch] = struct{}{}
	d.mu.Unlock()

	cancel := func() {
		d.mu.Lock()
		delete(d.subs, ch)
		d.mu.Unlock()
	}
	return ch, cancel
}

func (d *MemoryDocument) notify(change Change) {
	for ch := range d.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// ListShapes implements Document.
func (d *MemoryDocument) ListShapes(bounds *types.Box) []types.Shape {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]types.Shape, 0, len(d.order))
	for _, shapeID := range d.order {
		shape := d.shapes[shapeID]
		if bounds != nil && !bounds.Intersects(shape.Bounds) {
			continue
		}
		out = append(out, shape)
	}
	return out
}

// GetBounds implements Document.
func (d *MemoryDocument) GetBounds(shapeID string) (types.Box, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	shape, ok := d.shapes[shapeID]
	if !ok {
		return types.Box{}, ErrShapeNotFound
	}
	return shape.Bounds, nil
}

// CreateShapes implements Document.
func (d *MemoryDocument) CreateShapes(specs []types.ShapeSpec) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, len(specs))
	for _, spec := range specs {
		shapeID := id.NewShapeID()
		d.shapes[shapeID] = types.Shape{
			ID:     shapeID,
			Kind:   spec.Kind,
			Text:   spec.Text,
			Bounds: spec.Bounds,
		}
		d.order = append(d.order, shapeID)
		ids = append(ids, shapeID)
	}
	d.notify(Change{Kind: ChangeCreated, ShapeIDs: ids})
	return ids, nil
}

// UpdateShape implements Document.
func (d *MemoryDocument) UpdateShape(shapeID string, patch types.ShapePatch) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	shape, ok := d.shapes[shapeID]
	if !ok {
		return ErrShapeNotFound
	}
	if patch.Text != nil {
		shape.Text = *patch.Text
	}
	if patch.X != nil {
		shape.Bounds.X = *patch.X
	}
	if patch.Y != nil {
		shape.Bounds.Y = *patch.Y
	}
	if patch.W != nil {
		shape.Bounds.W = *patch.W
	}
	if patch.H != nil {
		shape.Bounds.H = *patch.H
	}
	d.shapes[shapeID] = shape
	d.notify(Change{Kind: ChangeUpdated, ShapeIDs: []string{shapeID}})
	return nil
}

// DeleteShapes implements Document.
func (d *MemoryDocument) DeleteShapes(ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	deleted := make([]string, 0, len(ids))
	for _, shapeID := range ids {
		if _, ok := d.shapes[shapeID]; !ok {
			continue
		}
		delete(d.shapes, shapeID)
		deleted = append(deleted, shapeID)
	}
	if len(deleted) == 0 {
		return nil
	}

	remaining := d.order[:0]
	for _, shapeID := range d.order {
		if _, ok := d.shapes[shapeID]; ok {
			remaining = append(remaining, shapeID)
		}
	}
	d.order = remaining
	d.notify(Change{Kind: ChangeDeleted, ShapeIDs: deleted})
	return nil
}

// ExtractText implements Document.
func (d *MemoryDocument) ExtractText(shapeID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	shape, ok := d.shapes[shapeID]
	if !ok {
		return "", ErrShapeNotFound
	}
	return shape.Text, nil
}
