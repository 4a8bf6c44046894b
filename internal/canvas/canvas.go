package canvas

import (
	"errors"

	"easel/pkg/types"
)

// ErrShapeNotFound is returned when an operation targets a shape id that is
// not present in the document.
var ErrShapeNotFound = errors.New("shape not found")

// Document is the capability interface through which the engine observes and
// mutates the shared canvas. The engine never assumes more than this; the
// live editing surface provides its own implementation.
type Document interface {
	// ListShapes returns every shape, optionally restricted to those
	// intersecting bounds.
	ListShapes(bounds *types.Box) []types.Shape
	// GetBounds returns the bounding box of one shape.
	GetBounds(id string) (types.Box, error)
	// CreateShapes adds shapes and returns their assigned ids in order.
	CreateShapes(specs []types.ShapeSpec) ([]string, error)
	// UpdateShape applies a partial update to one shape.
	UpdateShape(id string, patch types.ShapePatch) error
	// DeleteShapes removes the given shapes. Unknown ids are ignored.
	DeleteShapes(ids []string) error
	// ExtractText returns the human-readable text of a shape, or "" when it
	// has none.
	ExtractText(id string) (string, error)
}
