package action

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"easel/internal/canvas"
	"easel/internal/logging"
	"easel/pkg/types"
)

// TodoSink receives todo-list mutations issued by todo actions.
type TodoSink interface {
	UpsertTodo(text string, status types.TodoStatus)
}

// ViewSink receives viewport changes issued by setview actions.
type ViewSink interface {
	SetView(bounds types.Box)
}

// ExecContext carries everything an action hook may touch. It is passed
// explicitly into schema, sanitize, and apply; handlers never reach for
// shared process state.
type ExecContext struct {
	Doc    canvas.Document
	Frame  canvas.OffsetFrame
	Prompt string // originating user prompt, used by contextual sanitizers
	Logger logging.Logger
	Todos  TodoSink // optional
	View   ViewSink // optional
}

// Spec declares one action kind: its structural validation, its contextual
// veto/normalize step, its document effect, and its human-readable summary.
// Sanitize returning nil drops the action silently; Apply only ever runs on
// a finalized, sanitized action.
type Spec struct {
	Kind        types.ActionKind
	Description string
	Schema      func(a types.Action) error
	Sanitize    func(ctx *ExecContext, a types.Action) *types.Action
	Apply       func(ctx *ExecContext, a types.Action) error
	Describe    func(a types.Action) string
}

// Registry maps discriminator values to their specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[types.ActionKind]Spec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[types.ActionKind]Spec)}
}

// Register adds a spec. Re-registering a kind is rejected: existing kinds are
// frozen for consumer compatibility.
func (r *Registry) Register(spec Spec) error {
	if spec.Kind == "" {
		return fmt.Errorf("action spec missing kind")
	}
	if spec.Schema == nil || spec.Apply == nil {
		return fmt.Errorf("action spec %q missing schema or apply", spec.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.Kind]; exists {
		return fmt.Errorf("action kind %q already registered", spec.Kind)
	}
	r.specs[spec.Kind] = spec
	return nil
}

// Lookup returns the spec for kind.
func (r *Registry) Lookup(kind types.ActionKind) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[kind]
	return spec, ok
}

// Kinds returns every registered kind in stable order.
func (r *Registry) Kinds() []types.ActionKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]types.ActionKind, 0, len(r.specs))
	for kind := range r.specs {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Describe renders a one-line summary of an action, falling back to the
// action's intent and kind when the spec has no describe hook.
func (r *Registry) Describe(a types.Action) string {
	if spec, ok := r.Lookup(a.Kind); ok && spec.Describe != nil {
		if summary := spec.Describe(a); summary != "" {
			return summary
		}
	}
	if a.Intent != "" {
		return a.Intent
	}
	return string(a.Kind)
}

// Catalog renders the kind descriptions for inclusion in the system prompt,
// so a newly registered kind reaches the model without further wiring.
func (r *Registry) Catalog() string {
	var b strings.Builder
	for _, kind := range r.Kinds() {
		spec, _ := r.Lookup(kind)
		fmt.Fprintf(&b, "- %s: %s\n", kind, spec.Description)
	}
	return b.String()
}
