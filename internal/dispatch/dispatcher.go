package dispatch

import (
	"fmt"

	"easel/internal/action"
	"easel/internal/logging"
	"easel/pkg/types"
)

// Outcome is the terminal state of one finalized action.
type Outcome string

const (
	OutcomeApplied       Outcome = "applied"
	OutcomeDroppedSchema Outcome = "dropped-schema"
	OutcomeDroppedVeto   Outcome = "dropped-veto"
	OutcomeDroppedApply  Outcome = "dropped-apply"
)

// Result records what happened to one cursor slot.
type Result struct {
	Index   int
	Action  types.Action
	Outcome Outcome
	Err     error // non-nil for schema and apply failures
}

// Dispatcher validates, sanitizes, and applies finalized actions against the
// document. It guarantees single delivery per cursor slot: an index that has
// been handled once is never applied again, and incomplete envelopes never
// cause side effects.
//
// Failure policy: schema violations and apply errors are logged and isolated
// to the one action; a panicking sanitize hook is treated as a veto. Nothing
// the dispatcher does aborts the stream.
type Dispatcher struct {
	registry *action.Registry
	ctx      *action.ExecContext
	logger   logging.Logger
	handled  map[int]Outcome
	results  []Result
}

// New returns a dispatcher bound to one run's execution context.
func New(registry *action.Registry, ctx *action.ExecContext, logger logging.Logger) *Dispatcher {
	logger = logging.OrNop(logger)
	if ctx.Logger == nil {
		ctx.Logger = logger
	}
	return &Dispatcher{
		registry: registry,
		ctx:      ctx,
		logger:   logger,
		handled:  make(map[int]Outcome),
	}
}

// Handle processes one envelope. Incomplete envelopes are progress reports
// only and return a zero Result with applied=false; finalized envelopes run
// schema → sanitize → apply exactly once for their slot.
func (d *Dispatcher) Handle(env types.Envelope) (Result, bool) {
	if !env.Complete {
		return Result{}, false
	}
	if outcome, seen := d.handled[env.Index]; seen {
		d.logger.Warn("duplicate delivery for slot %d ignored (already %s)", env.Index, outcome)
		return Result{}, false
	}

	result := d.dispatch(env)
	d.handled[env.Index] = result.Outcome
	d.results = append(d.results, result)
	return result, true
}

func (d *Dispatcher) dispatch(env types.Envelope) Result {
	a := env.Action
	result := Result{Index: env.Index, Action: a}

	spec, ok := d.registry.Lookup(a.Kind)
	if !ok {
		result.Outcome = OutcomeDroppedSchema
		result.Err = fmt.Errorf("unknown action kind %q", a.Kind)
		d.logger.Warn("slot %d: %v", env.Index, result.Err)
		return result
	}

	if err := spec.Schema(a); err != nil {
		result.Outcome = OutcomeDroppedSchema
		result.Err = err
		d.logger.Warn("slot %d: schema rejected %s action: %v", env.Index, a.Kind, err)
		return result
	}

	sanitized, vetoed := d.sanitize(spec, a)
	if vetoed {
		result.Outcome = OutcomeDroppedVeto
		d.logger.Debug("slot %d: %s action vetoed by sanitize", env.Index, a.Kind)
		return result
	}
	result.Action = sanitized

	if err := d.apply(spec, sanitized); err != nil {
		result.Outcome = OutcomeDroppedApply
		result.Err = err
		d.logger.Error("slot %d: applying %s action failed: %v", env.Index, a.Kind, err)
		return result
	}

	result.Outcome = OutcomeApplied
	return result
}

// sanitize runs the veto hook; a panic inside it counts as a veto, not a
// stream failure.
func (d *Dispatcher) sanitize(spec action.Spec, a types.Action) (out types.Action, vetoed bool) {
	if spec.Sanitize == nil {
		return a, false
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("sanitize for %s panicked, treating as veto: %v", a.Kind, r)
			vetoed = true
		}
	}()
	sanitized := spec.Sanitize(d.ctx, a)
	if sanitized == nil {
		return a, true
	}
	return *sanitized, false
}

func (d *Dispatcher) apply(spec action.Spec, a types.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("apply for %s panicked: %v", a.Kind, r)
		}
	}()
	return spec.Apply(d.ctx, a)
}

// Results returns every terminal result in dispatch order.
func (d *Dispatcher) Results() []Result {
	return d.results
}

// AppliedCount returns how many actions reached the applied state.
func (d *Dispatcher) AppliedCount() int {
	count := 0
	for _, r := range d.results {
		if r.Outcome == OutcomeApplied {
			count++
		}
	}
	return count
}
