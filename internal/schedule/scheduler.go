package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"easel/internal/action"
	"easel/internal/canvas"
	"easel/internal/dispatch"
	"easel/internal/history"
	"easel/internal/llm"
	"easel/internal/logging"
	"easel/internal/review"
	"easel/internal/stream"
	"easel/internal/utils/id"
	"easel/pkg/types"
)

// ErrBusy is returned by Prompt while another run is streaming. One active
// generation per scheduler: no two applies may race against the same
// document.
var ErrBusy = errors.New("schedule: a run is already in progress")

const (
	defaultMaxTurns = 4

	// remediationCap bounds how many todo items a failed verification pass
	// may force onto the backlog before the next turn.
	remediationCap = 3

	// followUpMargin grows the scope box handed to a scheduled follow-up so
	// the model can see slightly beyond the area it was asked to fix.
	followUpMargin = 100.0
)

// Emit receives every envelope revealed during a run, in stream order.
// Incomplete envelopes expose live progress; complete ones have already been
// through the dispatcher by the time Emit returns.
type Emit func(types.Envelope)

// RunResult summarizes one finished (or cancelled) run.
type RunResult struct {
	RunID   string                      `json:"runId"`
	Turns   int                         `json:"turns"`
	Applied int                         `json:"applied"`
	Verdict types.CompletionCheckResult `json:"verdict"`
	Todos   []types.TodoItem            `json:"todos,omitempty"`
}

// turnSlot is the single pending follow-up turn. A new schedule request that
// overlaps the pending slot is merged by bounding-box union; a disjoint one
// replaces it.
type turnSlot struct {
	message string
	bounds  *types.Box
}

func (s *turnSlot) merge(message string, bounds *types.Box) {
	if s.message == "" {
		s.message = message
		s.bounds = bounds
		return
	}
	if s.bounds != nil && bounds != nil && s.bounds.Intersects(*bounds) {
		union := s.bounds.Union(*bounds)
		s.bounds = &union
		s.message = s.message + "\n" + message
		return
	}
	s.message = message
	s.bounds = bounds
}

// viewState implements action.ViewSink: setview actions move the agent's
// working viewport, which seeds the scope of subsequent verification passes.
type viewState struct {
	mu     sync.Mutex
	bounds *types.Box
}

func (v *viewState) SetView(b types.Box) {
	v.mu.Lock()
	v.bounds = &b
	v.mu.Unlock()
}

func (v *viewState) Bounds() *types.Box {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bounds == nil {
		return nil
	}
	b := *v.bounds
	return &b
}

// Scheduler owns the agent run loop: it opens turns, pipes the model stream
// through the parser and dispatcher, runs the completion checker, and decides
// whether the instruction is actually done.
type Scheduler struct {
	streamer llm.Streamer
	registry *action.Registry
	doc      canvas.Document
	checker  *review.Checker
	logger   logging.Logger
	maxTurns int

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc

	view viewState
}

// Option tweaks scheduler construction.
type Option func(*Scheduler)

// WithMaxTurns overrides the turn cap for one run.
func WithMaxTurns(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

// New returns a scheduler driving doc through streamer.
func New(streamer llm.Streamer, registry *action.Registry, doc canvas.Document, logger logging.Logger, opts ...Option) *Scheduler {
	logger = logging.OrNop(logger)
	s := &Scheduler{
		streamer: streamer,
		registry: registry,
		doc:      doc,
		checker:  review.NewChecker(logger),
		logger:   logger,
		maxTurns: defaultMaxTurns,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cancel stops the active run before the next delta is processed. Actions
// already applied stay applied; the action still streaming is never applied.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) acquire(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil, ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.active = true
	s.cancel = cancel
	return runCtx, nil
}

func (s *Scheduler) release() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.active = false
	s.cancel = nil
	s.mu.Unlock()
}

// Prompt runs one instruction to completion (or cancellation). emit, when
// non-nil, receives every envelope in order. Prompt is synchronous; a second
// call while one is in flight returns ErrBusy.
func (s *Scheduler) Prompt(ctx context.Context, text string, contextItems []types.ContextItem, emit Emit) (*RunResult, error) {
	runCtx, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release()
	if emit == nil {
		emit = func(types.Envelope) {}
	}

	run := &runState{
		scheduler: s,
		runID:     id.NewRunID(),
		prompt:    text,
		hist:      history.NewStore(s.registry.Describe),
		todos:     NewTodoList(),
		emit:      emit,
	}
	s.logger.Info("run %s: %q", run.runID, text)
	return run.loop(runCtx, contextItems)
}

// runState is everything owned by one run.
type runState struct {
	scheduler *Scheduler
	runID     string
	prompt    string
	hist      *history.Store
	todos     *TodoList
	emit      Emit

	applied    int
	sawMessage bool
	lastCursor int
}

func (r *runState) loop(ctx context.Context, contextItems []types.ContextItem) (*RunResult, error) {
	s := r.scheduler
	result := &RunResult{RunID: r.runID}

	turnPrompt := r.prompt
	turnContext := contextItems
	scope := contextBounds(contextItems)

	for turn := 1; turn <= s.maxTurns; turn++ {
		result.Turns = turn
		r.hist.AppendPrompt(turnPrompt, turnContext)

		if err := r.streamTurn(ctx, turnPrompt); err != nil {
			result.Applied = r.applied
			result.Todos = r.todos.Items()
			if errors.Is(err, context.Canceled) {
				s.logger.Info("run %s cancelled after %d applied actions", r.runID, r.applied)
				return result, err
			}
			s.logger.Error("run %s turn %d failed: %v", r.runID, turn, err)
			return result, err
		}

		if scope == nil {
			scope = s.view.Bounds()
		}
		verdict := s.checker.Check(r.prompt, r.hist, s.doc, scope)
		result.Verdict = verdict

		if verdict.IsComplete || turn == s.maxTurns {
			break
		}

		slot := r.scheduleFollowUp(verdict, scope)
		turnPrompt = slot.message
		turnContext = nil
		scope = slot.bounds
	}

	r.finishRun(result)
	result.Applied = r.applied
	result.Todos = r.todos.Items()
	return result, nil
}

// streamTurn runs one model call, feeding every delta through the parser and
// dispatching finalized actions synchronously with parse-yield.
func (r *runState) streamTurn(ctx context.Context, turnPrompt string) error {
	s := r.scheduler
	parser := stream.NewParser()
	execCtx := &action.ExecContext{
		Doc:    s.doc,
		Prompt: r.prompt,
		Logger: s.logger,
		Todos:  r.todos,
		View:   &s.view,
	}
	dispatcher := dispatch.New(s.registry, execCtx, s.logger)

	req := llm.Request{
		System:   SystemPrompt(s.registry),
		Messages: toLLMMessages(r.hist.BuildMessages()),
		Prompt:   turnPrompt,
	}

	err := s.streamer.Stream(ctx, req, func(delta string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		envs, err := parser.Feed(delta)
		if err != nil {
			return err
		}
		r.deliver(dispatcher, envs)
		return nil
	})
	if err != nil {
		// No force-finalize on an aborted stream: a pending incomplete
		// action must never be applied after cancel or transport failure.
		return err
	}

	r.deliver(dispatcher, parser.Finish())
	r.lastCursor = parser.Cursor()
	return nil
}

func (r *runState) deliver(dispatcher *dispatch.Dispatcher, envs []types.Envelope) {
	for _, env := range envs {
		if !env.Complete {
			r.emit(env)
			continue
		}
		res, handled := dispatcher.Handle(env)
		if handled && res.Outcome == dispatch.OutcomeApplied {
			r.applied++
			r.hist.AppendAction(res.Action)
			if res.Action.Kind == types.KindMessage {
				r.sawMessage = true
			}
		}
		r.emit(env)
	}
}

// scheduleFollowUp converts a failed verdict into the next turn: bounded
// remediation todos plus a continuation prompt seeded with the findings.
func (r *runState) scheduleFollowUp(verdict types.CompletionCheckResult, scope *types.Box) *turnSlot {
	reasons := append([]string{}, verdict.ContinuationReasons...)
	reasons = append(reasons, verdict.Unsatisfied...)

	added := 0
	for _, reason := range reasons {
		if added == remediationCap {
			break
		}
		r.todos.UpsertTodo(reason, types.TodoPending)
		added++
	}

	findings := strings.Join(reasons, "; ")
	r.hist.AppendContinuation("verification findings: " + findings)

	var bounds *types.Box
	if scope != nil {
		expanded := scope.Expanded(followUpMargin)
		bounds = &expanded
	}

	slot := &turnSlot{}
	message := "The task is not finished. Address the following:\n" + findings
	if backlog := r.todos.Render(); backlog != "" {
		message += "\n" + backlog
	}
	slot.merge(message, bounds)
	r.scheduler.logger.Info("run %s: scheduling follow-up turn (%d findings)", r.runID, len(reasons))
	return slot
}

// finishRun guarantees the run ends with a visible message: if the model
// never issued one, a synthesized summary envelope is emitted.
func (r *runState) finishRun(result *RunResult) {
	if r.sawMessage {
		return
	}
	summary := fmt.Sprintf("Applied %d actions.", r.applied)
	if !result.Verdict.IsComplete && len(result.Verdict.Unsatisfied) > 0 {
		summary += " Still unsatisfied: " + strings.Join(result.Verdict.Unsatisfied, "; ")
	}
	msg := types.Action{Kind: types.KindMessage, Message: summary}
	r.hist.AppendAction(msg)
	r.emit(types.Envelope{Index: r.lastCursor, Action: msg, Complete: true})
}

func toLLMMessages(msgs []history.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func contextBounds(items []types.ContextItem) *types.Box {
	var union *types.Box
	for _, item := range items {
		if item.Bounds == nil {
			continue
		}
		if union == nil {
			b := *item.Bounds
			union = &b
			continue
		}
		merged := union.Union(*item.Bounds)
		union = &merged
	}
	return union
}
