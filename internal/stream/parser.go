package stream

import (
	"errors"
	"strings"
	"time"

	"easel/pkg/types"
)

// DefaultMaxParses bounds how many parse attempts a single stream may cost.
// A runaway buffer that keeps growing without ever finalizing trips this cap
// and aborts the stream instead of looping.
const DefaultMaxParses = 10000

// ErrTooManyParses is returned by Feed when the parse-attempt cap is hit.
var ErrTooManyParses = errors.New("stream: parse attempt cap exceeded")

// actionsDoc is the single JSON value the model streams.
type actionsDoc struct {
	Actions []types.Action `json:"actions"`
}

// Parser turns a growing text buffer holding one `{"actions": [...]}`
// document into envelopes. An action is finalized once the array has grown
// past it (a later action has started, or the document closed); the action
// at the cursor is re-emitted incomplete on every growth so callers can
// render live progress.
//
// Guarantees: the cursor only increases, each index is finalized exactly
// once, and envelopes are emitted in source-array order.
type Parser struct {
	buf       strings.Builder
	cursor    int
	last      []types.Action
	slotStart time.Time
	slotOpen  bool
	parses    int
	maxParses int
	now       func() time.Time
}

// NewParser returns a parser with the default parse cap.
func NewParser() *Parser {
	return &Parser{maxParses: DefaultMaxParses, now: time.Now}
}

// NewParserWithLimit returns a parser with a custom parse cap; tests use a
// small cap to exercise the guard.
func NewParserWithLimit(maxParses int) *Parser {
	p := NewParser()
	p.maxParses = maxParses
	return p
}

// Cursor returns how many actions have been finalized so far.
func (p *Parser) Cursor() int {
	return p.cursor
}

// Feed appends delta to the buffer and returns the envelopes revealed by the
// growth: zero or more complete envelopes followed by at most one incomplete
// envelope for the action still being written. A buffer that is not yet
// parseable yields no envelopes and no error.
func (p *Parser) Feed(delta string) ([]types.Envelope, error) {
	p.buf.WriteString(delta)

	p.parses++
	if p.parses > p.maxParses {
		return nil, ErrTooManyParses
	}

	var doc actionsDoc
	ok, rawComplete := decodeBestEffort(p.buf.String(), &doc)
	if !ok {
		return nil, nil
	}
	p.last = doc.Actions

	// Everything the array has moved past is final. When the document itself
	// is complete there is nothing left to grow, so the last action is final
	// too.
	finalized := len(doc.Actions) - 1
	if rawComplete {
		finalized = len(doc.Actions)
	}

	var out []types.Envelope
	for p.cursor < finalized {
		out = append(out, p.finalize(doc.Actions[p.cursor]))
	}

	if p.cursor < len(doc.Actions) {
		out = append(out, p.partial(doc.Actions[p.cursor]))
	}
	return out, nil
}

// Finish force-finalizes the action still in flight when the stream ends
// mid-action, using the last partial data.
func (p *Parser) Finish() []types.Envelope {
	if p.cursor >= len(p.last) {
		return nil
	}
	var out []types.Envelope
	for p.cursor < len(p.last) {
		out = append(out, p.finalize(p.last[p.cursor]))
	}
	return out
}

func (p *Parser) finalize(a types.Action) types.Envelope {
	now := p.now()
	start := now
	if p.slotOpen {
		start = p.slotStart
	}
	env := types.Envelope{
		Index:     p.cursor,
		Action:    a,
		Complete:  true,
		ElapsedMs: now.Sub(start).Milliseconds(),
	}
	p.cursor++
	p.slotOpen = false
	return env
}

func (p *Parser) partial(a types.Action) types.Envelope {
	now := p.now()
	if !p.slotOpen {
		p.slotOpen = true
		p.slotStart = now
	}
	return types.Envelope{
		Index:     p.cursor,
		Action:    a,
		Complete:  false,
		ElapsedMs: now.Sub(p.slotStart).Milliseconds(),
	}
}
