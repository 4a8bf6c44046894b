package llm

import "context"

// Message is one role-tagged chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one model turn: the action-schema system prompt, the replayed
// history, and the prompt currently being answered.
type Request struct {
	System   string
	Messages []Message
	Prompt   string
}

// Streamer produces the model's answer as an ordered sequence of UTF-8 text
// deltas. onDelta returning an error stops the stream; the error is returned
// unchanged so callers can distinguish their own abort from transport
// failures.
type Streamer interface {
	Stream(ctx context.Context, req Request, onDelta func(delta string) error) error
}
