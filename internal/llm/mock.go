package llm

import "context"

// ScriptedStreamer replays a fixed sequence of deltas. Used by scheduler and
// server tests; Err, when set, is returned after the chunks so failure paths
// can be exercised too.
type ScriptedStreamer struct {
	Chunks []string
	Err    error

	// Requests records every request seen, newest last.
	Requests []Request
}

// Stream implements Streamer.
func (s *ScriptedStreamer) Stream(ctx context.Context, req Request, onDelta func(string) error) error {
	s.Requests = append(s.Requests, req)
	for _, chunk := range s.Chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onDelta(chunk); err != nil {
			return err
		}
	}
	return s.Err
}

// StreamerFunc adapts a function to the Streamer interface.
type StreamerFunc func(ctx context.Context, req Request, onDelta func(string) error) error

// Stream implements Streamer.
func (f StreamerFunc) Stream(ctx context.Context, req Request, onDelta func(string) error) error {
	return f(ctx, req, onDelta)
}
