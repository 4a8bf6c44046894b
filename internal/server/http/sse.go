package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"easel/internal/schedule"
	"easel/pkg/types"
)

type promptRequest struct {
	Prompt  string              `json:"prompt"`
	Context []types.ContextItem `json:"context,omitempty"`
}

// handlePrompt runs one agent turn and streams every envelope to the caller
// as Server-Sent Events. The stream ends with a done event carrying the run
// summary, or with a JSON error payload; either way the connection closes.
func (s *Server) handlePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	streaming := false
	start := func() {
		if streaming {
			return
		}
		streaming = true
		header := c.Writer.Header()
		header.Set("Content-Type", "text/event-stream")
		header.Set("Cache-Control", "no-cache")
		header.Set("Connection", "keep-alive")
		header.Set("X-Accel-Buffering", "no")
		c.Writer.WriteHeader(http.StatusOK)
	}

	emit := func(env types.Envelope) {
		start()
		data, err := json.Marshal(env)
		if err != nil {
			s.logger.Error("sse: marshal envelope %d: %v", env.Index, err)
			return
		}
		_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		c.Writer.Flush()
	}

	result, err := s.sched.Prompt(c.Request.Context(), req.Prompt, req.Context, emit)
	if err != nil {
		if errors.Is(err, schedule.ErrBusy) && !streaming {
			c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
			return
		}
		if errors.Is(err, context.Canceled) {
			s.logger.Info("sse: run cancelled by client")
		}
		start()
		s.writeErrorEvent(c.Writer, err)
		return
	}

	start()
	s.writeDoneEvent(c.Writer, result)
}

// writeErrorEvent terminates the stream with a JSON error payload. The
// connection must always reach a close: if even the payload cannot be built,
// a minimal plain-text body goes out instead.
func (s *Server) writeErrorEvent(w gin.ResponseWriter, runErr error) {
	defer func() {
		if recover() != nil {
			_, _ = w.WriteString("data: stream error\n\n")
			w.Flush()
		}
	}()

	payload, err := json.Marshal(gin.H{"error": "agent run failed", "details": runErr.Error()})
	if err != nil {
		_, _ = w.WriteString("data: {\"error\":\"agent run failed\"}\n\n")
	} else {
		_, _ = fmt.Fprintf(w, "data: %s\n\n", payload)
	}
	w.Flush()
}

func (s *Server) writeDoneEvent(w gin.ResponseWriter, result *schedule.RunResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.writeErrorEvent(w, err)
		return
	}
	_, _ = fmt.Fprintf(w, "event: done\ndata: %s\n\n", payload)
	w.Flush()
}
