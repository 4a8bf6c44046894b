package stream

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// closeBuffer appends whatever closing tokens turn buf into the shortest
// valid JSON prefix: an unterminated string is closed, a dangling comma is
// trimmed, a dangling colon gets a null value, and open brackets are closed
// in reverse order. It reports false when buf cannot be a JSON prefix at all
// (mismatched brackets) or is empty.
func closeBuffer(buf string) (string, bool) {
	if strings.TrimSpace(buf) == "" {
		return "", false
	}

	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(buf); i++ {
		c := buf[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) == 0 || stack[len(stack)-1] != '{' {
				return "", false
			}
			stack = stack[:len(stack)-1]
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return "", false
			}
			stack = stack[:len(stack)-1]
		}
	}

	closed := buf
	if inString {
		if escaped {
			closed = closed[:len(closed)-1]
		}
		closed += `"`
	} else {
		trimmed := strings.TrimRight(closed, " \t\r\n")
		switch {
		case strings.HasSuffix(trimmed, ","):
			closed = strings.TrimSuffix(trimmed, ",")
		case strings.HasSuffix(trimmed, ":"):
			closed = trimmed + " null"
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			closed += "}"
		} else {
			closed += "]"
		}
	}
	return closed, true
}

// decodeBestEffort parses buf into v, trying the raw buffer first, then the
// balanced prefix, then a jsonrepair pass for truncations the balancer does
// not model (dangling keys, broken numbers). rawComplete reports that buf was
// already a whole JSON document on its own.
func decodeBestEffort(buf string, v any) (ok bool, rawComplete bool) {
	if err := json.Unmarshal([]byte(buf), v); err == nil {
		return true, true
	}
	if closed, closable := closeBuffer(buf); closable {
		if err := json.Unmarshal([]byte(closed), v); err == nil {
			return true, false
		}
	}
	repaired, err := jsonrepair.JSONRepair(buf)
	if err != nil {
		return false, false
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return false, false
	}
	return true, false
}
