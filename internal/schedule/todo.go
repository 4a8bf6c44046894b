package schedule

import (
	"strings"
	"sync"

	"easel/pkg/types"
)

// TodoList is the per-run backlog. The agent mutates it through todo actions;
// the scheduler force-adds remediation items when a verification pass fails.
type TodoList struct {
	mu    sync.Mutex
	items []types.TodoItem
}

// NewTodoList returns an empty backlog.
func NewTodoList() *TodoList {
	return &TodoList{}
}

// UpsertTodo updates the status of an existing item with the same text, or
// appends a new one. Matching is case-insensitive on trimmed text.
func (l *TodoList) UpsertTodo(text string, status types.TodoStatus) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, item := range l.items {
		if strings.EqualFold(item.Text, text) {
			l.items[i].Status = status
			return
		}
	}
	l.items = append(l.items, types.TodoItem{Text: text, Status: status})
}

// Items returns a snapshot of the backlog in insertion order.
func (l *TodoList) Items() []types.TodoItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.TodoItem, len(l.items))
	copy(out, l.items)
	return out
}

// OpenCount returns how many items are not yet done.
func (l *TodoList) OpenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	open := 0
	for _, item := range l.items {
		if item.Status != types.TodoDone {
			open++
		}
	}
	return open
}

// Render lists the backlog one item per line for inclusion in a follow-up
// prompt. Empty when there is no backlog.
func (l *TodoList) Render() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Outstanding todo items:\n")
	for _, item := range l.items {
		b.WriteString("- [")
		b.WriteString(string(item.Status))
		b.WriteString("] ")
		b.WriteString(item.Text)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
