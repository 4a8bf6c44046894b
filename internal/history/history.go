package history

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"easel/pkg/types"
)

// Role tags a replayed message unit.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ItemKind discriminates the history log entries.
type ItemKind string

const (
	ItemPrompt       ItemKind = "prompt"
	ItemAction       ItemKind = "action"
	ItemContinuation ItemKind = "continuation"
)

// Prompt is one user (or scheduled) instruction plus its context references.
type Prompt struct {
	Text    string
	Context []types.ContextItem
}

// Item is one entry in the append-only log. Its index in the log is its
// identity; items are never deleted within a run.
type Item struct {
	Kind         ItemKind
	Prompt       *Prompt
	Action       *types.Action
	Continuation string
}

// Message is one role-tagged unit handed to the model. Lower priority sorts
// earlier; the replay is deterministic for a given log.
type Message struct {
	Role     Role
	Content  string
	Priority int
}

// Replay priorities. History sorts first so the model reads it as context;
// the recent-actions digest sorts last so the model sees it immediately
// before answering.
const (
	priorityHistory = 0
	priorityDigest  = 100
)

// digestSize is how many trailing action items the repetition-suppression
// digest covers.
const digestSize = 15

// Store is the append-only, ordered chat log for one session.
type Store struct {
	mu       sync.RWMutex
	items    []Item
	describe func(types.Action) string
}

// NewStore returns an empty store. describe renders an action summary for
// the digest when the action carries no intent; nil falls back to the kind.
func NewStore(describe func(types.Action) string) *Store {
	if describe == nil {
		describe = func(a types.Action) string { return string(a.Kind) }
	}
	return &Store{describe: describe}
}

// AppendPrompt records a new instruction. Returns the item's log index.
func (s *Store) AppendPrompt(text string, context []types.ContextItem) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, Item{Kind: ItemPrompt, Prompt: &Prompt{Text: text, Context: context}})
	return len(s.items) - 1
}

// AppendAction records a completed action. The store owns the action for the
// remainder of the session.
func (s *Store) AppendAction(a types.Action) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, Item{Kind: ItemAction, Action: &a})
	return len(s.items) - 1
}

// AppendContinuation records opaque data attached by a scheduled follow-up.
func (s *Store) AppendContinuation(data string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, Item{Kind: ItemContinuation, Continuation: data})
	return len(s.items) - 1
}

// Len returns the log length.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns a snapshot of the log.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Actions returns every completed action in log order.
func (s *Store) Actions() []types.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Action
	for _, item := range s.items {
		if item.Kind == ItemAction {
			out = append(out, *item.Action)
		}
	}
	return out
}

// LatestPrompt returns the text of the most recent prompt, or "".
func (s *Store) LatestPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].Kind == ItemPrompt {
			return s.items[i].Prompt.Text
		}
	}
	return ""
}

// BuildMessages replays the log into priority-ordered message units. The
// most recent prompt is omitted: it is the turn currently being answered and
// the caller sends it separately. The digest of recent actions is appended
// with the highest priority so it lands at the end.
func (s *Store) BuildMessages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	openPrompt := -1
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].Kind == ItemPrompt {
			openPrompt = i
			break
		}
	}

	var messages []Message
	for i, item := range s.items {
		if i == openPrompt {
			continue
		}
		switch item.Kind {
		case ItemPrompt:
			messages = append(messages, Message{
				Role:     RoleUser,
				Content:  renderPrompt(item.Prompt),
				Priority: priorityHistory,
			})
		case ItemAction:
			messages = append(messages, Message{
				Role:     RoleAssistant,
				Content:  fmt.Sprintf("took action %s: %s", item.Action.Kind, s.describe(*item.Action)),
				Priority: priorityHistory,
			})
		case ItemContinuation:
			messages = append(messages, Message{
				Role:     RoleSystem,
				Content:  "retrieved context: " + item.Continuation,
				Priority: priorityHistory,
			})
		}
	}

	if digest := s.digestLocked(); digest != "" {
		messages = append(messages, Message{
			Role:     RoleSystem,
			Content:  digest,
			Priority: priorityDigest,
		})
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Priority < messages[j].Priority
	})
	return messages
}

// Digest returns the recent-actions summary used to curb repetition.
func (s *Store) Digest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.digestLocked()
}

func (s *Store) digestLocked() string {
	type indexed struct {
		logIndex int
		action   *types.Action
	}
	var recent []indexed
	for i := len(s.items) - 1; i >= 0 && len(recent) < digestSize; i-- {
		if s.items[i].Kind == ItemAction {
			recent = append(recent, indexed{logIndex: i, action: s.items[i].Action})
		}
	}
	if len(recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Actions you already took (do not repeat them):\n")
	for i := len(recent) - 1; i >= 0; i-- {
		entry := recent[i]
		summary := entry.action.Intent
		if summary == "" {
			summary = s.describe(*entry.action)
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", entry.logIndex, entry.action.Kind, summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPrompt(p *Prompt) string {
	if len(p.Context) == 0 {
		return p.Text
	}
	var b strings.Builder
	b.WriteString(p.Text)
	for _, item := range p.Context {
		b.WriteString("\n[context from ")
		b.WriteString(item.Source)
		if item.Bounds != nil {
			fmt.Fprintf(&b, ": area (%.0f, %.0f, %.0f, %.0f)", item.Bounds.X, item.Bounds.Y, item.Bounds.W, item.Bounds.H)
		}
		if len(item.ShapeIDs) > 0 {
			fmt.Fprintf(&b, ": shapes %s", strings.Join(item.ShapeIDs, ", "))
		}
		fmt.Fprintf(&b, " at offset (%.0f, %.0f)]", item.OffsetX, item.OffsetY)
	}
	return b.String()
}
