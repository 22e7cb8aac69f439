package transcript

// Container caps. Decisions and topics are bounded so an arbitrarily long
// transcript cannot grow the context without limit; eviction is oldest-first
// in insertion order, which keeps behavior deterministic under test.
const (
	MaxDecisions = 20
	MaxTopics    = 30

	maxUserRequestLen = 500
	maxErrorLen       = 200
	maxInputSummary   = 100
)

// ToolCall records one tool invocation seen in the transcript.
type ToolCall struct {
	Tool         string `json:"tool"`
	InputSummary string `json:"input_summary"`
}

// ActivityContext is the structured activity record mined from a transcript.
// Built once per hook invocation and consumed by the summary composer and
// the persistence gateway.
type ActivityContext struct {
	// FilesModified holds paths touched by Edit/Write tools, deduplicated,
	// in first-seen order.
	FilesModified *Set

	// FilesRead holds paths touched by the Read tool, deduplicated.
	FilesRead *Set

	// Decisions holds extracted decision statements, capped at MaxDecisions
	// with oldest-first eviction.
	Decisions *BoundedList

	// Topics holds matched topic keywords, capped at MaxTopics with
	// oldest-first eviction.
	Topics *BoundedSet

	// ToolCalls lists every tool invocation in transcript order.
	ToolCalls []ToolCall

	// ErrorsEncountered lists tool-result error content, truncated.
	ErrorsEncountered []string

	// UserRequests lists user message text, truncated.
	UserRequests []string
}

// NewActivityContext returns an empty context with all containers initialized.
func NewActivityContext() *ActivityContext {
	return &ActivityContext{
		FilesModified: NewSet(),
		FilesRead:     NewSet(),
		Decisions:     NewBoundedList(MaxDecisions),
		Topics:        NewBoundedSet(MaxTopics),
	}
}

// IsEmpty reports whether the context has no extracted activity at all.
func (c *ActivityContext) IsEmpty() bool {
	return c.FilesModified.Len() == 0 &&
		c.FilesRead.Len() == 0 &&
		c.Decisions.Len() == 0 &&
		c.Topics.Len() == 0 &&
		len(c.ToolCalls) == 0 &&
		len(c.ErrorsEncountered) == 0 &&
		len(c.UserRequests) == 0
}

// Set is an insertion-ordered string set. Membership is deduplicated; Values
// returns elements in first-insertion order.
type Set struct {
	seen  map[string]bool
	order []string
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]bool)}
}

// Add inserts s if not already present. Returns true if s was inserted.
func (s *Set) Add(v string) bool {
	if s.seen[v] {
		return false
	}
	s.seen[v] = true
	s.order = append(s.order, v)
	return true
}

// Contains reports membership.
func (s *Set) Contains(v string) bool {
	return s.seen[v]
}

// Len returns the number of elements.
func (s *Set) Len() int {
	return len(s.order)
}

// Values returns elements in insertion order. The returned slice is shared;
// callers must not mutate it.
func (s *Set) Values() []string {
	return s.order
}

// BoundedSet is an insertion-ordered string set with a capacity. When full,
// adding a new element evicts the oldest one.
type BoundedSet struct {
	cap   int
	seen  map[string]bool
	order []string
}

// NewBoundedSet returns an empty BoundedSet with the given capacity.
func NewBoundedSet(capacity int) *BoundedSet {
	return &BoundedSet{cap: capacity, seen: make(map[string]bool)}
}

// Add inserts v if not already present, evicting the oldest element when the
// set is at capacity. Returns true if v was inserted.
func (s *BoundedSet) Add(v string) bool {
	if s.seen[v] {
		return false
	}
	if len(s.order) >= s.cap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.seen, oldest)
	}
	s.seen[v] = true
	s.order = append(s.order, v)
	return true
}

// Contains reports membership.
func (s *BoundedSet) Contains(v string) bool {
	return s.seen[v]
}

// Len returns the number of elements.
func (s *BoundedSet) Len() int {
	return len(s.order)
}

// Values returns elements in insertion order.
func (s *BoundedSet) Values() []string {
	return s.order
}

// BoundedList is an ordered string list with a capacity. Appending past
// capacity drops the oldest entry (FIFO).
type BoundedList struct {
	cap   int
	items []string
}

// NewBoundedList returns an empty BoundedList with the given capacity.
func NewBoundedList(capacity int) *BoundedList {
	return &BoundedList{cap: capacity}
}

// Append adds v, evicting the oldest entry when the list is at capacity.
func (l *BoundedList) Append(v string) {
	if len(l.items) >= l.cap {
		l.items = l.items[1:]
	}
	l.items = append(l.items, v)
}

// Contains reports whether v is present.
func (l *BoundedList) Contains(v string) bool {
	for _, item := range l.items {
		if item == v {
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (l *BoundedList) Len() int {
	return len(l.items)
}

// Values returns entries in append order.
func (l *BoundedList) Values() []string {
	return l.items
}

// Truncate shortens s to at most n runes. Truncation counts runes, not
// bytes, so multibyte characters are never split.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
