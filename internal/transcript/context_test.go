package transcript

import (
	"fmt"
	"testing"
)

func TestSet_Deduplicates(t *testing.T) {
	s := NewSet()

	if !s.Add("/repo/a.go") {
		t.Error("first Add returned false")
	}
	if s.Add("/repo/a.go") {
		t.Error("duplicate Add returned true")
	}
	s.Add("/repo/b.go")

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	values := s.Values()
	if values[0] != "/repo/a.go" || values[1] != "/repo/b.go" {
		t.Errorf("Values() = %v, want insertion order", values)
	}
}

func TestBoundedSet_EvictsOldest(t *testing.T) {
	s := NewBoundedSet(3)
	s.Add("a")
	s.Add("b")
	s.Add("c")
	s.Add("d")

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if s.Contains("a") {
		t.Error("oldest element should have been evicted")
	}
	values := s.Values()
	want := []string{"b", "c", "d"}
	for i, v := range want {
		if values[i] != v {
			t.Errorf("Values()[%d] = %q, want %q", i, values[i], v)
		}
	}
}

func TestBoundedSet_NeverExceedsCap(t *testing.T) {
	s := NewBoundedSet(MaxTopics)
	for i := 0; i < 500; i++ {
		s.Add(fmt.Sprintf("topic-%d", i))
		if s.Len() > MaxTopics {
			t.Fatalf("Len() = %d after %d adds, cap is %d", s.Len(), i+1, MaxTopics)
		}
	}
	if s.Len() != MaxTopics {
		t.Errorf("Len() = %d, want %d", s.Len(), MaxTopics)
	}
}

func TestBoundedSet_DuplicateDoesNotEvict(t *testing.T) {
	s := NewBoundedSet(2)
	s.Add("a")
	s.Add("b")
	if s.Add("a") {
		t.Error("duplicate Add returned true")
	}
	if !s.Contains("a") || !s.Contains("b") {
		t.Error("duplicate insert must not evict anything")
	}
}

func TestBoundedList_FIFOEviction(t *testing.T) {
	l := NewBoundedList(MaxDecisions)
	for i := 0; i < 50; i++ {
		l.Append(fmt.Sprintf("decision %d", i))
		if l.Len() > MaxDecisions {
			t.Fatalf("Len() = %d, cap is %d", l.Len(), MaxDecisions)
		}
	}
	values := l.Values()
	if values[0] != "decision 30" {
		t.Errorf("Values()[0] = %q, want oldest surviving entry %q", values[0], "decision 30")
	}
	if values[len(values)-1] != "decision 49" {
		t.Errorf("last = %q, want %q", values[len(values)-1], "decision 49")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{"shorter than limit", "hello", 10, "hello"},
		{"exact limit", "hello", 5, "hello"},
		{"truncated", "hello world", 5, "hello"},
		{"zero", "hello", 0, ""},
		{"multibyte safe", "héllo wörld", 7, "héllo w"},
		{"cjk", "日本語のテキスト", 3, "日本語"},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.n); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
			}
		})
	}
}

func TestActivityContext_IsEmpty(t *testing.T) {
	ctx := NewActivityContext()
	if !ctx.IsEmpty() {
		t.Error("new context should be empty")
	}

	ctx.Topics.Add("api")
	if ctx.IsEmpty() {
		t.Error("context with a topic should not be empty")
	}
}
