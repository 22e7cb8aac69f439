package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTranscript writes lines to a temp JSONL file and returns its path.
func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func userLine(text string) string {
	b, _ := json.Marshal(map[string]any{
		"type":    "user",
		"message": map[string]any{"content": text},
	})
	return string(b)
}

func assistantTextLine(text string) string {
	b, _ := json.Marshal(map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"content": []map[string]any{{"type": "text", "text": text}},
		},
	})
	return string(b)
}

func toolUseLine(tool string, input map[string]any) string {
	b, _ := json.Marshal(map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"content": []map[string]any{{"type": "tool_use", "name": tool, "input": input}},
		},
	})
	return string(b)
}

func toolResultLine(content string, isError bool) string {
	b, _ := json.Marshal(map[string]any{
		"type":   "tool_result",
		"result": map[string]any{"content": content, "is_error": isError},
	})
	return string(b)
}

func TestMine_MissingFile(t *testing.T) {
	ctx := Mine(filepath.Join(t.TempDir(), "nope.jsonl"))

	if ctx == nil {
		t.Fatal("Mine() returned nil")
	}
	if !ctx.IsEmpty() {
		t.Error("context for missing file should be empty")
	}
}

func TestMine_SkipsMalformedLines(t *testing.T) {
	path := writeTranscript(t,
		"{not json at all",
		userLine("please fix the login bug"),
		`"just a string"`,
		"",
		toolUseLine("Edit", map[string]any{"file_path": "/repo/login.go"}),
	)

	ctx := Mine(path)

	if len(ctx.UserRequests) != 1 {
		t.Fatalf("UserRequests = %d, want 1", len(ctx.UserRequests))
	}
	if !ctx.FilesModified.Contains("/repo/login.go") {
		t.Error("FilesModified missing /repo/login.go")
	}
}

func TestMine_FilesModifiedIsSet(t *testing.T) {
	path := writeTranscript(t,
		toolUseLine("Edit", map[string]any{"file_path": "/repo/auth.py"}),
		toolUseLine("Write", map[string]any{"file_path": "/repo/auth.py"}),
		toolUseLine("Edit", map[string]any{"file_path": "/repo/auth.py"}),
		toolUseLine("Read", map[string]any{"file_path": "/repo/auth.py"}),
	)

	ctx := Mine(path)

	if ctx.FilesModified.Len() != 1 {
		t.Errorf("FilesModified.Len() = %d, want 1", ctx.FilesModified.Len())
	}
	if ctx.FilesRead.Len() != 1 {
		t.Errorf("FilesRead.Len() = %d, want 1", ctx.FilesRead.Len())
	}
	if len(ctx.ToolCalls) != 4 {
		t.Errorf("ToolCalls = %d, want 4", len(ctx.ToolCalls))
	}
}

func TestMine_ToolInputSummaries(t *testing.T) {
	longCmd := strings.Repeat("x", 300)
	path := writeTranscript(t,
		toolUseLine("Bash", map[string]any{"command": longCmd}),
		toolUseLine("Grep", map[string]any{"pattern": "func main"}),
		toolUseLine("Glob", map[string]any{"pattern": "**/*.go"}),
		toolUseLine("WebFetch", map[string]any{"url": "https://example.com"}),
	)

	ctx := Mine(path)

	if len(ctx.ToolCalls) != 4 {
		t.Fatalf("ToolCalls = %d, want 4", len(ctx.ToolCalls))
	}
	if got := ctx.ToolCalls[0].InputSummary; len([]rune(got)) != 100 {
		t.Errorf("Bash summary length = %d, want 100", len([]rune(got)))
	}
	if got := ctx.ToolCalls[1].InputSummary; got != "pattern: func main" {
		t.Errorf("Grep summary = %q", got)
	}
	if got := ctx.ToolCalls[2].InputSummary; got != "pattern: **/*.go" {
		t.Errorf("Glob summary = %q", got)
	}
	if got := ctx.ToolCalls[3].InputSummary; !strings.Contains(got, "example.com") {
		t.Errorf("generic summary = %q, want rendered input", got)
	}
}

func TestMine_ErrorsTruncated(t *testing.T) {
	longError := strings.Repeat("e", 500)
	path := writeTranscript(t,
		toolResultLine(longError, true),
		toolResultLine("all good", false),
	)

	ctx := Mine(path)

	if len(ctx.ErrorsEncountered) != 1 {
		t.Fatalf("ErrorsEncountered = %d, want 1", len(ctx.ErrorsEncountered))
	}
	if got := len([]rune(ctx.ErrorsEncountered[0])); got != 200 {
		t.Errorf("error length = %d, want 200", got)
	}
}

func TestMine_UserRequestsTruncated(t *testing.T) {
	path := writeTranscript(t,
		userLine(strings.Repeat("u", 1000)),
		userLine("   "),
	)

	ctx := Mine(path)

	if len(ctx.UserRequests) != 1 {
		t.Fatalf("UserRequests = %d, want 1 (whitespace-only skipped)", len(ctx.UserRequests))
	}
	if got := len([]rune(ctx.UserRequests[0])); got != 500 {
		t.Errorf("request length = %d, want 500", got)
	}
}

func TestMine_DecisionExtraction(t *testing.T) {
	path := writeTranscript(t,
		assistantTextLine("I'll refactor the session manager to use channels. We should also add a retry wrapper around the probe."),
		assistantTextLine("Implementing connection pooling for the sqlite layer now."),
		// Duplicate statement must not create a duplicate decision.
		assistantTextLine("I'll refactor the session manager to use channels. More text here."),
	)

	ctx := Mine(path)

	decisions := ctx.Decisions.Values()
	if len(decisions) != 3 {
		t.Fatalf("Decisions = %v, want 3 entries", decisions)
	}
	if decisions[0] != "refactor the session manager to use channels" {
		t.Errorf("decisions[0] = %q", decisions[0])
	}
	if decisions[1] != "also add a retry wrapper around the probe" {
		t.Errorf("decisions[1] = %q", decisions[1])
	}
	if decisions[2] != "connection pooling for the sqlite layer now" {
		t.Errorf("decisions[2] = %q", decisions[2])
	}
}

func TestMine_DecisionCapHoldsForLargeTranscripts(t *testing.T) {
	lines := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		lines = append(lines, assistantTextLine(fmt.Sprintf("I'll handle the migration step number %03d next", i)))
	}
	path := writeTranscript(t, lines...)

	ctx := Mine(path)

	if ctx.Decisions.Len() > MaxDecisions {
		t.Errorf("Decisions.Len() = %d, cap is %d", ctx.Decisions.Len(), MaxDecisions)
	}
	// Oldest entries were evicted.
	if ctx.Decisions.Contains("handle the migration step number 000 next") {
		t.Error("oldest decision should have been evicted")
	}
}

func TestMine_TopicExtraction(t *testing.T) {
	path := writeTranscript(t,
		userLine("The DATABASE migration broke the API"),
		assistantTextLine("Looks like a docker config issue in the deployment pipeline"),
	)

	ctx := Mine(path)

	for _, want := range []string{"database", "migration", "api", "docker", "config", "deployment", "pipeline"} {
		if !ctx.Topics.Contains(want) {
			t.Errorf("Topics missing %q (have %v)", want, ctx.Topics.Values())
		}
	}
}

// Scenario: two user messages and one Edit tool-use, per the extraction
// contract's end-to-end example.
func TestMine_EndToEndScenario(t *testing.T) {
	path := writeTranscript(t,
		userLine("build an API"),
		userLine("Let's add tests for auth"),
		toolUseLine("Edit", map[string]any{"file_path": "/repo/auth.py"}),
	)

	ctx := Mine(path)

	if ctx.FilesModified.Len() != 1 || !ctx.FilesModified.Contains("/repo/auth.py") {
		t.Errorf("FilesModified = %v, want exactly {/repo/auth.py}", ctx.FilesModified.Values())
	}
	for _, want := range []string{"api", "auth", "test"} {
		if !ctx.Topics.Contains(want) {
			t.Errorf("Topics missing %q (have %v)", want, ctx.Topics.Values())
		}
	}
	if !ctx.Decisions.Contains("add tests for auth") {
		t.Errorf("Decisions = %v, want entry derived from %q", ctx.Decisions.Values(), "add tests for auth")
	}
	if len(ctx.UserRequests) != 2 {
		t.Errorf("UserRequests = %d, want 2", len(ctx.UserRequests))
	}
}
