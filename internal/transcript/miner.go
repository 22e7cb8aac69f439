package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// decisionPatterns match sentence openers that typically introduce a decision
// or stated plan. The capture group is the trailing clause.
var decisionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:I(?:'ll| will)|Let's|We should|Going to|I'm going to|I decided to|The approach is to)\s+([^.!?\n]{10,100})`),
	regexp.MustCompile(`(?i)(?:Using|Switching to|Implementing|Creating|Adding)\s+([^.!?\n]{10,80})`),
}

// maxDecisionsPerPattern limits how many matches a single text block may
// contribute per pattern, so one verbose message cannot flood the list.
const maxDecisionsPerPattern = 3

// topicKeywords is the fixed vocabulary tested for substring presence in
// user messages and assistant text blocks.
var topicKeywords = []string{
	"api", "database", "authentication", "auth", "testing", "test",
	"deployment", "docker", "kubernetes", "git", "ci/cd", "pipeline",
	"frontend", "backend", "server", "client", "ui", "ux",
	"bug", "fix", "feature", "refactor", "optimization", "performance",
	"security", "encryption", "migration", "config", "configuration",
	"rust", "python", "typescript", "javascript", "sql", "json",
	"mcp", "embeddings", "qdrant", "semantic", "indexer", "daemon",
	"hook", "permission", "compaction",
}

// record is one line of the transcript JSONL log. Message and Result stay
// raw because their shape varies by record type.
type record struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// contentBlock is one element of an assistant message's content array.
type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// toolResult is the result payload of a tool_result record.
type toolResult struct {
	IsError bool   `json:"is_error"`
	Content string `json:"content"`
}

// Mine parses the transcript JSONL file at path into an ActivityContext.
// A missing file yields an empty context. Malformed lines are skipped; a
// read failure mid-file is recorded in ErrorsEncountered. Mine never fails.
func Mine(path string) *ActivityContext {
	ctx := NewActivityContext()

	f, err := os.Open(path)
	if err != nil {
		return ctx
	}
	defer f.Close()

	// Transcript lines can be very large (full tool outputs), so read with
	// an unbounded line reader rather than a fixed-buffer scanner.
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			mineLine(trimmed, ctx)
		}
		if err != nil {
			if err != io.EOF {
				ctx.ErrorsEncountered = append(ctx.ErrorsEncountered,
					Truncate(fmt.Sprintf("Failed to read transcript: %v", err), maxErrorLen))
			}
			break
		}
	}

	return ctx
}

// mineLine decodes one JSONL line and dispatches on its type discriminator.
// Malformed lines are skipped.
func mineLine(line string, ctx *ActivityContext) {
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return
	}

	switch rec.Type {
	case "user":
		mineUserRecord(rec.Message, ctx)
	case "assistant":
		mineAssistantRecord(rec.Message, ctx)
	case "tool_result":
		mineToolResult(rec.Result, ctx)
	}
}

// mineUserRecord captures the user's message text as a request and scans it
// for decision phrases and topic keywords. User content is a plain string.
func mineUserRecord(message json.RawMessage, ctx *ActivityContext) {
	var msg struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}
	if strings.TrimSpace(msg.Content) == "" {
		return
	}

	ctx.UserRequests = append(ctx.UserRequests, Truncate(msg.Content, maxUserRequestLen))
	extractDecisions(msg.Content, ctx.Decisions)
	extractTopics(msg.Content, ctx.Topics)
}

// mineAssistantRecord scans the assistant's content blocks: tool_use blocks
// record tool calls and file operations, text blocks are scanned for
// decisions and topics.
func mineAssistantRecord(message json.RawMessage, ctx *ActivityContext) {
	var msg struct {
		Content []contentBlock `json:"content"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "tool_use":
			ctx.ToolCalls = append(ctx.ToolCalls, ToolCall{
				Tool:         block.Name,
				InputSummary: summarizeToolInput(block.Name, block.Input),
			})

			switch block.Name {
			case "Edit", "Write":
				if path := inputFilePath(block.Input); path != "" {
					ctx.FilesModified.Add(path)
				}
			case "Read":
				if path := inputFilePath(block.Input); path != "" {
					ctx.FilesRead.Add(path)
				}
			}
		case "text":
			if block.Text != "" {
				extractDecisions(block.Text, ctx.Decisions)
				extractTopics(block.Text, ctx.Topics)
			}
		}
	}
}

// mineToolResult appends error content from failed tool results.
func mineToolResult(result json.RawMessage, ctx *ActivityContext) {
	var res toolResult
	if err := json.Unmarshal(result, &res); err != nil {
		return
	}
	if res.IsError && res.Content != "" {
		ctx.ErrorsEncountered = append(ctx.ErrorsEncountered, Truncate(res.Content, maxErrorLen))
	}
}

// inputFilePath extracts the file_path field from a tool input, if present.
func inputFilePath(input json.RawMessage) string {
	var in struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return ""
	}
	return in.FilePath
}

// summarizeToolInput renders a brief, bounded summary of a tool's input.
func summarizeToolInput(toolName string, input json.RawMessage) string {
	var in struct {
		Command  string `json:"command"`
		FilePath string `json:"file_path"`
		Pattern  string `json:"pattern"`
	}
	// Tolerate undecodable inputs; the generic fallback below still applies.
	_ = json.Unmarshal(input, &in)

	switch toolName {
	case "Bash":
		return Truncate(in.Command, maxInputSummary)
	case "Edit", "Write", "Read":
		return Truncate(in.FilePath, maxInputSummary)
	case "Grep", "Glob":
		return "pattern: " + Truncate(in.Pattern, 50)
	default:
		return Truncate(string(input), maxInputSummary)
	}
}

// extractDecisions applies the decision patterns to a text block and appends
// trimmed, deduplicated captures to decisions.
func extractDecisions(text string, decisions *BoundedList) {
	for _, pattern := range decisionPatterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		count := 0
		for _, m := range matches {
			if count >= maxDecisionsPerPattern {
				break
			}
			count++
			capture := strings.TrimSpace(m[1])
			if capture == "" || decisions.Contains(capture) {
				continue
			}
			decisions.Append(capture)
		}
	}
}

// extractTopics adds every vocabulary keyword present in text (case
// insensitive) to topics.
func extractTopics(text string, topics *BoundedSet) {
	lower := strings.ToLower(text)
	for _, keyword := range topicKeywords {
		if strings.Contains(lower, keyword) {
			topics.Add(keyword)
		}
	}
}
