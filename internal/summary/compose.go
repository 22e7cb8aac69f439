// Package summary renders an ActivityContext into a deterministic,
// human-readable report. Composition is pure: same context and trigger
// always produce the same text.
package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ConaryLabs/Mira/internal/transcript"
)

// Section display limits.
const (
	maxFileLines     = 10
	maxRequestLines  = 5
	maxRequestChars  = 100
	maxDecisionLines = 10
)

// projectMarker is the path segment used to shorten file paths for display.
// Paths containing it are shown relative to it; others fall back to the
// file name.
const projectMarker = "/Mira/"

// Compose renders the context into a report. Sections with no underlying
// data are omitted entirely.
func Compose(ctx *transcript.ActivityContext, trigger string) string {
	parts := []string{fmt.Sprintf("Compaction triggered: %s", trigger)}

	if ctx.FilesModified.Len() > 0 {
		parts = append(parts, composeFiles(ctx.FilesModified))
	}
	if len(ctx.UserRequests) > 0 {
		parts = append(parts, composeRequests(ctx.UserRequests))
	}
	if ctx.Decisions.Len() > 0 {
		parts = append(parts, composeDecisions(ctx.Decisions))
	}
	if ctx.Topics.Len() > 0 {
		topics := append([]string(nil), ctx.Topics.Values()...)
		sort.Strings(topics)
		parts = append(parts, fmt.Sprintf("\nTopics: %s", strings.Join(topics, ", ")))
	}
	if len(ctx.ToolCalls) > 0 {
		parts = append(parts, composeToolUsage(ctx.ToolCalls))
	}
	if len(ctx.ErrorsEncountered) > 0 {
		parts = append(parts, fmt.Sprintf("\nErrors encountered: %d", len(ctx.ErrorsEncountered)))
	}

	return strings.Join(parts, "\n")
}

func composeFiles(files *transcript.Set) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nFiles modified (%d):", files.Len())
	for i, f := range files.Values() {
		if i >= maxFileLines {
			break
		}
		fmt.Fprintf(&b, "\n  - %s", displayPath(f))
	}
	if files.Len() > maxFileLines {
		fmt.Fprintf(&b, "\n  ... and %d more", files.Len()-maxFileLines)
	}
	return b.String()
}

// displayPath shortens a path for the report: the portion after the project
// marker when present, otherwise just the file name.
func displayPath(path string) string {
	if idx := strings.LastIndex(path, projectMarker); idx >= 0 {
		return path[idx+len(projectMarker):]
	}
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func composeRequests(requests []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nUser requests (%d):", len(requests))
	for i, req := range requests {
		if i >= maxRequestLines {
			break
		}
		firstLine, _, _ := strings.Cut(req, "\n")
		fmt.Fprintf(&b, "\n  - %s", transcript.Truncate(firstLine, maxRequestChars))
	}
	return b.String()
}

func composeDecisions(decisions *transcript.BoundedList) string {
	var b strings.Builder
	b.WriteString("\nKey decisions/actions:")
	for i, dec := range decisions.Values() {
		if i >= maxDecisionLines {
			break
		}
		fmt.Fprintf(&b, "\n  - %s", dec)
	}
	return b.String()
}

func composeToolUsage(calls []transcript.ToolCall) string {
	counts := make(map[string]int)
	for _, tc := range calls {
		counts[tc.Tool]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	rendered := make([]string, 0, len(names))
	for _, name := range names {
		rendered = append(rendered, fmt.Sprintf("%s(%d)", name, counts[name]))
	}
	return fmt.Sprintf("\nTools used: %s", strings.Join(rendered, ", "))
}
