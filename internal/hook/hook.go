// Package hook implements the PreCompact entrypoint: it reads one event
// descriptor from stdin, drives the mine → compose → persist pipeline, and
// emits at most one JSON status line. The hook never fails the host
// process: every path, including persistence failure, exits cleanly and
// silently.
package hook

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ConaryLabs/Mira/internal/persist"
	"github.com/ConaryLabs/Mira/internal/summary"
	"github.com/ConaryLabs/Mira/internal/transcript"
)

// EventPreCompact is the only event kind this hook processes.
const EventPreCompact = "PreCompact"

// Input is the event descriptor delivered on stdin.
type Input struct {
	HookEventName  string `json:"hook_event_name"`
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Trigger        string `json:"trigger"`
}

// Output is the status line emitted on a successful save.
type Output struct {
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

// SpecificOutput is the hook-specific payload of the status line.
type SpecificOutput struct {
	HookEventName string `json:"hookEventName"`
	Status        string `json:"status"`
}

// Saver is the persistence surface the runner needs. Satisfied by
// *persist.Gateway.
type Saver interface {
	Save(ctx context.Context, sessionID, trigger string, ac *transcript.ActivityContext, summaryText string) (*persist.Result, error)
}

// Runner drives one pipeline invocation.
type Runner struct {
	saver Saver
}

// NewRunner creates a runner over the given persistence gateway.
func NewRunner(saver Saver) *Runner {
	return &Runner{saver: saver}
}

// Run executes the pipeline for one event read from stdin. Unrecognized or
// malformed input and persistence failures are silent; only a successful
// save writes a status line to stdout.
func (r *Runner) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return
	}
	if input.HookEventName != EventPreCompact {
		return
	}

	if input.SessionID == "" {
		input.SessionID = "unknown"
	}
	if input.Trigger == "" {
		input.Trigger = "unknown"
	}

	ac := transcript.Mine(input.TranscriptPath)
	report := summary.Compose(ac, input.Trigger)

	result, err := r.saver.Save(ctx, input.SessionID, input.Trigger, ac, report)
	if err != nil {
		return
	}

	status := Output{
		HookSpecificOutput: SpecificOutput{
			HookEventName: EventPreCompact,
			Status:        "Saved pre-compaction context to Mira (snapshot: " + result.SnapshotID + ")",
		},
	}
	// Best effort; a broken stdout must not fail the hook.
	_ = json.NewEncoder(stdout).Encode(status)
}
