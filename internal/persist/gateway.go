// Package persist durably stores a mined activity snapshot through one of
// two backends: the Mira MCP endpoint (which generates embeddings for
// semantic search) or, when the endpoint is unreachable, Mira's SQLite
// database directly.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ConaryLabs/Mira/internal/config"
	"github.com/ConaryLabs/Mira/internal/db"
	"github.com/ConaryLabs/Mira/internal/errors"
	"github.com/ConaryLabs/Mira/internal/transcript"
)

// Method identifies which backend completed the save.
type Method string

const (
	MethodRemote Method = "remote"
	MethodLocal  Method = "local"
)

// factSource is the source tag stamped on locally written facts.
const factSource = "precompact_hook"

// ToolCaller is the remote endpoint surface the gateway needs. Satisfied by
// *mcpclient.Client.
type ToolCaller interface {
	Probe(ctx context.Context) error
	CallTool(ctx context.Context, sessionID, tool string, args map[string]any) (json.RawMessage, error)
}

// CallOutcome records one remote tool invocation. Outcomes are collected
// independently; a failed call does not cancel the others.
type CallOutcome struct {
	Name     string
	Response json.RawMessage
	Err      error
}

// Result describes a completed save.
type Result struct {
	SnapshotID string
	Method     Method
	// Calls holds per-call outcomes for the remote path, in issue order.
	Calls []CallOutcome
}

// Failed returns the outcomes that carry an error.
func (r *Result) Failed() []CallOutcome {
	var failed []CallOutcome
	for _, c := range r.Calls {
		if c.Err != nil {
			failed = append(failed, c)
		}
	}
	return failed
}

// Gateway persists activity snapshots.
type Gateway struct {
	client   ToolCaller
	database *sql.DB
	cfg      *config.Config
	breaker  *Breaker
	now      func() time.Time
}

// New creates a gateway. database may be nil if the caller guarantees the
// remote path (tests); the local path then reports a storage error.
func New(client ToolCaller, database *sql.DB, cfg *config.Config) *Gateway {
	return &Gateway{
		client:   client,
		database: database,
		cfg:      cfg,
		breaker:  NewBreaker(cfg.BreakerThreshold, client.Probe),
		now:      time.Now,
	}
}

// Save persists the snapshot and returns how it was stored. The decision
// between backends is made once, by the breaker: if the endpoint answers
// the liveness probe, the save is committed to the remote path and
// individual call failures are reported in the result rather than falling
// back to the local store.
func (g *Gateway) Save(ctx context.Context, sessionID, trigger string, ac *transcript.ActivityContext, summaryText string) (*Result, error) {
	ts := g.now().Unix()
	snapshotID := SnapshotID(sessionID, ts)

	if g.breaker.Allow(ctx) {
		return g.saveRemote(ctx, sessionID, trigger, snapshotID, ac, summaryText), nil
	}
	return g.saveLocal(sessionID, trigger, snapshotID, ts, ac, summaryText)
}

// saveRemote issues up to four independent tool calls: the full summary,
// then one fact per non-empty category. All attempted calls run to
// completion regardless of individual outcomes.
func (g *Gateway) saveRemote(ctx context.Context, sessionID, trigger, snapshotID string, ac *transcript.ActivityContext, summaryText string) *Result {
	result := &Result{SnapshotID: snapshotID, Method: MethodRemote}

	call := func(name, tool string, args map[string]any) {
		resp, err := g.client.CallTool(ctx, sessionID, tool, args)
		result.Calls = append(result.Calls, CallOutcome{Name: name, Response: resp, Err: err})
	}

	call("store_session", "store_session", map[string]any{
		"summary":    fullSummary(trigger, summaryText),
		"session_id": sessionID,
		"topics":     summaryTopics(ac.Topics.Values()),
	})

	if ac.FilesModified.Len() > 0 {
		call("remember_files", "remember", map[string]any{
			"content":   filesFactContent(trigger, ac.FilesModified.Values()),
			"fact_type": "context",
			"category":  "compaction",
			"key":       "compaction-files-" + snapshotID,
		})
	}

	if ac.Decisions.Len() > 0 {
		call("remember_decisions", "remember", map[string]any{
			"content":   decisionsFactContent(trigger, ac.Decisions.Values()),
			"fact_type": "decision",
			"category":  "compaction",
			"key":       "compaction-decisions-" + snapshotID,
		})
	}

	if len(ac.UserRequests) > 0 {
		call("remember_requests", "remember", map[string]any{
			"content":   requestsFactContent(trigger, ac.UserRequests),
			"fact_type": "context",
			"category":  "compaction",
			"key":       "compaction-requests-" + snapshotID,
		})
	}

	return result
}

// saveLocal writes the snapshot to the SQLite store in one transaction: a
// summary entry plus one fact row per non-empty category. Any statement
// failure aborts the whole transaction.
func (g *Gateway) saveLocal(sessionID, trigger, snapshotID string, ts int64, ac *transcript.ActivityContext, summaryText string) (*Result, error) {
	if g.database == nil {
		return nil, errors.NewStorage(errors.NewInvalidRequest("no local database configured"))
	}

	projectID, err := db.LookupProjectID(g.database, g.cfg.ProjectPath)
	if err != nil {
		return nil, errors.NewStorage(err)
	}

	tx, err := g.database.Begin()
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	defer tx.Rollback()

	if err := db.InsertEntry(tx, db.Entry{
		ID:        snapshotID,
		SessionID: sessionID,
		Role:      "session_summary",
		Content:   fullSummary(trigger, summaryText),
		CreatedAt: ts,
		ProjectID: projectID,
	}); err != nil {
		return nil, errors.NewStorage(err)
	}

	writeFact := func(key, factType, content string) error {
		return db.UpsertFact(tx, db.Fact{
			ID:        factID(key),
			FactType:  factType,
			Key:       key,
			Value:     content,
			Category:  "compaction",
			Source:    factSource,
			CreatedAt: ts,
			UpdatedAt: ts,
			ProjectID: projectID,
		})
	}

	if ac.FilesModified.Len() > 0 {
		key := "compaction-files-" + snapshotID
		if err := writeFact(key, "context", filesFactContent(trigger, ac.FilesModified.Values())); err != nil {
			return nil, errors.NewStorage(err)
		}
	}

	if ac.Decisions.Len() > 0 {
		key := "compaction-decisions-" + snapshotID
		if err := writeFact(key, "decision", decisionsFactContent(trigger, ac.Decisions.Values())); err != nil {
			return nil, errors.NewStorage(err)
		}
	}

	if len(ac.UserRequests) > 0 {
		key := "compaction-requests-" + snapshotID
		if err := writeFact(key, "context", requestsFactContent(trigger, ac.UserRequests)); err != nil {
			return nil, errors.NewStorage(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStorage(err)
	}

	return &Result{SnapshotID: snapshotID, Method: MethodLocal}, nil
}
