package persist

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ConaryLabs/Mira/internal/transcript"
)

// Shared caps on persisted fact content, matching what the indexing service
// expects per call.
const (
	maxFactFiles      = 20
	maxFactDecisions  = 15
	maxFactRequests   = 10
	maxFactRequestLen = 150
	maxSummaryTopics  = 10
)

// SnapshotID derives the snapshot identifier from the session id and a unix
// timestamp: the first 16 hex characters of an md5 digest. Best-effort
// identity only; two saves for one session within the same second collide.
func SnapshotID(sessionID string, ts int64) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s-%d", sessionID, ts)))
	return hex.EncodeToString(sum[:])[:16]
}

// factID derives a memory_facts primary key from its upsert key.
func factID(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// fullSummary prefixes the composed report with the save marker.
func fullSummary(trigger, summaryText string) string {
	return fmt.Sprintf("[Pre-Compaction Save - %s]\n%s", trigger, summaryText)
}

// filesFactContent renders the files-modified fact value.
func filesFactContent(trigger string, files []string) string {
	if len(files) > maxFactFiles {
		files = files[:maxFactFiles]
	}
	return fmt.Sprintf("Files modified before compaction (%s): %s", trigger, strings.Join(files, ", "))
}

// decisionsFactContent renders the decisions fact value.
func decisionsFactContent(trigger string, decisions []string) string {
	if len(decisions) > maxFactDecisions {
		decisions = decisions[:maxFactDecisions]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Decisions made before compaction (%s):", trigger)
	for _, d := range decisions {
		fmt.Fprintf(&b, "\n- %s", d)
	}
	return b.String()
}

// requestsFactContent renders the user-requests fact value.
func requestsFactContent(trigger string, requests []string) string {
	if len(requests) > maxFactRequests {
		requests = requests[:maxFactRequests]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "User requests before compaction (%s):", trigger)
	for _, r := range requests {
		fmt.Fprintf(&b, "\n- %s", transcript.Truncate(r, maxFactRequestLen))
	}
	return b.String()
}

// summaryTopics returns the first topics to attach to the stored summary.
func summaryTopics(topics []string) []string {
	if len(topics) > maxSummaryTopics {
		topics = topics[:maxSummaryTopics]
	}
	// Always a non-nil slice so the argument marshals as a JSON array.
	out := make([]string, len(topics))
	copy(out, topics)
	return out
}
