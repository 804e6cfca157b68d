package trigger

import "time"

// IndexRequest asks the indexer to run a full pass over a corpus version.
type IndexRequest struct {
	Version     string    `json:"version"`
	RequestedAt time.Time `json:"requested_at,omitempty"`
}

// Run statuses carried by IndexComplete.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// IndexComplete announces the end of an indexing run so the ranking stage
// knows whether vectors for the version are ready.
type IndexComplete struct {
	RunID       string    `json:"run_id"`
	Version     string    `json:"version"`
	Status      string    `json:"status"`
	Files       int       `json:"files"`
	Terms       int       `json:"terms"`
	Vectorized  int       `json:"vectorized"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}
