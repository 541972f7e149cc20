package pipeline

import "time"

// Report is the structured outcome of one ingestion run. Recovered
// conditions are counted per reason instead of failing the run.
type Report struct {
	SourcePath string    `json:"source_path"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	LinesRead     int64 `json:"lines_read"`
	Malformed     int64 `json:"malformed"`
	SelfLoops     int64 `json:"self_loops"`
	NotRelevant   int64 `json:"not_relevant"`
	Unclassified  int64 `json:"unclassified"`
	UnknownEntity int64 `json:"unknown_entity"`
	Duplicates    int64 `json:"duplicates"`

	Accepted      int64 `json:"accepted"`
	Created       int64 `json:"created"`
	WriteFailures int64 `json:"write_failures"`
	Batches       int64 `json:"batches"`
}

// Rejected totals every filtered-out candidate.
func (r *Report) Rejected() int64 {
	return r.Malformed + r.SelfLoops + r.NotRelevant + r.Unclassified +
		r.UnknownEntity + r.Duplicates
}

// Duration is the wall-clock span of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
