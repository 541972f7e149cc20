package types

import (
	"time"

	"github.com/google/uuid"
)

// IngestionRun statuses.
const (
	IngestionRunning   = "running"
	IngestionCompleted = "completed"
	IngestionFailed    = "failed"
)

// IngestionRun is the relational record of one knowledge-graph ingestion
// run. Besides auditability it serializes runs: a second run refuses to
// start while a completed or running row exists for the same source.
type IngestionRun struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SourcePath string     `gorm:"not null" json:"source_path"`
	Status     string     `gorm:"not null;index" json:"status"`
	ReportJSON string     `gorm:"type:jsonb" json:"report_json,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
