package model

import (
	"time"

	"gorm.io/datatypes"
)

// IngestRunStatus represents the final state of a pipeline run
type IngestRunStatus string

const (
	IngestRunStatusStarted   IngestRunStatus = "started"
	IngestRunStatusCompleted IngestRunStatus = "completed"
	IngestRunStatusPartial   IngestRunStatus = "partially_completed" // finished with item failures
	IngestRunStatusFailed    IngestRunStatus = "failed"
)

// IngestRun records one execution of a pipeline stage. It is an audit trail
// only; resumption is driven by checkpoint files, never by this table.
type IngestRun struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	RunID       string          `gorm:"type:varchar(36);not null;uniqueIndex:uq_ingest_run_id" json:"run_id"`
	Stage       string          `gorm:"type:varchar(50);not null;index:idx_ingest_run_stage" json:"stage"`
	Status      IngestRunStatus `gorm:"type:varchar(30);not null" json:"status"`
	StartedAt   time.Time       `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Duration    int64           `json:"duration_ms"` // Duration in milliseconds

	Total       int   `json:"total"`
	Fetched     int   `json:"fetched"`
	Skipped     int   `json:"skipped"`
	Failed      int   `json:"failed"`
	ParseFailed int   `json:"parse_failed"`
	RowsWritten int64 `json:"rows_written"`

	Failures datatypes.JSON `json:"failures"` // literal failed item keys, for targeted reruns
	ErrorMsg string         `gorm:"type:text" json:"error_msg"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
