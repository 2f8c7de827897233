package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahilchouksey/gaokao-ingest/model"
)

// RunStats is the outcome recorded when a run finishes.
type RunStats struct {
	Total       int
	Fetched     int
	Skipped     int
	Failed      int
	ParseFailed int
	RowsWritten int64
	Failures    []string
	Err         error
}

// RunLog records pipeline runs in the ingest_runs table.
type RunLog struct {
	db *gorm.DB
}

func NewRunLog(db *gorm.DB) *RunLog {
	return &RunLog{db: db}
}

// Start inserts a run in the started state.
func (l *RunLog) Start(ctx context.Context, stage string) (*model.IngestRun, error) {
	run := &model.IngestRun{
		RunID:     uuid.NewString(),
		Stage:     stage,
		Status:    model.IngestRunStatusStarted,
		StartedAt: time.Now(),
	}
	if err := l.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("record run start: %w", err)
	}
	return run, nil
}

// Finish stores the final counters and status of run.
func (l *RunLog) Finish(ctx context.Context, run *model.IngestRun, stats RunStats) error {
	now := time.Now()
	run.CompletedAt = &now
	run.Duration = now.Sub(run.StartedAt).Milliseconds()
	run.Total = stats.Total
	run.Fetched = stats.Fetched
	run.Skipped = stats.Skipped
	run.Failed = stats.Failed
	run.ParseFailed = stats.ParseFailed
	run.RowsWritten = stats.RowsWritten

	switch {
	case stats.Err != nil:
		run.Status = model.IngestRunStatusFailed
		run.ErrorMsg = stats.Err.Error()
	case stats.Failed > 0 || stats.ParseFailed > 0:
		run.Status = model.IngestRunStatusPartial
	default:
		run.Status = model.IngestRunStatusCompleted
	}

	if len(stats.Failures) > 0 {
		b, err := json.Marshal(stats.Failures)
		if err != nil {
			return err
		}
		run.Failures = datatypes.JSON(b)
	}

	if err := l.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first, optionally filtered by stage.
func (l *RunLog) Recent(ctx context.Context, stage string, limit int) ([]model.IngestRun, error) {
	var runs []model.IngestRun
	q := l.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if stage != "" {
		q = q.Where("stage = ?", stage)
	}
	err := q.Find(&runs).Error
	return runs, err
}
