package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sahilchouksey/gaokao-ingest/services/driver"
	"github.com/sahilchouksey/gaokao-ingest/services/export"
	"github.com/sahilchouksey/gaokao-ingest/services/sources"
	"github.com/sahilchouksey/gaokao-ingest/services/store"
)

// Stage is one dataset of the ingestion pipeline.
type Stage interface {
	// Name returns the unique identifier for this stage
	Name() string

	// DisplayName returns the human-readable name for this stage
	DisplayName() string

	// Source returns the catalog entry behind this stage
	Source() sources.Source

	// Fetch downloads every work item that has no stored response yet.
	Fetch(ctx context.Context) (*driver.Report, error)

	// Import loads the stored responses into the database. Fetch-only
	// stages return ErrFetchOnly.
	Import(ctx context.Context, mode store.WriteMode) (*ImportReport, error)

	// Export writes the stored responses as CSV series into outDir.
	Export(outDir string, now time.Time) ([]export.Series, error)
}

// Registry manages stage instances in registration order
type Registry struct {
	stages map[string]Stage
	order  []string
	mu     sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]Stage)}
}

// Register adds or replaces a stage
func (r *Registry) Register(stage Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stages[stage.Name()]; !exists {
		r.order = append(r.order, stage.Name())
	}
	r.stages[stage.Name()] = stage
}

// Get retrieves a stage by name
func (r *Registry) Get(name string) (Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stage, exists := r.stages[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", sources.ErrUnknownSource, name)
	}
	return stage, nil
}

// Names returns all registered stage names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Resolve returns the named stages, or every stage when names is empty.
func (r *Registry) Resolve(names []string) ([]Stage, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	out := make([]Stage, 0, len(names))
	for _, name := range names {
		stage, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, stage)
	}
	return out, nil
}
