package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/sahilchouksey/gaokao-ingest/model"
	"github.com/sahilchouksey/gaokao-ingest/services/driver"
	"github.com/sahilchouksey/gaokao-ingest/services/export"
	"github.com/sahilchouksey/gaokao-ingest/services/fetcher"
	"github.com/sahilchouksey/gaokao-ingest/services/sources"
	"github.com/sahilchouksey/gaokao-ingest/services/store"
)

// ErrFetchOnly is returned when importing a source with no entity.
var ErrFetchOnly = errors.New("source is fetch-only")

// Settings are the run-wide defaults a source may override.
type Settings struct {
	Root                string // data directory holding one subdirectory per source
	ChunkSize           int
	MaxRetries          int
	Timeout             time.Duration
	Delay               time.Duration // pause between network fetches
	ValidateCheckpoints bool
}

// Pipeline binds the source catalog to the fetcher, driver, normalizer and
// store. The database is optional for fetch-only use.
type Pipeline struct {
	catalog  sources.Catalog
	settings Settings

	db      *gorm.DB
	writer  *store.Writer
	details *store.DetailStore
	runs    *store.RunLog
	sink    driver.FailureSink

	// NewFetcher builds the fetcher used for a source; tests swap it.
	NewFetcher func(src sources.Source) (driver.Fetcher, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDatabase enables import and run logging.
func WithDatabase(db *gorm.DB) Option {
	return func(p *Pipeline) { p.db = db }
}

// WithFailureSink mirrors item failures to sink.
func WithFailureSink(sink driver.FailureSink) Option {
	return func(p *Pipeline) { p.sink = sink }
}

func New(catalog sources.Catalog, settings Settings, opts ...Option) *Pipeline {
	if settings.ChunkSize <= 0 {
		settings.ChunkSize = store.DefaultChunkSize
	}
	p := &Pipeline{catalog: catalog, settings: settings}
	p.NewFetcher = p.sessionFor
	for _, opt := range opts {
		opt(p)
	}
	if p.db != nil {
		p.writer = store.NewWriter(p.db, settings.ChunkSize)
		p.details = store.NewDetailStore(p.db)
		p.runs = store.NewRunLog(p.db)
	}
	return p
}

// Registry returns a registry holding one stage per catalog source, parents
// registered before their children.
func (p *Pipeline) Registry() *Registry {
	r := NewRegistry()
	for _, name := range p.catalog.Ordered() {
		r.Register(&sourceStage{pipeline: p, source: p.catalog.Sources[name]})
	}
	return r
}

// Dir is where src stores its responses.
func (p *Pipeline) Dir(src sources.Source) string {
	return filepath.Join(p.settings.Root, src.Directory())
}

func (p *Pipeline) sessionFor(src sources.Source) (driver.Fetcher, error) {
	opts := fetcher.DefaultOptions()
	opts.RelaxedTLS = src.Relaxed()
	if p.settings.Timeout > 0 {
		opts.Timeout = p.settings.Timeout
	}
	if src.Timeout > 0 {
		opts.Timeout = time.Duration(src.Timeout) * time.Second
	}
	if p.settings.MaxRetries > 0 {
		opts.MaxRetries = p.settings.MaxRetries
	}
	if src.MaxRetries > 0 {
		opts.MaxRetries = src.MaxRetries
	}
	return fetcher.NewSession(opts)
}

func (p *Pipeline) delayFor(src sources.Source) time.Duration {
	if src.RateLimitDelay > 0 {
		return time.Duration(src.RateLimitDelay) * time.Millisecond
	}
	return p.settings.Delay
}

// Enumerate produces the work items of src from its page range, its
// parent's stored responses or its mapping file.
func (p *Pipeline) Enumerate(src sources.Source) ([]driver.Params, []driver.ParseFailure, error) {
	switch src.Enumeration() {
	case sources.EnumPages:
		return driver.PageRange(src.Pages), nil, nil

	case sources.EnumParent:
		parent, err := p.catalog.Get(src.Parent)
		if err != nil {
			return nil, nil, err
		}
		var layout model.Layout
		if entity, ok := model.Lookup(parent.Entity); ok {
			layout = entity.Layout
		}
		return driver.FromParentFiles(p.Dir(parent), layout, src.Params)

	case sources.EnumMapping, sources.EnumMappingYears:
		items, err := driver.FromMapping(p.mappingPath(src))
		if err != nil {
			return nil, nil, err
		}
		if len(src.Years) > 0 {
			items = driver.CrossYears(items, src.Years)
		}
		return items, nil, nil
	}
	return nil, nil, fmt.Errorf("source %s: no enumeration configured", src.Name)
}

// mappingPath resolves a relative mapping file against the data root.
func (p *Pipeline) mappingPath(src sources.Source) string {
	if filepath.IsAbs(src.Mapping) {
		return src.Mapping
	}
	return filepath.Join(p.settings.Root, src.Mapping)
}

// Fetch runs the driver over every work item of the named source.
func (p *Pipeline) Fetch(ctx context.Context, name string) (*driver.Report, error) {
	src, err := p.catalog.Get(name)
	if err != nil {
		return nil, err
	}

	run := p.startRun(ctx, src.Name)

	report, err := p.fetch(ctx, src)
	stats := store.RunStats{Err: err}
	if report != nil {
		stats.Total = report.Total
		stats.Fetched = report.Fetched
		stats.Skipped = report.Skipped
		stats.Failed = report.Failed
		stats.ParseFailed = len(report.ParseFailures)
		stats.Failures = report.FailedKeys()
	}
	p.finishRun(ctx, run, stats)

	return report, err
}

func (p *Pipeline) fetch(ctx context.Context, src sources.Source) (*driver.Report, error) {
	items, parseFailures, err := p.Enumerate(src)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", src.Name, err)
	}

	f, err := p.NewFetcher(src)
	if err != nil {
		return nil, fmt.Errorf("fetcher for %s: %w", src.Name, err)
	}

	if r, ok := p.sink.(resetter); ok {
		if err := r.Reset(ctx, src.Name); err != nil {
			log.Warnf("[PIPELINE] failure sink reset: %v", err)
		}
	}

	d := driver.New(f, driver.Options{
		Root:       p.settings.Root,
		Checkpoint: driver.Checkpoint{Validate: p.settings.ValidateCheckpoints},
		Pacer:      driver.NewPacer(driver.DefaultPacerConfig(p.delayFor(src))),
		Sink:       p.sink,
	})
	return d.Run(ctx, driver.Job{Source: src, Items: items, ParseFailures: parseFailures})
}

// Export writes the named source's stored responses as CSV series into
// outDir, by default <source dir>/output.
func (p *Pipeline) Export(name, outDir string, now time.Time) ([]export.Series, error) {
	src, err := p.catalog.Get(name)
	if err != nil {
		return nil, err
	}
	dir := p.Dir(src)
	if outDir == "" {
		outDir = filepath.Join(dir, "output")
	}
	opts, err := p.exportOptions(src)
	if err != nil {
		return nil, err
	}
	return export.ToCSV(dir, outDir, now, opts)
}

// exportOptions flattens records like import does. Per-year responses are
// merged into one series per mapping name, each row stamped with its year.
func (p *Pipeline) exportOptions(src sources.Source) (export.Options, error) {
	var opts export.Options
	if entity, ok := model.Lookup(src.Entity); ok {
		opts.Layout = entity.Layout
	}
	if !src.ParamsAsParent && src.Enumeration() != sources.EnumMappingYears {
		return opts, nil
	}

	byFile, err := p.workItemsByFile(src)
	if err != nil {
		return opts, err
	}
	opts.Params = byFile
	if src.Enumeration() == sources.EnumMappingYears {
		opts.GroupBy = "name"
	}
	return opts, nil
}

// resetter is implemented by sinks that keep only the latest run's failures.
type resetter interface {
	Reset(ctx context.Context, stage string) error
}

// startRun records a run when a database is attached. Audit failures are
// logged and never stop the pipeline.
func (p *Pipeline) startRun(ctx context.Context, stage string) *model.IngestRun {
	if p.runs == nil {
		return nil
	}
	run, err := p.runs.Start(ctx, stage)
	if err != nil {
		log.Warnf("[PIPELINE] %v", err)
		return nil
	}
	return run
}

func (p *Pipeline) finishRun(ctx context.Context, run *model.IngestRun, stats store.RunStats) {
	if run == nil {
		return
	}
	// A cancelled run is still recorded.
	if err := p.runs.Finish(context.WithoutCancel(ctx), run, stats); err != nil {
		log.Warnf("[PIPELINE] %v", err)
	}
}

type sourceStage struct {
	pipeline *Pipeline
	source   sources.Source
}

func (s *sourceStage) Name() string { return s.source.Name }

func (s *sourceStage) Source() sources.Source { return s.source }

func (s *sourceStage) DisplayName() string {
	if s.source.DisplayName != "" {
		return s.source.DisplayName
	}
	return s.source.Name
}

func (s *sourceStage) Fetch(ctx context.Context) (*driver.Report, error) {
	return s.pipeline.Fetch(ctx, s.source.Name)
}

func (s *sourceStage) Import(ctx context.Context, mode store.WriteMode) (*ImportReport, error) {
	return s.pipeline.Import(ctx, s.source.Name, mode)
}

func (s *sourceStage) Export(outDir string, now time.Time) ([]export.Series, error) {
	return s.pipeline.Export(s.source.Name, outDir, now)
}
