package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/sahilchouksey/gaokao-ingest/services/fetcher"
	"github.com/sahilchouksey/gaokao-ingest/services/sources"
)

// Fetcher retrieves one JSON document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, headers map[string]string) (*fetcher.Result, error)
}

// Options configures a Driver.
type Options struct {
	Root       string // data root; items land in Root/<source dir>/<file>
	Checkpoint Checkpoint
	Pacer      *Pacer      // nil disables pacing
	Sink       FailureSink // optional
	Now        func() time.Time
}

// Driver walks work items sequentially, skipping checkpointed ones and
// recording failures without stopping.
type Driver struct {
	fetcher Fetcher
	opts    Options
}

func New(f Fetcher, opts Options) *Driver {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Driver{fetcher: f, opts: opts}
}

// Job is one source and the work items enumerated for it.
type Job struct {
	Source        sources.Source
	Items         []Params
	ParseFailures []ParseFailure
}

// Run fetches every item of job that has no checkpoint yet. Item failures
// are collected in the report; only context cancellation ends the run
// early, in which case the partial report is returned with ctx.Err().
func (d *Driver) Run(ctx context.Context, job Job) (*Report, error) {
	src := job.Source
	report := &Report{
		Stage:         src.Name,
		Total:         len(job.Items),
		ParseFailures: job.ParseFailures,
	}
	dir := filepath.Join(d.opts.Root, src.Directory())

	log.Infof("[DRIVER] %s: %d work items", src.Name, len(job.Items))

	var runErr error
	for i, params := range job.Items {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		name, err := src.FileName(params)
		if err != nil {
			d.fail(ctx, report, ItemFailure{Key: params.Key(src.Params), Kind: KindTemplate, Err: err})
			continue
		}
		key := strings.TrimSuffix(name, filepath.Ext(name))
		path := filepath.Join(dir, name)

		done, err := d.opts.Checkpoint.Done(path)
		if err != nil {
			d.fail(ctx, report, ItemFailure{Key: key, Kind: KindStorage, Err: err})
			continue
		}
		if done {
			report.Skipped++
			log.Debugf("[DRIVER] %s: %s already stored, skipping", src.Name, key)
			continue
		}

		rawURL, err := src.BuildURL(params, d.opts.Now())
		if err != nil {
			d.fail(ctx, report, ItemFailure{Key: key, Kind: KindTemplate, Err: err})
			continue
		}

		if d.opts.Pacer != nil {
			if err := d.opts.Pacer.Wait(ctx); err != nil {
				runErr = err
				break
			}
		}

		res, err := d.fetcher.Fetch(ctx, rawURL, src.Headers)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				runErr = err
				break
			}
			d.fail(ctx, report, ItemFailure{Key: key, URL: rawURL, Kind: fetcher.KindOf(err), Err: err})
			continue
		}

		if err := d.opts.Checkpoint.Save(path, pretty(res.Body)); err != nil {
			d.fail(ctx, report, ItemFailure{Key: key, URL: rawURL, Kind: KindStorage, Err: err})
			continue
		}
		report.Fetched++
		log.Infof("[DRIVER] %s: saved %s (%d/%d)", src.Name, key, i+1, report.Total)
	}

	if err := report.WriteReports(d.opts.Root); err != nil {
		log.Errorf("[DRIVER] %s: unable to write failure reports: %v", src.Name, err)
	}

	log.Infof("[DRIVER] %s finished: total=%d fetched=%d skipped=%d failed=%d parse_failed=%d",
		src.Name, report.Total, report.Fetched, report.Skipped, report.Failed, len(report.ParseFailures))
	return report, runErr
}

func (d *Driver) fail(ctx context.Context, report *Report, f ItemFailure) {
	report.Failed++
	report.Failures = append(report.Failures, f)
	log.Warnf("[DRIVER] %s: %s failed (%s): %v", report.Stage, f.Key, f.Kind, f.Err)

	if d.opts.Sink != nil {
		if err := d.opts.Sink.RecordFailure(ctx, report.Stage, f.Key, f.Err.Error()); err != nil {
			log.Warnf("[DRIVER] failure sink: %v", err)
		}
	}
}

// pretty indents a response for storage; bodies are already valid JSON.
func pretty(body []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return body
	}
	return buf.Bytes()
}
