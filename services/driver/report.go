package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/sahilchouksey/gaokao-ingest/services/fetcher"
)

// Failure kinds recorded by the driver in addition to the fetcher's.
const (
	KindTemplate fetcher.FailureKind = "template"
	KindStorage  fetcher.FailureKind = "storage"
)

// ItemFailure is one work item that did not complete.
type ItemFailure struct {
	Key  string
	URL  string
	Kind fetcher.FailureKind
	Err  error
}

// Report summarises a run. Total = Fetched + Skipped + Failed.
type Report struct {
	Stage         string
	Total         int
	Fetched       int
	Skipped       int
	Failed        int
	Failures      []ItemFailure
	ParseFailures []ParseFailure
}

// FailedKeys lists the key of every failed item, in order.
func (r *Report) FailedKeys() []string {
	keys := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		keys = append(keys, f.Key)
	}
	return keys
}

// FailureSink receives failures as they happen, e.g. for cross-run
// aggregation.
type FailureSink interface {
	RecordFailure(ctx context.Context, stage, key, reason string) error
}

// FailFile and ParseFailFile name the per-stage failure reports.
func FailFile(root, stage string) string {
	return filepath.Join(root, stage+"_fail.txt")
}

func ParseFailFile(root, stage string) string {
	return filepath.Join(root, stage+"_parse_fail.txt")
}

// WriteReports writes the failure and parse-failure lists under root, one
// entry per line. Empty lists remove stale reports from earlier runs.
func (r *Report) WriteReports(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	if err := writeLines(FailFile(root, r.Stage), r.FailedKeys()); err != nil {
		return err
	}

	return WriteParseFailures(root, r.Stage, r.ParseFailures)
}

// WriteParseFailures writes the unreadable file names of stage to its
// parse-failure report, or removes the report when there are none.
func WriteParseFailures(root, stage string, failures []ParseFailure) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	files := make([]string, 0, len(failures))
	for _, pf := range failures {
		files = append(files, pf.File)
	}
	return writeLines(ParseFailFile(root, stage), files)
}

func writeLines(path string, lines []string) error {
	if len(lines) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	log.Infof("[DRIVER] writing %d entries to %s", len(lines), path)
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}
