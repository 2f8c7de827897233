package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofiber/fiber/v2/log"

	"github.com/sahilchouksey/gaokao-ingest/model"
	"github.com/sahilchouksey/gaokao-ingest/services/driver"
	"github.com/sahilchouksey/gaokao-ingest/services/normalize"
	"github.com/sahilchouksey/gaokao-ingest/services/sources"
	"github.com/sahilchouksey/gaokao-ingest/services/store"
	"github.com/sahilchouksey/gaokao-ingest/utils/validation"
)

// ErrNoDatabase is returned when importing without a database.
var ErrNoDatabase = errors.New("import requires a database")

// ImportReport summarises loading one source into the database.
type ImportReport struct {
	Stage   string
	Entity  string
	Mode    store.WriteMode
	Files   int
	Records int
	// Rejected rows failed validation and were not written.
	Rejected      []validation.RowError
	ParseFailures []driver.ParseFailure
	Result        store.Result
	// Details only: profiles inserted and replaced.
	Created int
	Updated int
}

type importFunc func(ctx context.Context, w *store.Writer, records []normalize.Record, mode store.WriteMode) (store.Result, []validation.RowError, error)

var importers = map[string]importFunc{
	"institutions":                    importRows[model.Institution],
	"program_groups":                  importRows[model.ProgramGroup],
	"programs":                        importRows[model.Program],
	"historical_program_group_scores": importRows[model.HistoricalProgramGroupScore],
	"historical_program_scores":       importRows[model.HistoricalProgramScore],
}

const detailEntity = "institution_details"

func importRows[T any](ctx context.Context, w *store.Writer, records []normalize.Record, mode store.WriteMode) (store.Result, []validation.RowError, error) {
	rows := normalize.DecodeAll[T](records)
	valid, rejected := validation.Filter(validation.Default(), rows)
	res, err := store.Write(ctx, w, valid, mode)
	return res, rejected, err
}

// Import loads every stored response of the named source into its entity
// table using mode.
func (p *Pipeline) Import(ctx context.Context, name string, mode store.WriteMode) (*ImportReport, error) {
	src, err := p.catalog.Get(name)
	if err != nil {
		return nil, err
	}
	if src.Entity == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrFetchOnly)
	}
	if p.db == nil {
		return nil, ErrNoDatabase
	}

	run := p.startRun(ctx, src.Name+".import")

	report, err := p.importSource(ctx, src, mode)
	stats := store.RunStats{Err: err}
	if report != nil {
		stats.Total = report.Files
		stats.Failed = len(report.Rejected)
		stats.ParseFailed = len(report.ParseFailures)
		stats.RowsWritten = report.Result.RowsAffected
		for _, pf := range report.ParseFailures {
			stats.Failures = append(stats.Failures, pf.File)
		}
	}
	p.finishRun(ctx, run, stats)

	if report != nil {
		if werr := driver.WriteParseFailures(p.settings.Root, importStage(src.Name), report.ParseFailures); werr != nil {
			log.Warnf("[PIPELINE] %s: writing parse failures: %v", src.Name, werr)
		}
	}
	return report, err
}

// importStage names the import reports, apart from the fetch reports of
// the same source.
func importStage(name string) string {
	return name + "_import"
}

func (p *Pipeline) importSource(ctx context.Context, src sources.Source, mode store.WriteMode) (*ImportReport, error) {
	report := &ImportReport{Stage: src.Name, Entity: src.Entity, Mode: mode}

	files, err := storedFiles(p.Dir(src))
	if err != nil {
		return report, err
	}
	report.Files = len(files)

	if src.Entity == detailEntity {
		return report, p.importDetails(ctx, files, report)
	}

	importer, ok := importers[src.Entity]
	if !ok {
		return report, fmt.Errorf("source %s: no importer for entity %q", src.Name, src.Entity)
	}
	entity, _ := model.Lookup(src.Entity)

	bases, err := p.paramsByFile(src)
	if err != nil {
		return report, err
	}

	var records []normalize.Record
	for _, file := range files {
		name := filepath.Base(file)
		var base normalize.Record
		if bases != nil {
			params, ok := bases[name]
			if !ok {
				report.ParseFailures = append(report.ParseFailures, driver.ParseFailure{
					File: name, Err: fmt.Errorf("%w: no work item produces this file", driver.ErrParse),
				})
				continue
			}
			base = paramsRecord(params)
		}

		recs, err := readRecords(file)
		if err != nil {
			report.ParseFailures = append(report.ParseFailures, driver.ParseFailure{File: name, Err: err})
			continue
		}
		records = append(records, normalize.Flatten(recs, entity.Layout, base)...)
	}
	report.Records = len(records)

	for _, pf := range report.ParseFailures {
		log.Warnf("[PIPELINE] %s: skipped %s: %v", src.Name, pf.File, pf.Err)
	}

	res, rejected, err := importer(ctx, p.writer, records, mode)
	report.Result = res
	report.Rejected = rejected
	for _, re := range rejected {
		log.Warnf("[PIPELINE] %s: rejected record %d: %v", src.Name, re.Index, re.Err)
	}
	if err != nil {
		return report, err
	}

	log.Infof("[PIPELINE] %s imported: files=%d records=%d rejected=%d rows=%d",
		src.Name, report.Files, report.Records, len(rejected), res.RowsAffected)
	return report, nil
}

// importDetails upserts one institution profile per file. Profiles changed
// concurrently by another writer are reported and skipped.
func (p *Pipeline) importDetails(ctx context.Context, files []string, report *ImportReport) error {
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := filepath.Base(file)

		detail, children, err := readDetail(file)
		if err != nil {
			report.ParseFailures = append(report.ParseFailures, driver.ParseFailure{File: name, Err: err})
			log.Warnf("[PIPELINE] details: skipped %s: %v", name, err)
			continue
		}
		report.Records++

		if err := validation.Default().Check(detail); err != nil {
			report.Rejected = append(report.Rejected, validation.RowError{Index: i, Err: err})
			continue
		}

		created, err := p.details.Upsert(ctx, detail, children)
		if errors.Is(err, store.ErrVersionConflict) {
			report.Rejected = append(report.Rejected, validation.RowError{Index: i, Err: err})
			log.Warnf("[PIPELINE] details: %s: %v", name, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("details %s: %w", name, err)
		}

		if created {
			report.Created++
		} else {
			report.Updated++
		}
		report.Result.RowsAffected += int64(1 + children.Len())
	}

	log.Infof("[PIPELINE] details imported: files=%d created=%d updated=%d",
		report.Files, report.Created, report.Updated)
	return nil
}

// paramsByFile maps each stored file name to the work item that produced
// it, for sources whose records omit their own identifiers.
func (p *Pipeline) paramsByFile(src sources.Source) (map[string]driver.Params, error) {
	if !src.ParamsAsParent {
		return nil, nil
	}
	return p.workItemsByFile(src)
}

func (p *Pipeline) workItemsByFile(src sources.Source) (map[string]driver.Params, error) {
	items, _, err := p.Enumerate(src)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", src.Name, err)
	}

	byFile := make(map[string]driver.Params, len(items))
	for _, params := range items {
		name, err := src.FileName(params)
		if err != nil {
			continue
		}
		byFile[name] = params
	}
	return byFile, nil
}

func paramsRecord(params driver.Params) normalize.Record {
	rec := make(normalize.Record, len(params))
	for k, v := range params {
		rec[k] = v
	}
	return rec
}

func storedFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("stored responses %s: %w", dir, err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func readDocument(file string) (normalize.Document, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return normalize.Document{}, err
	}
	doc, err := normalize.ParseDocument(data)
	if err != nil {
		return doc, fmt.Errorf("%w: %w", driver.ErrParse, err)
	}
	return doc, nil
}

func readRecords(file string) ([]normalize.Record, error) {
	doc, err := readDocument(file)
	if err != nil {
		return nil, err
	}
	recs, err := doc.Records()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driver.ErrParse, err)
	}
	return recs, nil
}

func readDetail(file string) (model.InstitutionDetail, model.DetailChildren, error) {
	doc, err := readDocument(file)
	if err != nil {
		return model.InstitutionDetail{}, model.DetailChildren{}, err
	}
	detail, children, err := normalize.DetailFromDocument(doc)
	if err != nil {
		return detail, children, fmt.Errorf("%w: %w", driver.ErrParse, err)
	}
	return detail, children, nil
}
