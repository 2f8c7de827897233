package driver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/sahilchouksey/gaokao-ingest/model"
	"github.com/sahilchouksey/gaokao-ingest/services/normalize"
)

// ErrParse marks a stored file that exists but cannot be used as input.
var ErrParse = errors.New("checkpoint file cannot be parsed")

// Params are the named values identifying one work item.
type Params map[string]string

// Key renders params as a stable identifier, ordered by fields.
func (p Params) Key(fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+"="+p[f])
	}
	return strings.Join(parts, "&")
}

// ParseFailure is an input file that could not be read during enumeration.
type ParseFailure struct {
	File string
	Err  error
}

// PageRange yields {page: 1..n}.
func PageRange(n int) []Params {
	out := make([]Params, 0, n)
	for page := 1; page <= n; page++ {
		out = append(out, Params{"page": strconv.Itoa(page)})
	}
	return out
}

// FromParentFiles reads every *.json file in dir, flattens its records with
// layout and extracts fields from each row. Rows missing a field are
// skipped; duplicate parameter tuples are dropped. Files that cannot be
// parsed are returned as ParseFailures and never abort enumeration.
func FromParentFiles(dir string, layout model.Layout, fields []string) ([]Params, []ParseFailure, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		if _, statErr := os.Stat(dir); statErr != nil {
			return nil, nil, fmt.Errorf("parent directory %s: %w", dir, statErr)
		}
	}
	sort.Strings(files)

	seen := mapset.NewThreadUnsafeSet[string]()
	var out []Params
	var failures []ParseFailure

	for _, file := range files {
		rows, err := readRows(file, layout)
		if err != nil {
			failures = append(failures, ParseFailure{File: filepath.Base(file), Err: fmt.Errorf("%w: %w", ErrParse, err)})
			continue
		}

		for _, row := range rows {
			p, ok := extract(row, fields)
			if !ok {
				continue
			}
			if key := p.Key(fields); seen.Add(key) {
				out = append(out, p)
			}
		}
	}

	log.Infof("[DRIVER] %s: %d work items from %d files (%d unreadable)", dir, len(out), len(files), len(failures))
	return out, failures, nil
}

func readRows(file string, layout model.Layout) ([]normalize.Record, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	doc, err := normalize.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	records, err := doc.Records()
	if err != nil {
		return nil, err
	}
	return normalize.Flatten(records, layout, nil), nil
}

func extract(row normalize.Record, fields []string) (Params, bool) {
	p := make(Params, len(fields))
	for _, f := range fields {
		v, ok := normalize.AsString(row[f])
		if !ok || v == "" {
			return nil, false
		}
		p[f] = v
	}
	return p, true
}

// FromMapping reads a {name: code} JSON object and yields {name, code}
// ordered by name.
func FromMapping(path string) ([]Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Params, 0, len(names))
	for _, name := range names {
		code, ok := normalize.AsString(raw[name])
		if !ok || code == "" {
			log.Warnf("[DRIVER] mapping %s: %q has no usable code", filepath.Base(path), name)
			continue
		}
		out = append(out, Params{"name": name, "code": code})
	}
	return out, nil
}

// CrossYears pairs every item with every year.
func CrossYears(items []Params, years []int) []Params {
	out := make([]Params, 0, len(items)*len(years))
	for _, item := range items {
		for _, y := range years {
			p := make(Params, len(item)+1)
			for k, v := range item {
				p[k] = v
			}
			p["year"] = strconv.Itoa(y)
			out = append(out, p)
		}
	}
	return out
}
