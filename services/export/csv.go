package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/sahilchouksey/gaokao-ingest/model"
	"github.com/sahilchouksey/gaokao-ingest/services/driver"
	"github.com/sahilchouksey/gaokao-ingest/services/normalize"
)

// utf8BOM lets spreadsheet applications detect the encoding.
const utf8BOM = "\ufeff"

// Series is one exported table built from a group of stored responses.
type Series struct {
	Name   string
	Files  []string
	Header []string
	Rows   int
	Path   string
}

// SeriesName groups files by the part of their name before the first "-",
// or the whole stem when there is none.
func SeriesName(file string) string {
	base := filepath.Base(file)
	if i := strings.Index(base, "-"); i >= 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Options shape how a stage's stored responses become rows.
type Options struct {
	// Layout flattens nested records into one row per child.
	Layout model.Layout
	// Params maps a stored file name to the work item that produced it.
	// Its values are stamped on every row of that file.
	Params map[string]driver.Params
	// GroupBy names the work-item param that picks a file's series. Files
	// without it are grouped by SeriesName.
	GroupBy string
}

func (o Options) series(file string) string {
	if o.GroupBy != "" {
		if v := o.Params[filepath.Base(file)][o.GroupBy]; v != "" {
			return v
		}
	}
	return SeriesName(file)
}

func (o Options) base(file string) normalize.Record {
	params, ok := o.Params[filepath.Base(file)]
	if !ok {
		return nil
	}
	rec := make(normalize.Record, len(params))
	for k, v := range params {
		rec[k] = v
	}
	return rec
}

// GroupFiles returns the *.json files in dir keyed by series name.
func GroupFiles(dir string, opts Options) (map[string][]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	groups := make(map[string][]string)
	for _, f := range files {
		name := opts.series(f)
		groups[name] = append(groups[name], f)
	}
	return groups, nil
}

// ToCSV writes one <series>_<YYYYMMDD>.csv per series found in dir into
// outDir. Records are flattened with opts.Layout and stamped with their work
// item. Series without records are skipped; unreadable files are logged and
// left out.
func ToCSV(dir, outDir string, now time.Time, opts Options) ([]Series, error) {
	groups, err := GroupFiles(dir, opts)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no stored responses in %s", dir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	date := now.Format("20060102")
	var out []Series
	for _, name := range names {
		s := Series{Name: name, Files: groups[name]}

		var rows []normalize.Record
		for _, file := range s.Files {
			recs, err := readRecords(file)
			if err != nil {
				log.Warnf("[EXPORT] skipping %s: %v", filepath.Base(file), err)
				continue
			}
			rows = append(rows, normalize.Flatten(recs, opts.Layout, opts.base(file))...)
		}
		if len(rows) == 0 {
			log.Warnf("[EXPORT] series %s has no records", name)
			continue
		}

		s.Header = Header(rows)
		s.Rows = len(rows)
		s.Path = filepath.Join(outDir, fmt.Sprintf("%s_%s.csv", name, date))
		if err := writeCSV(s.Path, s.Header, rows); err != nil {
			return out, fmt.Errorf("write %s: %w", s.Path, err)
		}
		log.Infof("[EXPORT] %s: %d records from %d files -> %s", name, s.Rows, len(s.Files), s.Path)
		out = append(out, s)
	}
	return out, nil
}

// Header is the sorted union of keys across rows.
func Header(rows []normalize.Record) []string {
	keys := mapset.NewThreadUnsafeSet[string]()
	for _, row := range rows {
		for k := range row {
			keys.Add(k)
		}
	}
	header := keys.ToSlice()
	sort.Strings(header)
	return header
}

func readRecords(file string) ([]normalize.Record, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	doc, err := normalize.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Records()
}

func writeCSV(path string, header []string, rows []normalize.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}

	line := make([]string, len(header))
	for _, row := range rows {
		for i, key := range header {
			line[i] = Cell(row[key])
		}
		if err := w.Write(line); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// Cell renders a JSON value for a CSV cell. Absent and null values are
// blank; objects and arrays are written as JSON.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
