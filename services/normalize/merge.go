package normalize

import (
	"github.com/sahilchouksey/gaokao-ingest/model"
)

// FieldSet is a set of upstream field names.
type FieldSet map[model.Field]struct{}

// NewFieldSet builds a FieldSet from fields.
func NewFieldSet(fields ...model.Field) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Has reports whether name is in the set.
func (s FieldSet) Has(name string) bool {
	_, ok := s[model.Field(name)]
	return ok
}

// Merge returns a new record holding every parent field not in excluded,
// overlaid with every child field. Child values win on collision. Neither
// input is modified.
func Merge(parent, child Record, excluded FieldSet) Record {
	out := make(Record, len(parent)+len(child))
	for k, v := range parent {
		if excluded.Has(k) {
			continue
		}
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

// Flatten expands records according to layout and returns one row per child.
// base, when non-nil, acts as the outermost parent of every row; work-item
// parameters are passed this way for endpoints whose records omit them.
//
// A nested record whose list is missing or empty yields no rows.
func Flatten(records []Record, layout model.Layout, base Record) []Record {
	excluded := NewFieldSet(layout.Excluded...)
	rows := make([]Record, 0, len(records))

	for _, rec := range records {
		parent := rec
		if base != nil {
			parent = Merge(base, rec, nil)
		}

		if layout.IsFlat() {
			rows = append(rows, Merge(parent, nil, excluded))
			continue
		}

		children, err := asRecords(rec[string(layout.ListField)])
		if err != nil {
			continue
		}
		for _, child := range children {
			rows = append(rows, Merge(parent, child, excluded))
		}
	}
	return rows
}
