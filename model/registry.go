package model

import (
	"fmt"
	"reflect"
)

// Field names a key in an upstream JSON record.
type Field string

// Embedded list fields that must never be copied onto flattened rows.
const (
	FieldGroupList Field = "yxNfZyzVoList" // program-group history nested under a school
	FieldYearList  Field = "yxnfList"      // year index nested under a school
)

// Layout describes how a source record nests its children. A zero Layout
// means records are already flat.
type Layout struct {
	ListField Field
	Excluded  []Field
}

// Nested builds a Layout that flattens list and drops it, plus any other
// parent fields named in also, from every produced row.
func Nested(list Field, also ...Field) Layout {
	excluded := append([]Field{list}, also...)
	return Layout{ListField: list, Excluded: excluded}
}

// IsFlat reports whether records are used as-is.
func (l Layout) IsFlat() bool {
	return l.ListField == ""
}

// Entity is the registry definition of one persisted table.
type Entity struct {
	Name       string
	Model      any
	NaturalKey []string // column names, in unique index order
	Layout     Layout
	AppendOnly bool // historical snapshots: never written in replace mode
}

var registry = []Entity{
	{
		Name:       "institutions",
		Model:      &Institution{},
		NaturalKey: []string{"yxdm", "yxdh", "yxmc"},
	},
	{
		Name:       "program_groups",
		Model:      &ProgramGroup{},
		NaturalKey: []string{"zyzdm", "yxdh", "zyzbh"},
	},
	{
		Name:       "programs",
		Model:      &Program{},
		NaturalKey: []string{"yxdh", "zyzdm", "zydm", "zydh"},
	},
	{
		Name:       "historical_program_group_scores",
		Model:      &HistoricalProgramGroupScore{},
		NaturalKey: []string{"nf", "yxdm", "zyzdm", "zyzbh"},
		Layout:     Nested(FieldGroupList, FieldYearList),
		AppendOnly: true,
	},
	{
		Name:       "historical_program_scores",
		Model:      &HistoricalProgramScore{},
		NaturalKey: []string{"nf", "yxmc", "zyzdm", "zyzbh", "zymc", "pjmc", "pjf", "lqrs", "zydm"},
		AppendOnly: true,
	},
	{
		Name:       "institution_details",
		Model:      &InstitutionDetail{},
		NaturalKey: []string{"school_id"},
	},
	{Name: "master_degree_points", Model: &MasterDegreePoint{}},
	{Name: "doctorate_degree_points", Model: &DoctorateDegreePoint{}},
	{Name: "subjects", Model: &Subject{}},
	{Name: "specialties", Model: &Specialty{}},
	{
		Name:       "ingest_runs",
		Model:      &IngestRun{},
		NaturalKey: []string{"run_id"},
	},
}

// Entities returns every registered entity, parents before children.
func Entities() []Entity {
	out := make([]Entity, len(registry))
	copy(out, registry)
	return out
}

// Models returns the registered models in migration order.
func Models() []any {
	models := make([]any, 0, len(registry))
	for _, e := range registry {
		models = append(models, e.Model)
	}
	return models
}

// Lookup finds an entity by table name.
func Lookup(name string) (Entity, bool) {
	for _, e := range registry {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// EntityFor finds the entity whose model has the same type as v.
func EntityFor(v any) (Entity, error) {
	t := reflect.TypeOf(v)
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	for _, e := range registry {
		if reflect.TypeOf(e.Model).Elem() == t {
			return e, nil
		}
	}
	return Entity{}, fmt.Errorf("no registered entity for %v", t)
}
