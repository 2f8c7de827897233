package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownShape is returned when a document matches none of the supported
// envelope shapes.
var ErrUnknownShape = errors.New("unrecognised document shape")

// Record is one JSON object decoded with json.Number for numeric values.
type Record map[string]any

// Document is a decoded top-level JSON object.
type Document struct {
	root Record
}

// ParseDocument decodes a top-level JSON object.
func ParseDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root Record
	if err := dec.Decode(&root); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	if root == nil {
		return Document{}, fmt.Errorf("decode document: %w", ErrUnknownShape)
	}
	return Document{root: root}, nil
}

// Data returns the object under "data" when the document uses the
// {"data": {...}} envelope.
func (d Document) Data() (Record, bool) {
	return asRecord(d.root["data"])
}

// Records returns the record list carried by the document. Supported shapes:
//
//	{"result": {"records": [...]}}
//	{"data": [...]}
//	{"data": {"item": [...]}}
//	{"data": {...}}               (a single record)
func (d Document) Records() ([]Record, error) {
	if result, ok := asRecord(d.root["result"]); ok {
		if raw, exists := result["records"]; exists {
			return asRecords(raw)
		}
	}

	data, exists := d.root["data"]
	if !exists {
		return nil, ErrUnknownShape
	}
	switch v := data.(type) {
	case []any:
		return asRecords(v)
	case map[string]any:
		if items, ok := v["item"]; ok {
			return asRecords(items)
		}
		return []Record{Record(v)}, nil
	case nil:
		return nil, nil
	}
	return nil, ErrUnknownShape
}

func asRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case map[string]any:
		return Record(m), true
	case Record:
		return m, true
	}
	return nil, false
}

func asRecords(v any) ([]Record, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of records, got %T: %w", v, ErrUnknownShape)
	}
	out := make([]Record, 0, len(list))
	for i, item := range list {
		rec, ok := asRecord(item)
		if !ok {
			return nil, fmt.Errorf("record %d is %T, not an object: %w", i, item, ErrUnknownShape)
		}
		out = append(out, rec)
	}
	return out, nil
}
