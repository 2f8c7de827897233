package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"gorm.io/datatypes"
)

var (
	jsonType   = reflect.TypeOf(datatypes.JSON{})
	fieldCache sync.Map // reflect.Type -> []fieldBinding
)

type fieldBinding struct {
	index []int
	name  string
}

// Decode copies record values into the exported fields of dst, a pointer to
// a struct, matching on the `json` tag. Values are coerced permissively: a
// value that cannot be parsed into the field type leaves the field nil (or
// zero for non-pointer fields). Only a bad dst is an error.
func Decode(rec Record, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a non-nil struct pointer, got %T", dst)
	}
	elem := rv.Elem()

	for _, b := range bindings(elem.Type()) {
		raw, ok := rec[b.name]
		if !ok {
			continue
		}
		setField(elem.FieldByIndex(b.index), raw)
	}
	return nil
}

// DecodeAll decodes every record into a new T.
func DecodeAll[T any](records []Record) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		var row T
		_ = Decode(rec, &row)
		out = append(out, row)
	}
	return out
}

func bindings(t reflect.Type) []fieldBinding {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]fieldBinding)
	}

	var out []fieldBinding
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		tag := f.Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		if !supported(f.Type) {
			continue
		}
		out = append(out, fieldBinding{index: f.Index, name: name})
	}

	fieldCache.Store(t, out)
	return out
}

func supported(t reflect.Type) bool {
	if t == jsonType {
		return true
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String, reflect.Int, reflect.Int64, reflect.Bool:
		return true
	}
	return false
}

func setField(field reflect.Value, raw any) {
	if field.Type() == jsonType {
		if raw == nil {
			field.SetBytes(nil)
			return
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return
		}
		field.SetBytes(b)
		return
	}

	target := field.Type()
	isPtr := target.Kind() == reflect.Pointer
	if isPtr {
		target = target.Elem()
	}

	var val reflect.Value
	switch target.Kind() {
	case reflect.String:
		if s, ok := AsString(raw); ok {
			val = reflect.ValueOf(s).Convert(target)
		}
	case reflect.Int, reflect.Int64:
		if n, ok := AsInt(raw); ok {
			val = reflect.ValueOf(n).Convert(target)
		}
	case reflect.Bool:
		if b, ok := AsBool(raw); ok {
			val = reflect.ValueOf(b).Convert(target)
		}
	}

	if !val.IsValid() {
		field.Set(reflect.Zero(field.Type()))
		return
	}
	if isPtr {
		p := reflect.New(target)
		p.Elem().Set(val)
		field.Set(p)
		return
	}
	field.Set(val)
}

// AsString renders scalar JSON values as text. Objects, lists and null are
// not strings.
func AsString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

// AsInt parses integers from numbers and numeric strings. Fractional values
// are truncated; anything else is rejected.
func AsInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		return parseInt(x.String())
	case string:
		return parseInt(x)
	case float64:
		return floatToInt(x)
	case int:
		return x, true
	}
	return 0, false
}

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return floatToInt(f)
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// AsBool parses the flag encodings seen upstream: JSON booleans, 1/0,
// true/false, Y/N and 是/否.
func AsBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case json.Number:
		return parseBool(x.String())
	case float64:
		return parseBool(strconv.FormatFloat(x, 'f', -1, 64))
	case string:
		return parseBool(x)
	}
	return false, false
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "y", "yes", "是":
		return true, true
	case "0", "false", "f", "n", "no", "否":
		return false, true
	}
	return false, false
}
