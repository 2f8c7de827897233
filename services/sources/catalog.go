package sources

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"dario.cat/mergo"
	"github.com/gofiber/fiber/v2/log"

	"github.com/sahilchouksey/gaokao-ingest/config"
	"github.com/sahilchouksey/gaokao-ingest/utils/validation"
)

// Enumeration is how a source derives its work items.
type Enumeration string

const (
	EnumPages        Enumeration = "pages"         // page numbers 1..Pages
	EnumParent       Enumeration = "parent"        // records stored by another source
	EnumMapping      Enumeration = "mapping"       // a {name: code} file
	EnumMappingYears Enumeration = "mapping-years" // mapping × Years
)

// Source configures one remote endpoint and how its responses are stored.
type Source struct {
	Name        string `json:"name" validate:"required"`
	DisplayName string `json:"display_name"`
	// URL and File are templates; {param} is replaced by the work item's
	// parameter of that name.
	URL  string `json:"url" validate:"required"`
	File string `json:"file" validate:"required"`
	// Dir is the directory under the data root; defaults to Name.
	Dir string `json:"dir"`

	Pages   int      `json:"pages" validate:"gte=0"`
	Parent  string   `json:"parent"`
	Params  []string `json:"params"`
	Mapping string   `json:"mapping"`
	Years   []int    `json:"years"`

	// Entity is the table imported from this source; empty means fetch-only.
	Entity string `json:"entity"`
	// ParamsAsParent merges work-item params under every record, for
	// endpoints whose records omit their own identifiers.
	ParamsAsParent bool `json:"params_as_parent"`

	Timeout        int               `json:"timeout" validate:"gte=0"`          // seconds
	MaxRetries     int               `json:"max_retries" validate:"gte=0"`      // 0 uses the global budget
	RateLimitDelay int               `json:"rate_limit_delay" validate:"gte=0"` // milliseconds between fetches
	RelaxedTLS     *bool             `json:"relaxed_tls"`
	CacheBust      bool              `json:"cache_bust"`
	Headers        map[string]string `json:"headers"`
}

// Enumeration reports how work items for s are produced.
func (s Source) Enumeration() Enumeration {
	switch {
	case s.Pages > 0:
		return EnumPages
	case s.Parent != "":
		return EnumParent
	case s.Mapping != "" && len(s.Years) > 0:
		return EnumMappingYears
	case s.Mapping != "":
		return EnumMapping
	}
	return ""
}

// Directory returns the storage directory name.
func (s Source) Directory() string {
	if s.Dir != "" {
		return s.Dir
	}
	return s.Name
}

// Relaxed reports whether weak-cipher TLS fallback is allowed.
func (s Source) Relaxed() bool {
	return s.RelaxedTLS == nil || *s.RelaxedTLS
}

// Validate checks tags plus the enumeration rules.
func (s Source) Validate() error {
	if err := validation.Default().Check(s); err != nil {
		return fmt.Errorf("source %q: %w", s.Name, err)
	}
	if s.Enumeration() == "" {
		return fmt.Errorf("source %q: one of pages, parent or mapping is required", s.Name)
	}
	if s.Enumeration() == EnumParent && len(s.Params) == 0 {
		return fmt.Errorf("source %q: params are required with a parent", s.Name)
	}
	return nil
}

// Catalog is the set of configured sources keyed by name.
type Catalog struct {
	Sources map[string]Source `json:"sources"`
}

// ErrUnknownSource is returned for a name missing from the catalog.
var ErrUnknownSource = errors.New("unknown source")

// Load returns the default catalog overlaid with path (and its .local
// variant). Each source in the file is merged field by field over the
// default of the same name. A missing file yields the defaults.
func Load(path string) (Catalog, error) {
	catalog := Defaults()

	file, err := config.ReadFile[Catalog](path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debugf("[SOURCES] %s not found, using built-in catalog", path)
	case err != nil:
		return catalog, err
	default:
		for name, override := range file.Sources {
			merged := catalog.Sources[name]
			if err := mergo.Merge(&merged, override, mergo.WithOverride); err != nil {
				return catalog, fmt.Errorf("merge source %q: %w", name, err)
			}
			if merged.Name == "" {
				merged.Name = name
			}
			catalog.Sources[name] = merged
		}
	}

	for _, name := range catalog.Names() {
		if err := catalog.Sources[name].Validate(); err != nil {
			return catalog, err
		}
	}
	for _, name := range catalog.Names() {
		if parent := catalog.Sources[name].Parent; parent != "" {
			if _, ok := catalog.Sources[parent]; !ok {
				return catalog, fmt.Errorf("source %q: parent %q: %w", name, parent, ErrUnknownSource)
			}
		}
	}
	return catalog, nil
}

// Get returns the named source.
func (c Catalog) Get(name string) (Source, error) {
	s, ok := c.Sources[name]
	if !ok {
		return Source{}, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return s, nil
}

// Names returns every source name in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Sources))
	for n := range c.Sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Ordered returns every source name with parents before their children,
// otherwise in sorted order.
func (c Catalog) Ordered() []string {
	var out []string
	visited := make(map[string]bool, len(c.Sources))

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		if parent := c.Sources[name].Parent; parent != "" {
			if _, ok := c.Sources[parent]; ok {
				visit(parent)
			}
		}
		out = append(out, name)
	}
	for _, name := range c.Names() {
		visit(name)
	}
	return out
}
