package sources

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CacheBustParam is the query parameter carrying a millisecond timestamp.
const CacheBustParam = "_"

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Expand replaces every {name} in tmpl with params[name], passed through
// escape. A placeholder without a parameter is an error.
func Expand(tmpl string, params map[string]string, escape func(string) string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		if escape != nil {
			return escape(v)
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("template %q: missing params %s", tmpl, strings.Join(missing, ", "))
	}
	return out, nil
}

// BuildURL expands the URL template with query-escaped params and, when
// CacheBust is set, stamps the request with the current time.
func (s Source) BuildURL(params map[string]string, now time.Time) (string, error) {
	raw, err := Expand(s.URL, params, url.QueryEscape)
	if err != nil {
		return "", err
	}
	if !s.CacheBust {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("source %s: %w", s.Name, err)
	}
	q := u.Query()
	q.Set(CacheBustParam, strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var unsafeFileChars = strings.NewReplacer("/", "_", "\\", "_", "\x00", "")

// ErrUnsafeFileName is returned when a file name would not name a file
// inside the source directory.
var ErrUnsafeFileName = errors.New("file name leaves the source directory")

// FileName expands the file template. Path separators inside parameter
// values are replaced, and names that still resolve to the directory itself
// or outside it are rejected.
func (s Source) FileName(params map[string]string) (string, error) {
	name, err := Expand(s.File, params, unsafeFileChars.Replace)
	if err != nil {
		return "", err
	}
	if clean := filepath.Clean(name); clean == "." || !filepath.IsLocal(clean) {
		return "", fmt.Errorf("source %s: %q: %w", s.Name, name, ErrUnsafeFileName)
	}
	return name, nil
}
