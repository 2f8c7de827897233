package sources

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_AreValid(t *testing.T) {
	c := Defaults()
	for _, name := range c.Names() {
		assert.NoError(t, c.Sources[name].Validate(), name)
	}

	assert.Equal(t, EnumPages, c.Sources["schools"].Enumeration())
	assert.Equal(t, EnumParent, c.Sources["history-programs"].Enumeration())
	assert.Equal(t, EnumMapping, c.Sources["details"].Enumeration())
	assert.Equal(t, EnumMappingYears, c.Sources["province-scores"].Enumeration())
	assert.True(t, c.Sources["schools"].Relaxed())
	assert.False(t, c.Sources["details"].Relaxed())
}

func TestLoad_MergesOverridesPerSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		sources: {
			schools: {pages: 2, headers: {Cookie: "C2AT=abc"}},
			"mirror": {url: "https://mirror.test/{page}", file: "m-{page}.json", pages: 1},
		},
	}`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	schools, err := c.Get("schools")
	require.NoError(t, err)
	assert.Equal(t, 2, schools.Pages)
	assert.Equal(t, "C2AT=abc", schools.Headers["Cookie"])
	assert.Equal(t, "XMLHttpRequest", schools.Headers["X-Requested-With"], "default headers kept")
	assert.Contains(t, schools.URL, "pageNo={page}", "unset fields keep defaults")

	mirror, err := c.Get("mirror")
	require.NoError(t, err)
	assert.Equal(t, "mirror", mirror.Name)

	assert.Equal(t, 11, Defaults().Sources["schools"].Pages, "defaults are not shared")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.json5"))
	require.NoError(t, err)
	assert.Len(t, c.Sources, len(Defaults().Sources))

	_, err = c.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestLoad_RejectsInvalidSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{sources: {orphan: {url: "https://x.test/{id}", file: "{id}.json", parent: "missing", params: ["id"]}}}`), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestBuildURL(t *testing.T) {
	s := Source{Name: "t", URL: "https://x.test/list?yxdh={yxdh}&name={name}", CacheBust: true}
	now := time.UnixMilli(1751158067866)

	raw, err := s.BuildURL(map[string]string{"yxdh": "1101", "name": "北京 大学&"}, now)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "1101", u.Query().Get("yxdh"))
	assert.Equal(t, "北京 大学&", u.Query().Get("name"))
	assert.Equal(t, "1751158067866", u.Query().Get("_"))

	_, err = s.BuildURL(map[string]string{"yxdh": "1101"}, now)
	assert.ErrorContains(t, err, "name")
}

func TestFileName_StaysInsideDirectory(t *testing.T) {
	s := Source{File: "{nf}-{yxmc}-{zyzdm}.json"}
	name, err := s.FileName(map[string]string{"nf": "2024", "yxmc": "a/b", "zyzdm": "01"})
	require.NoError(t, err)
	assert.Equal(t, "2024-a_b-01.json", name)

	bare := Source{Name: "bare", File: "{name}"}
	for _, v := range []string{"..", ".", ""} {
		_, err := bare.FileName(map[string]string{"name": v})
		assert.ErrorIs(t, err, ErrUnsafeFileName, "value %q", v)
	}
	name, err = bare.FileName(map[string]string{"name": "../x"})
	require.NoError(t, err)
	assert.Equal(t, ".._x", name)
}

func TestCatalog_OrderedPutsParentsFirst(t *testing.T) {
	assert.Equal(t, []string{
		"details", "schools", "groups", "history-groups", "history-programs", "programs", "province-scores",
	}, Defaults().Ordered())
}
