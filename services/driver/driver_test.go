package driver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/gaokao-ingest/model"
	"github.com/sahilchouksey/gaokao-ingest/services/fetcher"
	"github.com/sahilchouksey/gaokao-ingest/services/sources"
)

type fakeFetcher struct {
	calls atomic.Int32
	fail  map[string]error // URL substring -> error
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string) (*fetcher.Result, error) {
	f.calls.Add(1)
	for frag, err := range f.fail {
		if strings.Contains(rawURL, frag) {
			return nil, err
		}
	}
	return &fetcher.Result{URL: rawURL, Status: 200, Attempts: 1, Body: []byte(`{"result":{"records":[]}}`)}, nil
}

type recordingSink struct {
	keys []string
}

func (s *recordingSink) RecordFailure(ctx context.Context, stage, key, reason string) error {
	s.keys = append(s.keys, stage+":"+key)
	return nil
}

func pageSource() sources.Source {
	return sources.Source{Name: "pages", URL: "https://x.test/list?page={page}", File: "p-{page}.json", Pages: 3}
}

func TestRun_ExistingFileIsNeverFetched(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "p-2.json"), []byte("truncated"), 0o644))

	f := &fakeFetcher{}
	report, err := New(f, Options{Root: root}).Run(context.Background(), Job{Source: pageSource(), Items: PageRange(3)})
	require.NoError(t, err)

	assert.EqualValues(t, 2, f.calls.Load())
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Skipped)

	data, err := os.ReadFile(filepath.Join(root, "pages", "p-2.json"))
	require.NoError(t, err)
	assert.Equal(t, "truncated", string(data), "existing checkpoint is trusted as-is")
}

func TestRun_SecondRunFetchesNothing(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{}
	d := New(f, Options{Root: root})
	job := Job{Source: pageSource(), Items: PageRange(3)}

	_, err := d.Run(context.Background(), job)
	require.NoError(t, err)
	require.EqualValues(t, 3, f.calls.Load())

	report, err := d.Run(context.Background(), job)
	require.NoError(t, err)
	assert.EqualValues(t, 3, f.calls.Load())
	assert.Equal(t, 3, report.Skipped)
	assert.Zero(t, report.Fetched)
}

func TestRun_ValidateRefetchesCorruptCheckpoint(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "p-1.json"), []byte(`{"result":`), 0o644))

	f := &fakeFetcher{}
	report, err := New(f, Options{Root: root, Checkpoint: Checkpoint{Validate: true}}).
		Run(context.Background(), Job{Source: pageSource(), Items: PageRange(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fetched)

	data, err := os.ReadFile(filepath.Join(root, "pages", "p-1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":{"records":[]}}`, string(data))
}

func TestRun_FailuresAreRecordedNotFatal(t *testing.T) {
	root := t.TempDir()
	sink := &recordingSink{}
	f := &fakeFetcher{fail: map[string]error{
		"page=2": &fetcher.Failure{Kind: fetcher.KindPermanentHTTP, Status: 404, Err: fmt.Errorf("status 404")},
	}}

	report, err := New(f, Options{Root: root, Sink: sink}).
		Run(context.Background(), Job{Source: pageSource(), Items: PageRange(3)})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "p-2", report.Failures[0].Key)
	assert.Equal(t, fetcher.KindPermanentHTTP, report.Failures[0].Kind)
	assert.Equal(t, []string{"pages:p-2"}, sink.keys)

	data, err := os.ReadFile(FailFile(root, "pages"))
	require.NoError(t, err)
	assert.Equal(t, "p-2\n", string(data))
	assert.NoFileExists(t, filepath.Join(root, "pages", "p-2.json"))

	// A clean rerun fetches only the failed item and clears the report.
	f.fail = nil
	report, err = New(f, Options{Root: root}).Run(context.Background(), Job{Source: pageSource(), Items: PageRange(3)})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fetched)
	assert.Equal(t, 2, report.Skipped)
	assert.NoFileExists(t, FailFile(root, "pages"))
}

func TestRun_MissingTemplateParamIsItemFailure(t *testing.T) {
	src := sources.Source{Name: "groups", URL: "https://x.test/?yxdh={yxdh}", File: "{yxmc}.json", Params: []string{"yxdh", "yxmc"}}
	f := &fakeFetcher{}

	report, err := New(f, Options{Root: t.TempDir()}).
		Run(context.Background(), Job{Source: src, Items: []Params{{"yxdh": "1101"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, KindTemplate, report.Failures[0].Kind)
	assert.Zero(t, f.calls.Load())
}

func TestRun_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{}
	report, err := New(f, Options{Root: t.TempDir()}).Run(ctx, Job{Source: pageSource(), Items: PageRange(3)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.calls.Load())
	assert.Equal(t, 3, report.Total)
}

func TestRun_AgainstHTTPServer(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.NotEmpty(t, r.URL.Query().Get("_"), "cache-busting stamp")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"result":{"records":[{"yxdh":%q,"yxmc":"学校%s"}]}}`, r.URL.Query().Get("page"), r.URL.Query().Get("page"))
	}))
	defer srv.Close()

	session, err := fetcher.NewSession(fetcher.DefaultOptions())
	require.NoError(t, err)

	root := t.TempDir()
	src := sources.Source{Name: "schools", URL: srv.URL + "/list?page={page}", File: "学校信息-{page}.json", Pages: 2, CacheBust: true}
	d := New(session, Options{Root: root, Pacer: NewPacer(DefaultPacerConfig(time.Millisecond))})

	report, err := d.Run(context.Background(), Job{Source: src, Items: PageRange(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Fetched)
	assert.EqualValues(t, 2, hits.Load())

	// Stored files feed the next stage's enumeration.
	items, failures, err := FromParentFiles(filepath.Join(root, "schools"), model.Layout{}, []string{"yxdh", "yxmc"})
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, items, 2)
	assert.Equal(t, Params{"yxdh": "1", "yxmc": "学校1"}, items[0])
}
