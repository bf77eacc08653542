package collector

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/samvad-hq/locinfo/internal/cache"
	"github.com/samvad-hq/locinfo/internal/domain"
	"github.com/samvad-hq/locinfo/pkg/publishers"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeSource answers every provider call from a per-argument table and counts calls.
type fakeSource struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		responses: make(map[string]string),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (f *fakeSource) set(arg, doc string) *fakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[arg] = doc
	return f
}

func (f *fakeSource) fail(arg string, err error) *fakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[arg] = err
	return f
}

func (f *fakeSource) answer(arg string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[arg]++
	if err := f.errs[arg]; err != nil {
		return nil, err
	}
	doc, ok := f.responses[arg]
	if !ok {
		return nil, nil
	}
	return json.RawMessage(doc), nil
}

func (f *fakeSource) count(arg string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[arg]
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeSource) Countries(_ context.Context, bloc string) (json.RawMessage, error) {
	return f.answer(bloc)
}
func (f *fakeSource) Rates(_ context.Context, base string) (json.RawMessage, error) {
	return f.answer(base)
}
func (f *fakeSource) Current(_ context.Context, query string) (json.RawMessage, error) {
	return f.answer(query)
}
func (f *fakeSource) TopHeadlines(_ context.Context, code string) (json.RawMessage, error) {
	return f.answer(code)
}

var errProviderDown = errors.New("provider down")

// recordingPublisher captures announced events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.events = append(r.events, evt)
	return 1, nil
}

func (r *recordingPublisher) kinds() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for _, evt := range r.events {
		out[evt.Kind]++
	}
	return out
}

// memTracker is an in-memory HeadlineTracker.
type memTracker struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemTracker() *memTracker { return &memTracker{seen: make(map[string]bool)} }

func (m *memTracker) SeenHeadline(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[id], nil
}

func (m *memTracker) MarkHeadline(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[id] = true
	return nil
}

type testEnv struct {
	fs    afero.Fs
	store *cache.Store
	deps  Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fsys := afero.NewMemMapFs()
	store, err := cache.NewStore(fsys, "/media", cache.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return &testEnv{fs: fsys, store: store, deps: Deps{Store: store, Concurrency: 2}}
}

// seed writes doc under key and backdates it by age.
func (e *testEnv) seed(t *testing.T, key, doc string, age time.Duration) {
	t.Helper()
	if err := e.store.Write(key, []byte(doc)); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
	e.backdate(t, key, age)
}

func (e *testEnv) backdate(t *testing.T, key string, age time.Duration) {
	t.Helper()
	mtime := testNow.Add(-age)
	if err := e.fs.Chtimes(e.store.Path(key), mtime, mtime); err != nil {
		t.Fatalf("Chtimes %s: %v", key, err)
	}
}

func (e *testEnv) mtime(t *testing.T, key string) time.Time {
	t.Helper()
	info, err := e.fs.Stat(e.store.Path(key))
	if err != nil {
		t.Fatalf("stat %s: %v", key, err)
	}
	return info.ModTime()
}

func (e *testEnv) content(t *testing.T, key string) string {
	t.Helper()
	raw, err := afero.ReadFile(e.fs, e.store.Path(key))
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return string(raw)
}

func (e *testEnv) exists(key string) bool {
	ok, _ := afero.Exists(e.fs, e.store.Path(key))
	return ok
}

const alandDoc = `[{
	"capital": "Mariehamn",
	"alpha2code": "AX",
	"alt_spellings": ["AX", "Aaland", "Aland", "Ahvenanmaa"],
	"area": 1580.0,
	"currencies": [{"code": "EUR"}],
	"flag": "http://assets.promptapi.com/flags/AX.svg",
	"languages": [{"name": "Swedish", "native_name": "svenska"}],
	"name": "Åland Islands",
	"population": 28875,
	"subregion": "Northern Europe",
	"timezones": ["UTC+02:00"]
}]`

const balticDoc = `[
	{"capital": "Riga", "alpha2code": "LV", "name": "Latvia", "population": 1961600, "currencies": [{"code": "EUR"}]},
	{"capital": "Tallinn", "alpha2code": "EE", "name": "Estonia", "population": 1315944, "currencies": [{"code": "EUR"}]},
	{"capital": "Mariehamn", "alpha2code": "AX", "name": "Åland Islands", "population": 28875, "currencies": [{"code": "EUR"}]}
]`

const weatherDoc = `{
	"weather": [{"description": "light rain"}],
	"main": {"temp": 13.92, "pressure": 1008, "humidity": 87},
	"visibility": 10000,
	"wind": {"speed": 5.14},
	"timezone": 10800
}`

const latviaNewsDoc = `{
	"status": "ok",
	"totalResults": 2,
	"articles": [
		{"author": "LSM", "title": "Riga opens new bridge", "description": null, "publishedAt": "2024-05-01T09:30:00Z", "content": null, "url": "https://lsm.lv/a/1"},
		{"author": null, "title": "Baltic weather turns", "description": "Rain ahead", "publishedAt": "not-a-date", "content": "Body", "url": "https://lsm.lv/a/2"}
	]
}`

func loc(capital, code string) domain.Location {
	return domain.Location{Capital: capital, Alpha2Code: code}
}
