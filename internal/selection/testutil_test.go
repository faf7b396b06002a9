package selection

import (
	"errors"
	"net/url"
	"testing"

	"github.com/peterkuimelis/edlookup/internal/log"
	"github.com/peterkuimelis/edlookup/internal/lookup"
)

// fakeStore is an in-memory Store that can be made to fail writes.
type fakeStore struct {
	data     map[string]string
	failSet  bool
	setCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (s *fakeStore) Get(key string) (string, bool, error) {
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Set(key, value string) error {
	s.setCalls++
	if s.failSet {
		return errors.New("disk full")
	}
	s.data[key] = value
	return nil
}

// fakeLocation records every ReplaceParams call.
type fakeLocation struct {
	params   url.Values
	replaced []url.Values
}

func newFakeLocation(rawQuery string) *fakeLocation {
	q, _ := url.ParseQuery(rawQuery)
	return &fakeLocation{params: q}
}

func (l *fakeLocation) Params() url.Values {
	return cloneValues(l.params)
}

func (l *fakeLocation) ReplaceParams(params url.Values) {
	l.params = cloneValues(params)
	l.replaced = append(l.replaced, cloneValues(params))
}

// recordingRenderer keeps every frame it was asked to draw.
type recordingRenderer struct {
	grids      []lookup.Grid
	capacities []Capacity
}

func (r *recordingRenderer) RenderCapacity(c Capacity) {
	r.capacities = append(r.capacities, c)
}

func (r *recordingRenderer) RenderGrid(g lookup.Grid) {
	r.grids = append(r.grids, g)
}

func (r *recordingRenderer) lastGrid(t *testing.T) lookup.Grid {
	t.Helper()
	if len(r.grids) == 0 {
		t.Fatal("Expected at least one rendered grid")
	}
	return r.grids[len(r.grids)-1]
}

func (r *recordingRenderer) lastCapacity(t *testing.T) Capacity {
	t.Helper()
	if len(r.capacities) == 0 {
		t.Fatal("Expected at least one rendered capacity")
	}
	return r.capacities[len(r.capacities)-1]
}

// harness bundles a controller with its fakes.
type harness struct {
	ctrl     *Controller
	store    *fakeStore
	location *fakeLocation
	renderer *recordingRenderer
	logger   *log.MemoryLogger
}

type harnessOpt func(*harness, *Layout)

func withQuery(raw string) harnessOpt {
	return func(h *harness, _ *Layout) { h.location = newFakeLocation(raw) }
}

func withSaved(value string) harnessOpt {
	return func(h *harness, _ *Layout) { h.store.data[StorageKey] = value }
}

func withLayout(l Layout) harnessOpt {
	return func(_ *harness, dst *Layout) { *dst = l }
}

func newHarness(t *testing.T, opts ...harnessOpt) *harness {
	t.Helper()
	h := &harness{
		store:    newFakeStore(),
		location: newFakeLocation(""),
		renderer: &recordingRenderer{},
		logger:   log.NewMemoryLogger(),
	}
	layout := testLayout()
	for _, opt := range opts {
		opt(h, &layout)
	}
	h.ctrl = NewController(Config{
		Layout:   layout,
		Store:    h.store,
		Location: h.location,
		Renderer: h.renderer,
		Logger:   h.logger,
	})
	return h
}

// testLayout has values 1..13 for both kinds with ranks 3,4 and levels 1,2
// checked by default.
func testLayout() Layout {
	l := DefaultLayout()
	for i := range l.XYZ {
		l.XYZ[i].Checked = l.XYZ[i].Value == 3 || l.XYZ[i].Value == 4
	}
	for i := range l.Fusion {
		l.Fusion[i].Checked = l.Fusion[i].Value <= 2
	}
	return l
}

func assertInts(t *testing.T, what string, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s: expected %v, got %v", what, want, got)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("%s: expected %v, got %v", what, want, got)
			return
		}
	}
}
