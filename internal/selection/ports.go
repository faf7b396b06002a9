package selection

import (
	"net/url"

	"github.com/peterkuimelis/edlookup/internal/lookup"
)

// Store is an opaque key-value store holding the persisted snapshot.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Location is the current address whose query may carry a shared selection.
type Location interface {
	Params() url.Values
	ReplaceParams(params url.Values)
}

// Renderer draws the capacity counter and the solution grid.
type Renderer interface {
	RenderCapacity(c Capacity)
	RenderGrid(g lookup.Grid)
}

// Capacity is the advisory Extra Deck slot counter.
type Capacity struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// CapacityLimit is the number of Extra Deck slots.
const CapacityLimit = 15

// Exceeded reports whether the selection needs more slots than the limit.
func (c Capacity) Exceeded() bool {
	return c.Used > c.Limit
}

// CapacityOf counts the slots a snapshot needs.
func CapacityOf(s Snapshot) Capacity {
	used := len(s.XYZ)*KindXYZ.Weight() + len(s.Fusion)*KindFusion.Weight()
	return Capacity{Used: used, Limit: CapacityLimit}
}

// --- In-memory location ---

// StaticLocation is a Location backed by a url.Values. Used where there is no
// live address bar, e.g. a terminal session seeded from a pasted link.
type StaticLocation struct {
	params url.Values
}

// NewStaticLocation returns a location carrying the given raw query.
// Malformed pairs are dropped and the rest is kept.
func NewStaticLocation(rawQuery string) *StaticLocation {
	q, _ := url.ParseQuery(rawQuery)
	return &StaticLocation{params: q}
}

func (l *StaticLocation) Params() url.Values {
	return cloneValues(l.params)
}

func (l *StaticLocation) ReplaceParams(params url.Values) {
	l.params = cloneValues(params)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// --- Discard renderer ---

type nopRenderer struct{}

func (nopRenderer) RenderCapacity(Capacity) {}
func (nopRenderer) RenderGrid(lookup.Grid) {}
