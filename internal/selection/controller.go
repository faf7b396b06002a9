package selection

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/peterkuimelis/edlookup/internal/log"
	"github.com/peterkuimelis/edlookup/internal/lookup"
)

// Phase is the lifecycle stage of a controller.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseReconciling
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseReconciling:
		return "Reconciling"
	case PhaseReady:
		return "Ready"
	default:
		return "Uninitialized"
	}
}

// Source is where the startup selection came from.
type Source int

const (
	SourceDefault Source = iota
	SourceQuery
	SourcePersisted
)

func (s Source) String() string {
	switch s {
	case SourceQuery:
		return "shared link"
	case SourcePersisted:
		return "saved selection"
	default:
		return "defaults"
	}
}

// ErrUnknownOption is returned when a value has no option in the layout.
var ErrUnknownOption = errors.New("no such option")

// Config wires a controller to its collaborators. Location, Renderer and
// Logger are optional.
type Config struct {
	Layout   Layout
	Store    Store
	Location Location
	Renderer Renderer
	Logger   log.EventLogger
}

// Controller owns the selected ranks and levels and reconciles them with a
// shared link, the persisted snapshot and the layout defaults.
//
// A Controller is not safe for concurrent use; every mutation runs to
// completion (persist and render included) before the next one starts.
type Controller struct {
	layout   Layout
	defaults map[Kind][]string // labels checked at construction
	store    Store
	location Location
	renderer Renderer
	logger   log.EventLogger

	phase  Phase
	source Source
}

// NewController captures the layout defaults, restores the startup selection
// (shared link first, then the persisted snapshot, then the defaults) and
// renders it.
func NewController(cfg Config) *Controller {
	c := &Controller{
		layout:   cfg.Layout.Clone(),
		defaults: make(map[Kind][]string),
		store:    cfg.Store,
		location: cfg.Location,
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
	}
	if c.renderer == nil {
		c.renderer = nopRenderer{}
	}
	if c.logger == nil {
		c.logger = log.Discard
	}

	c.captureDefaults()
	c.reconcile()
	return c
}

func (c *Controller) captureDefaults() {
	for _, kind := range Kinds {
		for _, o := range c.layout.Options(kind) {
			if o.Checked {
				c.defaults[kind] = append(c.defaults[kind], o.Label)
			}
		}
	}
}

func (c *Controller) reconcile() {
	c.phase = PhaseReconciling

	var params url.Values
	if c.location != nil {
		params = c.location.Params()
	}

	if snap, err := DecodeQuery(params); err == nil {
		c.apply(snap)
		c.source = SourceQuery
	} else {
		if !errors.Is(err, ErrNoQueryState) {
			c.logger.Log(log.NewQueryRejectedEvent(err))
		}
		if snap, err := c.loadSnapshot(); err == nil {
			c.apply(snap)
			c.source = SourcePersisted
		} else if !errors.Is(err, ErrNoSnapshot) {
			c.logger.Log(log.NewSnapshotRejectedEvent(err))
		}
	}

	// The link is consumed once, valid or not, so a refresh does not re-apply
	// or re-reject it.
	if HasQueryState(params) {
		DeleteQuery(params)
		c.location.ReplaceParams(params)
		c.logger.Log(log.NewQueryConsumedEvent())
	}

	current := c.Snapshot()
	c.logger.Log(log.NewReconcileEvent(c.source.String(), current.XYZ, current.Fusion))
	c.phase = PhaseReady

	c.renderCapacity()
	c.render(current)
}

func (c *Controller) loadSnapshot() (Snapshot, error) {
	if c.store == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	raw, ok, err := c.store.Get(StorageKey)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", StorageKey, err)
	}
	if !ok || raw == "" {
		return Snapshot{}, ErrNoSnapshot
	}
	return DecodeSnapshot(raw)
}

// apply checks exactly the options whose value is in snap, without
// persisting.
func (c *Controller) apply(snap Snapshot) {
	for _, kind := range Kinds {
		values := snap.Values(kind)
		c.setWith(kind, func(o Option) bool { return containsInt(values, o.Value) }, false)
	}
}

// --- Queries ---

// Phase returns the lifecycle stage.
func (c *Controller) Phase() Phase { return c.phase }

// Source returns where the startup selection came from.
func (c *Controller) Source() Source { return c.source }

// Options returns a copy of the options of one kind.
func (c *Controller) Options(kind Kind) []Option {
	return append([]Option(nil), c.layout.Options(kind)...)
}

// Layout returns a copy of the current layout, checked flags included.
func (c *Controller) Layout() Layout {
	return c.layout.Clone()
}

// Snapshot returns the checked values, ascending and without duplicates.
func (c *Controller) Snapshot() Snapshot {
	var s Snapshot
	for _, o := range c.layout.XYZ {
		if o.Checked {
			s.XYZ = append(s.XYZ, o.Value)
		}
	}
	for _, o := range c.layout.Fusion {
		if o.Checked {
			s.Fusion = append(s.Fusion, o.Value)
		}
	}
	return s.Normalized()
}

// Capacity returns the advisory slot counter: two per checked XYZ option and
// one per checked Fusion option.
func (c *Controller) Capacity() Capacity {
	used := 0
	for _, kind := range Kinds {
		for _, o := range c.layout.Options(kind) {
			if o.Checked {
				used += kind.Weight()
			}
		}
	}
	return Capacity{Used: used, Limit: CapacityLimit}
}

// Grid builds the solution grid for the current selection.
func (c *Controller) Grid() lookup.Grid {
	s := c.Snapshot()
	return lookup.Build(s.XYZ, s.Fusion)
}

// Share returns base with the current selection encoded in its query. Other
// query parameters of base are kept. Nothing is persisted or re-rendered.
func (c *Controller) Share(base *url.URL) string {
	u := url.URL{}
	if base != nil {
		u = *base
	}
	q := u.Query()
	EncodeQuery(q, c.Snapshot())
	u.RawQuery = q.Encode()
	link := u.String()
	c.logger.Log(log.NewShareEvent(link))
	return link
}

// --- Mutations ---

// SetWith checks every option of kind for which pred returns true and
// unchecks the rest. If anything changed the new selection is persisted and
// rendered. It reports whether anything changed. A nil pred panics.
func (c *Controller) SetWith(kind Kind, pred func(Option) bool) bool {
	return c.setWith(kind, pred, true)
}

func (c *Controller) setWith(kind Kind, pred func(Option) bool, dispatch bool) bool {
	if pred == nil {
		panic("selection: SetWith requires a non-nil predicate")
	}
	opts := c.layout.Options(kind)

	changed := false
	for i := range opts {
		next := pred(opts[i])
		if opts[i].Checked != next {
			opts[i].Checked = next
			changed = true
		}
	}

	if changed && dispatch {
		c.change()
	}
	return changed
}

// SetChecked sets every option of kind with the given value.
func (c *Controller) SetChecked(kind Kind, value int, checked bool) (bool, error) {
	if !c.hasValue(kind, value) {
		return false, fmt.Errorf("%s %d: %w", kind, value, ErrUnknownOption)
	}
	c.logger.Log(log.NewToggleEvent(kind.String(), value, checked))
	return c.SetWith(kind, func(o Option) bool {
		if o.Value == value {
			return checked
		}
		return o.Checked
	}), nil
}

// Toggle flips the options of kind with the given value. When the value
// appears on several rows they all take the opposite of the first one.
func (c *Controller) Toggle(kind Kind, value int) (bool, error) {
	for _, o := range c.layout.Options(kind) {
		if o.Value == value {
			return c.SetChecked(kind, value, !o.Checked)
		}
	}
	return false, fmt.Errorf("%s %d: %w", kind, value, ErrUnknownOption)
}

// SelectAll checks every option of kind.
func (c *Controller) SelectAll(kind Kind) bool {
	c.logger.Log(log.NewSelectAllEvent(kind.String()))
	return c.SetWith(kind, func(Option) bool { return true })
}

// Clear unchecks every option of kind.
func (c *Controller) Clear(kind Kind) bool {
	c.logger.Log(log.NewClearEvent(kind.String()))
	return c.SetWith(kind, func(Option) bool { return false })
}

// Reset restores the options of kind that were checked at construction,
// matching rows by label.
func (c *Controller) Reset(kind Kind) bool {
	labels := c.defaults[kind]
	c.logger.Log(log.NewResetEvent(kind.String(), labels))
	return c.SetWith(kind, func(o Option) bool { return containsString(labels, o.Label) })
}

func (c *Controller) hasValue(kind Kind, value int) bool {
	for _, o := range c.layout.Options(kind) {
		if o.Value == value {
			return true
		}
	}
	return false
}

// change runs the capacity, persist and render steps after a user change.
func (c *Controller) change() {
	c.renderCapacity()
	snap := c.persist()
	c.render(snap)
}

func (c *Controller) persist() Snapshot {
	snap := c.Snapshot()
	if c.store == nil {
		return snap
	}
	encoded := snap.Encode()
	if err := c.store.Set(StorageKey, encoded); err != nil {
		c.logger.Log(log.NewPersistFailedEvent(StorageKey, err))
		return snap
	}
	c.logger.Log(log.NewPersistEvent(StorageKey, encoded))
	return snap
}

func (c *Controller) renderCapacity() {
	capacity := c.Capacity()
	if capacity.Exceeded() {
		c.logger.Log(log.NewCapacityExceededEvent(capacity.Used, capacity.Limit))
	}
	c.renderer.RenderCapacity(capacity)
}

func (c *Controller) render(snap Snapshot) {
	g := lookup.Build(snap.XYZ, snap.Fusion)
	c.logger.Log(log.NewRenderEvent(g.Len(), g.MinOpponentLevel, g.MaxOpponentLevel, g.MinCardsInPlay, g.MaxCardsInPlay))
	c.renderer.RenderGrid(g)
}
