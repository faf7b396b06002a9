package mcp

import (
	"github.com/peterkuimelis/edlookup/internal/lookup"
	"github.com/peterkuimelis/edlookup/internal/selection"
)

// toolRenderer implements selection.Renderer by keeping the last drawn
// counter and grid for the next tool response.
type toolRenderer struct {
	capacity selection.Capacity
	grid     lookup.Grid
}

// RenderCapacity implements selection.Renderer.
func (r *toolRenderer) RenderCapacity(c selection.Capacity) {
	r.capacity = c
}

// RenderGrid implements selection.Renderer.
func (r *toolRenderer) RenderGrid(g lookup.Grid) {
	r.grid = g
}
