package lookup

// MaxOpponentLevel is the highest level or rank a monster can have.
// Combinations whose opponent level exceeds it are pruned.
const MaxOpponentLevel = 13

// Pair is the (XYZ rank, Fusion level) combination that produced a cell.
type Pair struct {
	Rank  int
	Level int
}

// Grid is a sparse table keyed by opponent monster level, then by the number
// of cards in the hands and on the field.
type Grid struct {
	Cells map[int]map[int]Pair

	MinOpponentLevel int
	MaxOpponentLevel int
	MinCardsInPlay   int
	MaxCardsInPlay   int
}

// Empty reports whether no combination produced a cell. Bounds carry no
// meaning for an empty grid.
func (g Grid) Empty() bool {
	return len(g.Cells) == 0
}

// At returns the pair stored at the given cell, if any.
func (g Grid) At(opponentLevel, cardsInPlay int) (Pair, bool) {
	row, ok := g.Cells[opponentLevel]
	if !ok {
		return Pair{}, false
	}
	p, ok := row[cardsInPlay]
	return p, ok
}

// Len returns the number of populated cells.
func (g Grid) Len() int {
	n := 0
	for _, row := range g.Cells {
		n += len(row)
	}
	return n
}

// bounds tracks a running min/max with seed-then-extend semantics: the first
// sample seeds both ends, every later sample extends at most one end.
type bounds struct {
	seeded   bool
	min, max int
}

func (b *bounds) add(v int) {
	if !b.seeded {
		b.min, b.max = v, v
		b.seeded = true
		return
	}
	if v < b.min {
		b.min = v
	} else if v > b.max {
		b.max = v
	}
}

// Build computes the solution grid for the given ranks and levels.
//
// Levels are iterated in the supplied order and, for each level, ranks in the
// supplied order. Ranks must be ascending: the scan for a level stops at the
// first rank whose opponent level exceeds MaxOpponentLevel. When two
// combinations land on the same cell the later one wins.
func Build(ranks, levels []int) Grid {
	g := Grid{Cells: make(map[int]map[int]Pair)}
	var opp, cards bounds

	for _, level := range levels {
		for _, rank := range ranks {
			c1 := rank + level
			if c1 > MaxOpponentLevel {
				break
			}
			c2 := 2*rank + level

			row, ok := g.Cells[c1]
			if !ok {
				row = make(map[int]Pair)
				g.Cells[c1] = row
			}
			row[c2] = Pair{Rank: rank, Level: level}

			opp.add(c1)
			cards.add(c2)
		}
	}

	g.MinOpponentLevel, g.MaxOpponentLevel = opp.min, opp.max
	g.MinCardsInPlay, g.MaxCardsInPlay = cards.min, cards.max
	return g
}
