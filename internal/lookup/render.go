package lookup

import (
	"fmt"
	"io"
	"strings"
)

// NoSolutionMessage is shown in place of the table when the grid is empty.
const NoSolutionMessage = "No solution exists for this configuration. Try other XYZ Ranks and Fusion Levels."

// --- HTML ---

// WriteHTML writes the grid as the inner markup of a <table> element.
func WriteHTML(w io.Writer, g Grid) error {
	_, err := io.WriteString(w, HTML(g))
	return err
}

// HTML returns the grid as the inner markup of a <table> element.
func HTML(g Grid) string {
	if g.Empty() {
		return "<tr><td>⚠️ " + NoSolutionMessage + "</td></tr>"
	}

	var sb strings.Builder
	writeHead(&sb, g)
	writeBody(&sb, g)
	return sb.String()
}

func writeHead(sb *strings.Builder, g Grid) {
	sb.WriteString("<thead>\n<tr>\n")
	sb.WriteString(`<th rowspan="2" colspan="2" class="empty-first-cell"></th>` + "\n")
	fmt.Fprintf(sb, `<th colspan="%d">Number of cards in the hands and on the field</th>`+"\n", g.MaxCardsInPlay-g.MinCardsInPlay+2)
	sb.WriteString("</tr>\n<tr>\n")
	for j := g.MinCardsInPlay; j <= g.MaxCardsInPlay; j++ {
		fmt.Fprintf(sb, "<th>%d</th>\n", j)
	}
	sb.WriteString("</tr>\n</thead>\n")
}

func writeBody(sb *strings.Builder, g Grid) {
	sb.WriteString("<tbody>\n")
	for i := g.MinOpponentLevel; i <= g.MaxOpponentLevel; i++ {
		sb.WriteString("<tr>\n")
		if i == g.MinOpponentLevel {
			fmt.Fprintf(sb, `<th class="vertical-header" rowspan="%d" title="Opponent monster level or rank">Opp. monster level / rank</th>`+"\n",
				g.MaxOpponentLevel-g.MinOpponentLevel+1)
		}
		fmt.Fprintf(sb, "<th>%d</th>\n", i)

		for j := g.MinCardsInPlay; j <= g.MaxCardsInPlay; j++ {
			p, ok := g.At(i, j)
			if !ok {
				sb.WriteString(`<td class="" title=""></td>` + "\n")
				continue
			}
			fmt.Fprintf(sb, `<td class="cell-with-solution" title="%s">(%d,<span class="fusion-level">%d</span>)</td>`+"\n",
				p.Title(), p.Rank, p.Level)
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n")
}

// Title is the tooltip text for a populated cell.
func (p Pair) Title() string {
	return fmt.Sprintf("Rank %d XYZ, Level %d Fusion", p.Rank, p.Level)
}

// --- Text ---

// WriteText writes the grid as an aligned plain-text table, one row per
// opponent monster level.
func WriteText(w io.Writer, g Grid) error {
	_, err := io.WriteString(w, Text(g))
	return err
}

// Text returns the grid as an aligned plain-text table.
func Text(g Grid) string {
	if g.Empty() {
		return NoSolutionMessage + "\n"
	}

	const cellWidth = 8
	var sb strings.Builder
	sb.WriteString("Opp. lvl \\ cards in play\n")
	fmt.Fprintf(&sb, "%-*s", cellWidth, "")
	for j := g.MinCardsInPlay; j <= g.MaxCardsInPlay; j++ {
		fmt.Fprintf(&sb, "%*d", cellWidth, j)
	}
	sb.WriteByte('\n')

	for i := g.MinOpponentLevel; i <= g.MaxOpponentLevel; i++ {
		fmt.Fprintf(&sb, "%-*d", cellWidth, i)
		for j := g.MinCardsInPlay; j <= g.MaxCardsInPlay; j++ {
			cell := "."
			if p, ok := g.At(i, j); ok {
				cell = fmt.Sprintf("(%d,%d)", p.Rank, p.Level)
			}
			fmt.Fprintf(&sb, "%*s", cellWidth, cell)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- JSON ---

// CellView is a populated cell in the JSON representation of a grid.
type CellView struct {
	OpponentLevel int `json:"opponent_level"`
	CardsInPlay   int `json:"cards_in_play"`
	Rank          int `json:"rank"`
	Level         int `json:"level"`
}

// GridView is the JSON representation of a grid.
type GridView struct {
	Empty            bool       `json:"empty"`
	MinOpponentLevel int        `json:"min_opponent_level,omitempty"`
	MaxOpponentLevel int        `json:"max_opponent_level,omitempty"`
	MinCardsInPlay   int        `json:"min_cards_in_play,omitempty"`
	MaxCardsInPlay   int        `json:"max_cards_in_play,omitempty"`
	Cells            []CellView `json:"cells"`
}

// NewGridView flattens a grid into row-major cells.
func NewGridView(g Grid) GridView {
	v := GridView{Empty: g.Empty(), Cells: []CellView{}}
	if v.Empty {
		return v
	}
	v.MinOpponentLevel, v.MaxOpponentLevel = g.MinOpponentLevel, g.MaxOpponentLevel
	v.MinCardsInPlay, v.MaxCardsInPlay = g.MinCardsInPlay, g.MaxCardsInPlay
	for i := g.MinOpponentLevel; i <= g.MaxOpponentLevel; i++ {
		for j := g.MinCardsInPlay; j <= g.MaxCardsInPlay; j++ {
			if p, ok := g.At(i, j); ok {
				v.Cells = append(v.Cells, CellView{OpponentLevel: i, CardsInPlay: j, Rank: p.Rank, Level: p.Level})
			}
		}
	}
	return v
}
