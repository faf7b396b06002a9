package selection

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// --- Kinds ---

// Kind identifies one of the two selectable card categories.
type Kind int

const (
	KindXYZ Kind = iota
	KindFusion
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindXYZ, KindFusion}

func (k Kind) String() string {
	switch k {
	case KindXYZ:
		return "xyz"
	case KindFusion:
		return "fusion"
	default:
		return "unknown"
	}
}

// Weight is the number of Extra Deck slots one selected option of this kind
// occupies: an XYZ rank needs two monsters, a Fusion level one.
func (k Kind) Weight() int {
	if k == KindXYZ {
		return 2
	}
	return 1
}

// ParseKind maps "xyz" and "fusion" (also "x"/"f") to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "xyz", "x", "rank":
		return KindXYZ, nil
	case "fusion", "f", "level":
		return KindFusion, nil
	default:
		return 0, fmt.Errorf("unknown kind %q (want xyz or fusion)", s)
	}
}

// Rank and level values are bounded by the highest monster level.
const (
	MinValue = 1
	MaxValue = 13
)

// ValidValue reports whether v is an admissible rank or level.
func ValidValue(v int) bool {
	return v >= MinValue && v <= MaxValue
}

// --- Layout ---

// Option is one selectable row: a rank or level value, the label shown next
// to it, and whether it is currently checked.
type Option struct {
	Value   int    `yaml:"value" json:"value"`
	Label   string `yaml:"label" json:"label"`
	Checked bool   `yaml:"checked" json:"checked"`
}

// Layout is the set of selectable options per kind. The Checked flags of a
// freshly loaded layout are the defaults restored by Reset.
type Layout struct {
	XYZ    []Option `yaml:"xyz" json:"xyz"`
	Fusion []Option `yaml:"fusion" json:"fusion"`
}

// Options returns the option list for a kind.
func (l *Layout) Options(kind Kind) []Option {
	switch kind {
	case KindXYZ:
		return l.XYZ
	case KindFusion:
		return l.Fusion
	default:
		panic(fmt.Sprintf("selection: unknown kind %d", kind))
	}
}

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	return Layout{
		XYZ:    append([]Option(nil), l.XYZ...),
		Fusion: append([]Option(nil), l.Fusion...),
	}
}

// defaultChecked is the pre-selection of the built-in layout.
var defaultChecked = map[Kind][]int{
	KindXYZ:    {2, 3, 4, 6},
	KindFusion: {1, 2, 3, 4, 5},
}

// DefaultLayout returns every value from MinValue to MaxValue for both kinds,
// labelled by number, with a small default pre-selection.
func DefaultLayout() Layout {
	var l Layout
	for _, kind := range Kinds {
		var opts []Option
		for v := MinValue; v <= MaxValue; v++ {
			opts = append(opts, Option{
				Value:   v,
				Label:   strconv.Itoa(v),
				Checked: containsInt(defaultChecked[kind], v),
			})
		}
		if kind == KindXYZ {
			l.XYZ = opts
		} else {
			l.Fusion = opts
		}
	}
	return l
}

// ParseLayout parses a YAML layout. Options without a label are labelled by
// their value.
func ParseLayout(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("parse layout YAML: %w", err)
	}
	for _, kind := range Kinds {
		opts := l.Options(kind)
		for i := range opts {
			if !ValidValue(opts[i].Value) {
				return Layout{}, fmt.Errorf("%s option %d: value %d out of range %d-%d",
					kind, i+1, opts[i].Value, MinValue, MaxValue)
			}
			if opts[i].Label == "" {
				opts[i].Label = strconv.Itoa(opts[i].Value)
			}
		}
	}
	return l, nil
}

// LoadLayout reads a YAML layout file. An empty path yields DefaultLayout.
func LoadLayout(path string) (Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, err
	}
	return ParseLayout(data)
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(values []string, s string) bool {
	for _, x := range values {
		if x == s {
			return true
		}
	}
	return false
}
