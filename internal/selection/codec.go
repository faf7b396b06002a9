package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Query parameter names of a shared link.
const (
	ParamXYZ    = "xyz"
	ParamFusion = "fusion"
)

// StorageKey is the key under which the selection snapshot is persisted.
const StorageKey = "edChoices"

var (
	// ErrNoQueryState means the location does not carry both parameters.
	ErrNoQueryState = errors.New("query parameters 'xyz' and 'fusion' must exist")
	// ErrInvalidQuery means a parameter is not a list of values in range.
	ErrInvalidQuery = errors.New("invalid selection query")
	// ErrNoSnapshot means nothing has been persisted yet.
	ErrNoSnapshot = errors.New("no saved selection")
	// ErrInvalidSnapshot means the persisted value is malformed or out of range.
	ErrInvalidSnapshot = errors.New("invalid saved selection")
)

// Snapshot is the selected ranks and levels, as persisted and shared.
type Snapshot struct {
	XYZ    []int `json:"xyz"`
	Fusion []int `json:"fusion"`
}

// Values returns the selected values of one kind.
func (s Snapshot) Values(kind Kind) []int {
	if kind == KindXYZ {
		return s.XYZ
	}
	return s.Fusion
}

// Normalized returns the snapshot with each list sorted ascending and
// deduplicated.
func (s Snapshot) Normalized() Snapshot {
	return Snapshot{XYZ: sortedSet(s.XYZ), Fusion: sortedSet(s.Fusion)}
}

func sortedSet(values []int) []int {
	out := append([]int{}, values...)
	slices.Sort(out)
	return slices.Compact(out)
}

func (s Snapshot) validate() error {
	for _, kind := range Kinds {
		for _, v := range s.Values(kind) {
			if !ValidValue(v) {
				return fmt.Errorf("%s value %d out of range %d-%d", kind, v, MinValue, MaxValue)
			}
		}
	}
	return nil
}

// --- Persisted form ---

// Encode returns the JSON form stored under StorageKey.
func (s Snapshot) Encode() string {
	out := Snapshot{XYZ: s.XYZ, Fusion: s.Fusion}
	if out.XYZ == nil {
		out.XYZ = []int{}
	}
	if out.Fusion == nil {
		out.Fusion = []int{}
	}
	data, _ := json.Marshal(out)
	return string(data)
}

// DecodeSnapshot parses a persisted snapshot. Both lists must be present and
// every value must be in range; anything else yields ErrInvalidSnapshot.
func DecodeSnapshot(data string) (Snapshot, error) {
	var raw struct {
		XYZ    *[]int `json:"xyz"`
		Fusion *[]int `json:"fusion"`
	}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if raw.XYZ == nil || raw.Fusion == nil {
		return Snapshot{}, fmt.Errorf("%w: expected xyz and fusion lists", ErrInvalidSnapshot)
	}
	s := Snapshot{XYZ: *raw.XYZ, Fusion: *raw.Fusion}
	if err := s.validate(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return s, nil
}

// --- Query form ---

// HasQueryState reports whether either selection parameter is present.
func HasQueryState(q url.Values) bool {
	return q.Has(ParamXYZ) || q.Has(ParamFusion)
}

// DecodeQuery parses the xyz and fusion parameters. Both must be present;
// the pair is accepted or rejected as a unit. An empty value such as "xyz="
// is the empty list rather than an error, so a link shared with nothing
// checked in one kind still loads.
func DecodeQuery(q url.Values) (Snapshot, error) {
	if !q.Has(ParamXYZ) || !q.Has(ParamFusion) {
		return Snapshot{}, ErrNoQueryState
	}
	xyz, err := parseList(q.Get(ParamXYZ))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, ParamXYZ, err)
	}
	fusion, err := parseList(q.Get(ParamFusion))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, ParamFusion, err)
	}
	return Snapshot{XYZ: xyz, Fusion: fusion}, nil
}

// EncodeQuery sets the xyz and fusion parameters on q, leaving other
// parameters untouched.
func EncodeQuery(q url.Values, s Snapshot) {
	q.Set(ParamXYZ, formatList(s.XYZ))
	q.Set(ParamFusion, formatList(s.Fusion))
}

// DeleteQuery removes the selection parameters from q.
func DeleteQuery(q url.Values) {
	q.Del(ParamXYZ)
	q.Del(ParamFusion)
}

// parseList parses a comma-separated list. An empty string is the empty list.
func parseList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", p)
		}
		if !ValidValue(n) {
			return nil, fmt.Errorf("%d out of range %d-%d", n, MinValue, MaxValue)
		}
		out = append(out, n)
	}
	return out, nil
}

func formatList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
