package pattern

import "sort"

// Mode is a named intensity preset trading visibility against stealth.
type Mode struct {
	Name     string  `json:"name"`
	Strength float64 `json:"strength"`
}

// modeTable is the single source of named strengths.
var modeTable = map[string]float64{
	"high_frequency":   0.015,
	"adaptive":         0.02,
	"adaptive_subtle":  0.015,
	"adaptive_strong":  0.03,
	"adaptive_minimal": 0.01,
	"perfect_subtle":   0.025,
	"ultra_subtle":     0.02,
	"near_perfect":     0.018,
	"color_preserving": 0.025,
	"hue_preserving":   0.02,
	"blended":          0.022,
}

// fallbackStrength is used for strategies with no table entry.
const fallbackStrength = 0.02

// ModeStrength looks up a named mode.
func ModeStrength(name string) (float64, bool) {
	s, ok := modeTable[name]
	return s, ok
}

// Modes returns the preset table sorted by name.
func Modes() []Mode {
	out := make([]Mode, 0, len(modeTable))
	for name, s := range modeTable {
		out = append(out, Mode{Name: name, Strength: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultStrength is the strength a strategy uses when neither an explicit
// strength nor a mode is given.
func DefaultStrength(s Strategy) float64 {
	if s == Perfect {
		return 0.04
	}
	if v, ok := modeTable[string(s)]; ok {
		return v
	}
	return fallbackStrength
}
