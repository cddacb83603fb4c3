// Package preset maps a (styleWeight, contentWeight) pair to the named
// preset it came from, so gallery views can be filtered by preset.
package preset

import "math"

// Preset is a named weight pairing offered by the submission UI.
type Preset struct {
	Label         string
	StyleWeight   float64
	ContentWeight float64
}

// LabelCustom is returned for weight pairs matching no known preset.
const LabelCustom = "custom"

// DefaultPresets are the built-in weight pairings. The balanced preset
// mirrors the service's form defaults.
var DefaultPresets = []Preset{
	{Label: "subtle", StyleWeight: 100_000, ContentWeight: 1},
	{Label: "balanced", StyleWeight: 1_000_000, ContentWeight: 1},
	{Label: "intense", StyleWeight: 10_000_000, ContentWeight: 1},
}

// Classifier labels weight pairs against a preset table.
type Classifier struct {
	presets []Preset
}

// NewClassifier creates a classifier over the given presets; nil means
// DefaultPresets.
func NewClassifier(presets []Preset) *Classifier {
	if presets == nil {
		presets = DefaultPresets
	}
	return &Classifier{presets: presets}
}

// Label returns the preset label for a weight pair, or LabelCustom
// when no preset matches. Matching tolerates small floating point
// drift from serialization round trips.
func (c *Classifier) Label(styleWeight, contentWeight float64) string {
	for _, p := range c.presets {
		if approxEqual(styleWeight, p.StyleWeight) && approxEqual(contentWeight, p.ContentWeight) {
			return p.Label
		}
	}
	return LabelCustom
}

// Labels returns every label the classifier can produce, LabelCustom
// included. Useful for building filter menus.
func (c *Classifier) Labels() []string {
	labels := make([]string, 0, len(c.presets)+1)
	for _, p := range c.presets {
		labels = append(labels, p.Label)
	}
	return append(labels, LabelCustom)
}

func approxEqual(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= scale*1e-9
}
