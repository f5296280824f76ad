package emotion

import (
	"math"
	"sort"
)

// #region label

// Label names an emotion. Labels outside the closed vocabulary are carried
// through synthesis but never take part in conflict, valence or arousal.
type Label string

const (
	Joy        Label = "joy"
	Hope       Label = "hope"
	Connection Label = "connection"
	Pride      Label = "pride"
	Growth     Label = "growth"
	Compassion Label = "compassion"
	Gratitude  Label = "gratitude"

	Grief     Label = "grief"
	Anxiety   Label = "anxiety"
	Isolation Label = "isolation"
	Guilt     Label = "guilt"
	Shame     Label = "shame"
	Betrayal  Label = "betrayal"
	Longing   Label = "longing"

	Neutral     Label = "neutral"
	Lethargy    Label = "lethargy"
	Indignation Label = "indignation"
)

// #endregion label

// #region vocabulary

var positive = map[Label]bool{
	Joy: true, Hope: true, Connection: true, Pride: true,
	Growth: true, Compassion: true, Gratitude: true,
}

var negative = map[Label]bool{
	Grief: true, Anxiety: true, Isolation: true, Guilt: true,
	Shame: true, Betrayal: true, Longing: true,
}

var other = map[Label]bool{
	Neutral: true, Lethargy: true, Indignation: true,
}

var highArousal = map[Label]bool{Anxiety: true, Joy: true, Indignation: true}

var lowArousal = map[Label]bool{Lethargy: true, Grief: true, Neutral: true}

// IsPositive reports whether l is in the positive half of the vocabulary.
func IsPositive(l Label) bool { return positive[l] }

// IsNegative reports whether l is in the negative half of the vocabulary.
func IsNegative(l Label) bool { return negative[l] }

// Known reports whether l belongs to the closed vocabulary.
func Known(l Label) bool { return positive[l] || negative[l] || other[l] }

// IsHighArousal reports whether l raises arousal.
func IsHighArousal(l Label) bool { return highArousal[l] }

// IsLowArousal reports whether l lowers arousal.
func IsLowArousal(l Label) bool { return lowArousal[l] }

// #endregion vocabulary

// #region conflict-pairs

// Pair is a positive/negative emotion pair that cannot coexist after synthesis.
type Pair struct {
	Positive Label
	Negative Label
}

// ConflictPairs are resolved in this order.
var ConflictPairs = []Pair{
	{Joy, Grief},
	{Hope, Betrayal},
	{Connection, Isolation},
	{Pride, Guilt},
}

// #endregion conflict-pairs

// #region map

// Map holds emotion intensities keyed by label.
type Map map[Label]float64

// Set stores v clamped to [0, 1].
func (m Map) Set(l Label, v float64) {
	m[l] = Clamp01(v)
}

// Max stores v only when it exceeds the current value.
func (m Map) Max(l Label, v float64) {
	v = Clamp01(v)
	if cur, ok := m[l]; !ok || v > cur {
		m[l] = v
	}
}

// Clone returns an independent copy.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Labels returns the keys sorted lexicographically.
func (m Map) Labels() []Label {
	labels := make([]Label, 0, len(m))
	for l := range m {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Dominant returns the label with the highest intensity, breaking ties
// lexicographically. An empty map yields Neutral with intensity 0.
func (m Map) Dominant() (Label, float64) {
	best := Neutral
	bestV := math.Inf(-1)
	for _, l := range m.Labels() {
		if v := m[l]; v > bestV {
			best, bestV = l, v
		}
	}
	if math.IsInf(bestV, -1) {
		return Neutral, 0
	}
	return best, bestV
}

// #endregion map

// #region clamp

// Clamp01 restricts v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion clamp
