package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapSetClamps(t *testing.T) {
	m := Map{}
	m.Set(Joy, 1.4)
	m.Set(Grief, -0.2)
	assert.Equal(t, 1.0, m[Joy])
	assert.Equal(t, 0.0, m[Grief])
}

func TestMapMaxKeepsLarger(t *testing.T) {
	m := Map{Lethargy: 0.4}
	m.Max(Lethargy, 0.2)
	assert.Equal(t, 0.4, m[Lethargy])
	m.Max(Lethargy, 0.7)
	assert.Equal(t, 0.7, m[Lethargy])
	m.Max(Hope, 0)
	_, ok := m[Hope]
	assert.True(t, ok, "Max on a missing label should store it")
}

func TestDominantTieBreaksLexicographically(t *testing.T) {
	l, v := Map{Joy: 0.5, Connection: 0.5, Grief: 0.1}.Dominant()
	assert.Equal(t, Connection, l)
	assert.Equal(t, 0.5, v)
}

func TestDominantEmptyIsNeutral(t *testing.T) {
	l, v := Map{}.Dominant()
	assert.Equal(t, Neutral, l)
	assert.Equal(t, 0.0, v)
}

func TestVocabularyPartitions(t *testing.T) {
	for _, p := range ConflictPairs {
		assert.True(t, IsPositive(p.Positive), "%s should be positive", p.Positive)
		assert.True(t, IsNegative(p.Negative), "%s should be negative", p.Negative)
	}
	assert.True(t, Known(Indignation))
	assert.False(t, Known("curiosity"))
	assert.False(t, IsPositive(Neutral))
	assert.True(t, IsHighArousal(Joy))
	assert.True(t, IsLowArousal(Grief))
}

func TestCloneIsIndependent(t *testing.T) {
	m := Map{Joy: 0.3}
	c := m.Clone()
	c[Joy] = 0.9
	assert.Equal(t, 0.3, m[Joy])
	assert.Equal(t, []Label{Grief, Joy}, Map{Joy: 1, Grief: 1}.Labels())
}
