package errs

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldErrorUnwrapsToKind(t *testing.T) {
	err := Invalid("signals.joy", "%v outside [0, 1]", 1.5)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrStateCorruption))

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "signals.joy", fe.Field)
	assert.Contains(t, err.Error(), "signals.joy")
}

func TestRangeRejectsNaN(t *testing.T) {
	err := Unit("quality", math.NaN())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "NaN")
}

func TestSignedBounds(t *testing.T) {
	assert.NoError(t, Signed("trust", -1))
	assert.NoError(t, Signed("trust", 1))
	assert.Error(t, Signed("trust", 1.0001))
}

func TestCorruptRange(t *testing.T) {
	assert.NoError(t, CorruptRange("coherence", 0.5, 0, 1))
	err := CorruptRange("coherence", 1.5, 0, 1)
	assert.True(t, errors.Is(err, ErrStateCorruption))
	assert.True(t, errors.Is(CorruptRange("coherence", math.NaN(), 0, 1), ErrStateCorruption))
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Persistence("rename", cause)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
}
