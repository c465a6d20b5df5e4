package random_test

import (
	"testing"

	"github.com/on-the-ground/effects_player/shared/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteger_StaysInBounds(t *testing.T) {
	src := random.New("bounds")
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		n := src.Integer(3, 6)
		require.GreaterOrEqual(t, n, 3)
		require.LessOrEqual(t, n, 6)
		seen[n] = true
	}
	assert.Len(t, seen, 4, "every value of the range shows up")

	assert.Equal(t, 5, src.Integer(5, 5))
	n := src.Integer(10, 1)
	assert.True(t, n >= 1 && n <= 10)
}

func TestNew_SameSeedSameSequence(t *testing.T) {
	a, b := random.New("seed"), random.New("seed")
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Integer(0, 1<<20), b.Integer(0, 1<<20))
	}
}

func TestSample(t *testing.T) {
	src := random.New("sample")
	target := []string{"a", "b", "c"}
	for i := 0; i < 50; i++ {
		v, err := random.Sample(src, target)
		require.NoError(t, err)
		assert.Contains(t, target, v)
	}

	_, err := random.Sample(src, []int{})
	require.ErrorIs(t, err, random.ErrEmptyTarget)
}

func TestFloat(t *testing.T) {
	src := random.NewTimeSeeded()
	for i := 0; i < 100; i++ {
		f := src.Float()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
	}
}
