package engine

import (
	"testing"

	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource всегда возвращает один и тот же индекс (по модулю n).
type fixedSource struct {
	idx   int
	calls int
}

func (f *fixedSource) IntN(n int) int {
	f.calls++
	return f.idx % n
}

func withPaths(a models.Answer, quantities ...int) models.Answer {
	for _, q := range quantities {
		a.Paths = append(a.Paths, models.Path{
			ID:          uuid.New(),
			AnswerID:    a.ID,
			NextSheetID: uuid.New(),
			Quantity:    q,
		})
	}
	return a
}

func TestResolvePath_EmptyCandidates(t *testing.T) {
	src := &fixedSource{}

	res := ResolvePath(nil, src)

	assert.False(t, res.IsValid)
	assert.Nil(t, res.Answer)
	assert.Nil(t, res.Path)
	assert.Nil(t, res.NextSheetID())
	assert.Zero(t, src.calls, "random source must not be consulted")
}

func TestResolvePath_NoPathsIsTerminal(t *testing.T) {
	first := answer("cat", false)
	second := withPaths(answer("cat", false), 0)

	res := ResolvePath([]models.Answer{first, second}, &fixedSource{})

	require.True(t, res.IsValid)
	require.NotNil(t, res.Answer)
	assert.Equal(t, first.ID, res.Answer.ID)
	assert.Nil(t, res.Path)
	assert.Nil(t, res.NextSheetID())
}

func TestResolvePath_ZeroWeightNeverChosen(t *testing.T) {
	a := withPaths(answer("cat", false), 0, 5, 0)
	live := a.Paths[1]
	src := NewRandomSource(1, 2)

	for range 1000 {
		res := ResolvePath([]models.Answer{a}, src)
		require.True(t, res.IsValid)
		require.NotNil(t, res.Path)
		assert.Equal(t, live.ID, res.Path.ID)
	}
}

func TestResolvePath_WeightedDistribution(t *testing.T) {
	a := withPaths(answer("cat", false), 3)
	b := withPaths(answer("cat", false), 1)
	heavy := a.Paths[0].ID
	src := NewRandomSource(42, 7)

	const draws = 40000
	hits := 0
	for range draws {
		res := ResolvePath([]models.Answer{a, b}, src)
		require.NotNil(t, res.Path)
		if res.Path.ID == heavy {
			hits++
		}
	}

	assert.InDelta(t, 0.75, float64(hits)/draws, 0.02)
}

func TestResolvePath_PathBelongsToItsAnswer(t *testing.T) {
	a := withPaths(answer("cat", false), 1)
	b := withPaths(answer("cat", false), 1)

	// Пул: [a.p0, b.p0]; индекс 1 выбирает путь второго ответа.
	res := ResolvePath([]models.Answer{a, b}, &fixedSource{idx: 1})

	require.True(t, res.IsValid)
	assert.Equal(t, b.ID, res.Answer.ID)
	assert.Equal(t, b.Paths[0].ID, res.Path.ID)
	require.NotNil(t, res.NextSheetID())
	assert.Equal(t, b.Paths[0].NextSheetID, *res.NextSheetID())
}

func TestResolvePath_NegativeQuantityIgnored(t *testing.T) {
	a := withPaths(answer("cat", false), -3)

	res := ResolvePath([]models.Answer{a}, &fixedSource{})

	require.True(t, res.IsValid)
	assert.Nil(t, res.Path)
}
