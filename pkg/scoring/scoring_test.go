package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	s := NewScorer()

	t.Run("identical strings", func(t *testing.T) {
		assert.Equal(t, 100.0, s.Ratio("молоко", "молоко"))
	})

	t.Run("empty strings", func(t *testing.T) {
		assert.Equal(t, 0.0, s.Ratio("", ""))
		assert.Equal(t, 0.0, s.Ratio("молоко", ""))
	})

	t.Run("single rune edit", func(t *testing.T) {
		score := s.Ratio("кола", "колa") // trailing latin a
		assert.Greater(t, score, 70.0)
		assert.Less(t, score, 100.0)
	})

	t.Run("unrelated strings score low", func(t *testing.T) {
		assert.Less(t, s.Ratio("молоко", "дрожжи"), 40.0)
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, s.Ratio("брынза", "брынза сербская"), s.Ratio("брынза сербская", "брынза"))
	})
}

func TestTokenSortRatio(t *testing.T) {
	s := NewScorer()

	t.Run("order independent", func(t *testing.T) {
		assert.Equal(t, 100.0, s.TokenSortRatio("цб филе", "филе цб"))
	})

	t.Run("plain ratio penalizes reordering", func(t *testing.T) {
		assert.Less(t, s.Ratio("цб филе", "филе цб"), 100.0)
	})
}

func TestTokenSetRatio(t *testing.T) {
	s := NewScorer()

	t.Run("subset scores full", func(t *testing.T) {
		assert.Equal(t, 100.0, s.TokenSetRatio("филе", "филе цб охл"))
	})

	t.Run("order independent", func(t *testing.T) {
		assert.Equal(t, s.TokenSetRatio("цб филе", "филе цб"), 100.0)
	})

	t.Run("disjoint tokens score low", func(t *testing.T) {
		assert.Less(t, s.TokenSetRatio("молоко", "дрожжи сухие"), 50.0)
	})

	t.Run("empty side scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, s.TokenSetRatio("", "филе"))
	})
}

func TestWeightedRatio(t *testing.T) {
	s := NewScorer()

	t.Run("exact equality", func(t *testing.T) {
		assert.Equal(t, 100.0, s.WeightedRatio("сыр", "сыр"))
	})

	t.Run("abbreviated catalog name", func(t *testing.T) {
		score := s.WeightedRatio("филе цб", "филе цб, групп, охл")
		assert.GreaterOrEqual(t, score, 75.0)
	})

	t.Run("at least the plain ratio", func(t *testing.T) {
		a, b := "брынза", "брынза сербская"
		assert.GreaterOrEqual(t, s.WeightedRatio(a, b), s.Ratio(a, b))
	})
}

func TestSharedTokens(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, 2, s.SharedTokens("филе цб", "цб филе охл"))
	assert.Equal(t, 1, s.SharedTokens("фри", "картофель фри большой"))
	assert.Equal(t, 0, s.SharedTokens("молоко", "сыр"))
}

func TestLengthRatio(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, 1.0, s.LengthRatio("сыр", "сыр"))
	assert.InDelta(t, 0.5, s.LengthRatio("сыр", "сырсыр"), 0.001)
	assert.Equal(t, 0.0, s.LengthRatio("", "сыр"))
}
