package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillgate/pkg/types/skills"
)

func candidates(scores ...float64) []skills.RankedCandidate {
	out := make([]skills.RankedCandidate, len(scores))
	for i, score := range scores {
		out[i] = skills.RankedCandidate{
			SkillName: string(rune('a' + i)),
			Score:     score,
			Rank:      i,
		}
	}
	return out
}

func TestSelectTop1(t *testing.T) {
	t.Run("picks the highest qualifying candidate", func(t *testing.T) {
		result := Select(candidates(0.8, 0.5, 0.1), skills.Policy{Mode: skills.ModeTop1, Budget: 1})
		require.Len(t, result.Selected, 1)
		assert.Equal(t, "a", result.Selected[0].SkillName)
		assert.Empty(t, result.Overflow)
	})

	t.Run("empty when nothing qualifies", func(t *testing.T) {
		result := Select(candidates(0, 0), skills.Policy{Mode: skills.ModeTop1, Budget: 1})
		assert.Empty(t, result.Selected)
	})

	t.Run("min score excludes the top candidate", func(t *testing.T) {
		result := Select(candidates(0.3, 0.1), skills.Policy{Mode: skills.ModeTop1, Budget: 1, MinScore: 0.5})
		assert.Empty(t, result.Selected)
	})
}

func TestSelectTopK(t *testing.T) {
	t.Run("takes the first budget candidates in rank order", func(t *testing.T) {
		result := Select(candidates(0.9, 0.7, 0.5, 0.3), skills.Policy{Mode: skills.ModeTopK, Budget: 2})
		require.Len(t, result.Selected, 2)
		assert.Equal(t, "a", result.Selected[0].SkillName)
		assert.Equal(t, "b", result.Selected[1].SkillName)
	})

	t.Run("fewer qualifying than budget", func(t *testing.T) {
		result := Select(candidates(0.9, 0, 0), skills.Policy{Mode: skills.ModeTopK, Budget: 3})
		assert.Len(t, result.Selected, 1)
	})
}

func TestSelectThreshold(t *testing.T) {
	t.Run("selects everything at or above min score", func(t *testing.T) {
		result := Select(candidates(0.9, 0.5, 0.4, 0.1), skills.Policy{Mode: skills.ModeThreshold, Budget: 10, MinScore: 0.4})
		assert.Len(t, result.Selected, 3)
		assert.Empty(t, result.Overflow)
	})

	t.Run("overflow is reported, not silently dropped", func(t *testing.T) {
		result := Select(candidates(0.9, 0.8, 0.7, 0.6), skills.Policy{Mode: skills.ModeThreshold, Budget: 2, MinScore: 0.5})
		require.Len(t, result.Selected, 2)
		require.Len(t, result.Overflow, 2)
		// The lowest-ranked qualifying candidates are the ones dropped.
		assert.Equal(t, "c", result.Overflow[0].SkillName)
		assert.Equal(t, "d", result.Overflow[1].SkillName)
	})
}

func TestSelectBoundaries(t *testing.T) {
	t.Run("budget zero always yields empty set", func(t *testing.T) {
		for _, mode := range []skills.SelectionMode{skills.ModeTop1, skills.ModeTopK, skills.ModeThreshold} {
			result := Select(candidates(1.0, 0.9), skills.Policy{Mode: mode, Budget: 0})
			assert.Empty(t, result.Selected, "mode %s", mode)
			assert.Empty(t, result.Overflow, "mode %s", mode)
		}
	})

	t.Run("zero-score candidates never qualify even with zero min score", func(t *testing.T) {
		result := Select(candidates(0, 0, 0), skills.Policy{Mode: skills.ModeThreshold, Budget: 5, MinScore: 0})
		assert.Empty(t, result.Selected)
	})

	t.Run("no candidates", func(t *testing.T) {
		result := Select(nil, skills.Policy{Mode: skills.ModeTop1, Budget: 1})
		assert.Empty(t, result.Selected)
	})
}
