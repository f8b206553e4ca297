package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillgate/pkg/types/skills"
)

func record(name, description string) *skills.Record {
	return &skills.Record{
		Metadata: skills.Metadata{Name: name, Description: description},
	}
}

func TestTokenize(t *testing.T) {
	t.Run("lowercases and splits on non-alphanumerics", func(t *testing.T) {
		tokens := Tokenize("Write a multi-stage Dockerfile!")
		assert.Equal(t, map[string]struct{}{
			"write": {}, "a": {}, "multi": {}, "stage": {}, "dockerfile": {},
		}, tokens)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, Tokenize(""))
		assert.Empty(t, Tokenize("  \t\n  "))
	})

	t.Run("digits are tokens", func(t *testing.T) {
		tokens := Tokenize("http2 server push")
		_, ok := tokens["http2"]
		assert.True(t, ok)
	})
}

func TestRank(t *testing.T) {
	t.Run("higher overlap wins", func(t *testing.T) {
		records := []*skills.Record{
			record("git-workflow", "branching commit messages"),
			record("docker-patterns", "Dockerfile multi-stage build"),
		}

		candidates := Rank("write a multi-stage Dockerfile", records)
		require.Len(t, candidates, 2)
		assert.Equal(t, "docker-patterns", candidates[0].SkillName)
		assert.Equal(t, 0, candidates[0].Rank)
		assert.Greater(t, candidates[0].Score, candidates[1].Score)
	})

	t.Run("scores are within [0,1]", func(t *testing.T) {
		records := []*skills.Record{
			record("exact", "write a multi-stage dockerfile"),
			record("disjoint", "kubernetes operator reconcile loops"),
		}
		candidates := Rank("write a multi-stage dockerfile", records)
		assert.Equal(t, 1.0, candidates[0].Score)
		assert.Equal(t, 0.0, candidates[1].Score)
	})

	t.Run("empty query scores everything zero without crashing", func(t *testing.T) {
		records := []*skills.Record{
			record("a", "first description"),
			record("b", "second description"),
		}
		candidates := Rank("", records)
		require.Len(t, candidates, 2)
		for _, c := range candidates {
			assert.Equal(t, 0.0, c.Score)
		}
		// Zero-score records are still ranked, in registration order.
		assert.Equal(t, "a", candidates[0].SkillName)
		assert.Equal(t, "b", candidates[1].SkillName)
	})

	t.Run("ties break by registration order", func(t *testing.T) {
		records := []*skills.Record{
			record("second-registered", "terraform modules"),
			record("first-registered", "terraform modules"),
		}
		// Both descriptions are identical; input order decides.
		candidates := Rank("terraform modules", records)
		assert.Equal(t, "second-registered", candidates[0].SkillName)
		assert.Equal(t, "first-registered", candidates[1].SkillName)
	})

	t.Run("deterministic across repeated calls", func(t *testing.T) {
		records := []*skills.Record{
			record("a", "shared words here"),
			record("b", "shared words there"),
			record("c", "completely different topic"),
		}
		first := Rank("shared words", records)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Rank("shared words", records))
		}
	})

	t.Run("no records", func(t *testing.T) {
		assert.Empty(t, Rank("anything", nil))
	})
}
