package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m := Metadata{Name: "docker-patterns", Description: "Dockerfile multi-stage build"}
		assert.NoError(t, m.Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		m := Metadata{Description: "some description"}
		err := m.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("blank name", func(t *testing.T) {
		m := Metadata{Name: "   ", Description: "some description"}
		assert.ErrorIs(t, m.Validate(), ErrMalformedRecord)
	})

	t.Run("missing description", func(t *testing.T) {
		m := Metadata{Name: "git-workflow"}
		assert.ErrorIs(t, m.Validate(), ErrMalformedRecord)
	})
}

func TestNormalizeTools(t *testing.T) {
	t.Run("preserves declared order", func(t *testing.T) {
		tools := NormalizeTools([]string{"Read", "Grep", "Glob"})
		assert.Equal(t, []string{"Read", "Grep", "Glob"}, tools)
	})

	t.Run("dedupes and trims", func(t *testing.T) {
		tools := NormalizeTools([]string{" Read ", "Read", "", "Bash"})
		assert.Equal(t, []string{"Read", "Bash"}, tools)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, NormalizeTools(nil))
	})
}

func TestRecordAllowsTool(t *testing.T) {
	record := &Record{
		Metadata: Metadata{
			Name:         "security-checklist",
			Description:  "security review checklist",
			AllowedTools: []string{"Read", "Grep", "Glob"},
		},
	}

	assert.True(t, record.AllowsTool("Read"))
	assert.False(t, record.AllowsTool("Bash"))
	assert.False(t, record.AllowsTool(""))
}

func TestPolicyValidate(t *testing.T) {
	t.Run("empty mode defaults to top1", func(t *testing.T) {
		p := Policy{Budget: 1}
		require.NoError(t, p.Validate())
		assert.Equal(t, ModeTop1, p.Mode)
	})

	t.Run("known modes", func(t *testing.T) {
		for _, mode := range []SelectionMode{ModeTop1, ModeTopK, ModeThreshold} {
			p := Policy{Mode: mode, Budget: 1}
			assert.NoError(t, p.Validate())
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		p := Policy{Mode: "best-effort", Budget: 1}
		assert.Error(t, p.Validate())
	})

	t.Run("negative budget", func(t *testing.T) {
		p := Policy{Mode: ModeTopK, Budget: -1}
		assert.Error(t, p.Validate())
	})

	t.Run("min score out of range", func(t *testing.T) {
		p := Policy{Mode: ModeThreshold, Budget: 1, MinScore: 1.5}
		assert.Error(t, p.Validate())
	})
}

func TestDecisionString(t *testing.T) {
	allowed := Allow("security-checklist", "Read")
	assert.Contains(t, allowed.String(), "allowed")

	denied := Deny("security-checklist", "Bash", DenyNotInAllowList)
	assert.Contains(t, denied.String(), "denied")
	assert.Contains(t, denied.String(), "NotInAllowList")
}
