package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, name, content string) {
	t.Helper()
	skillDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0o644))
}

func TestNewDiscovery(t *testing.T) {
	t.Run("with custom dirs", func(t *testing.T) {
		discovery, err := NewDiscovery(WithSkillDirs("/tmp/skills1", "/tmp/skills2"))
		require.NoError(t, err)
		assert.Equal(t, []string{"/tmp/skills1", "/tmp/skills2"}, discovery.Dirs())
	})

	t.Run("with default dirs", func(t *testing.T) {
		discovery, err := NewDiscovery()
		require.NoError(t, err)
		assert.Len(t, discovery.Dirs(), 2)
	})
}

func TestDiscoveryRecords(t *testing.T) {
	tmpDir := t.TempDir()

	writeSkill(t, tmpDir, "docker-patterns", `---
name: docker-patterns
description: Dockerfile multi-stage build patterns
allowed-tools: Read, Grep, Bash
---

# Docker Patterns

Use multi-stage builds to keep images small.
`)
	writeSkill(t, tmpDir, "git-workflow", `---
name: git-workflow
description: branching commit messages
allowed-tools:
  - Read
  - Bash
---

# Git Workflow
`)

	discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
	require.NoError(t, err)

	records, err := discovery.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Lexical directory order keeps batches stable.
	docker := records[0]
	assert.Equal(t, "docker-patterns", docker.Name)
	assert.Equal(t, "Dockerfile multi-stage build patterns", docker.Description)
	assert.Equal(t, []string{"Read", "Grep", "Bash"}, docker.AllowedTools)
	assert.Contains(t, docker.Body, "# Docker Patterns")
	assert.NotContains(t, docker.Body, "allowed-tools")
	assert.Equal(t, filepath.Join(tmpDir, "docker-patterns", "SKILL.md"), docker.Origin)

	git := records[1]
	assert.Equal(t, "git-workflow", git.Name)
	assert.Equal(t, []string{"Read", "Bash"}, git.AllowedTools)
}

func TestDiscoveryRecordsEdgeCases(t *testing.T) {
	t.Run("missing allowed-tools means empty allowlist", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeSkill(t, tmpDir, "prose-only", `---
name: prose-only
description: reference content with no tool access
---

Body.
`)
		discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
		require.NoError(t, err)

		records, err := discovery.Records(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Empty(t, records[0].AllowedTools)
	})

	t.Run("file without frontmatter yields a rejectable record", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeSkill(t, tmpDir, "broken", "# Just a heading, no frontmatter\n")

		discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
		require.NoError(t, err)

		records, err := discovery.Records(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		// Empty name: the engine rejects it as malformed, attributably.
		assert.Empty(t, records[0].Name)
		assert.NotEmpty(t, records[0].Origin)
	})

	t.Run("directory without SKILL.md is skipped", func(t *testing.T) {
		tmpDir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "not-a-skill"), 0o755))

		discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
		require.NoError(t, err)

		records, err := discovery.Records(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("missing directory is skipped", func(t *testing.T) {
		discovery, err := NewDiscovery(WithSkillDirs("/nonexistent/skills"))
		require.NoError(t, err)

		records, err := discovery.Records(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("canceled context aborts the scan", func(t *testing.T) {
		discovery, err := NewDiscovery(WithSkillDirs(t.TempDir()))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = discovery.Records(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDiscoveryRestartable(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "stable", `---
name: stable
description: stays the same
---
Body.
`)
	discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
	require.NoError(t, err)

	first, err := discovery.Records(context.Background())
	require.NoError(t, err)
	second, err := discovery.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStaticSource(t *testing.T) {
	source := NewStatic(
		Record{Name: "a", Description: "first"},
		Record{Name: "b", Description: "second", Origin: "inline"},
	)

	records, err := source.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "static", records[0].Origin)
	assert.Equal(t, "inline", records[1].Origin)
}

func TestParseAllowedTools(t *testing.T) {
	t.Run("comma separated string", func(t *testing.T) {
		assert.Equal(t, []string{"Read", "Grep"}, parseAllowedTools("Read, Grep"))
	})

	t.Run("yaml list", func(t *testing.T) {
		assert.Equal(t, []string{"Read", "Bash"}, parseAllowedTools([]any{"Read", "Bash"}))
	})

	t.Run("empty and unknown shapes", func(t *testing.T) {
		assert.Empty(t, parseAllowedTools(nil))
		assert.Empty(t, parseAllowedTools(""))
		assert.Empty(t, parseAllowedTools(42))
	})
}
