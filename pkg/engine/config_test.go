package engine

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillgate/pkg/types/skills"
)

func TestGetConfigFromViper(t *testing.T) {
	t.Run("defaults when nothing is set", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		config, err := GetConfigFromViper()
		require.NoError(t, err)
		assert.Equal(t, skills.DefaultPolicy(), config.Selector)
		assert.Empty(t, config.Skills.Dirs)
		assert.Empty(t, config.KnownTools)
	})

	t.Run("explicit selector settings", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()
		viper.Set("selector.mode", "topk")
		viper.Set("selector.budget", 3)
		viper.Set("selector.min_score", 0.2)
		viper.Set("skills.dirs", []string{"/srv/skills"})
		viper.Set("known_tools", []string{"Read", "Bash"})

		config, err := GetConfigFromViper()
		require.NoError(t, err)
		assert.Equal(t, skills.ModeTopK, config.Selector.Mode)
		assert.Equal(t, 3, config.Selector.Budget)
		assert.Equal(t, 0.2, config.Selector.MinScore)
		assert.Equal(t, []string{"/srv/skills"}, config.Skills.Dirs)
		assert.Equal(t, []string{"Read", "Bash"}, config.KnownTools)
	})

	t.Run("profile overlays only its non-zero fields", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()
		viper.Set("selector.mode", "topk")
		viper.Set("selector.budget", 5)
		viper.Set("profiles.strict.min_score", 0.5)
		viper.Set("profile", "strict")

		config, err := GetConfigFromViper()
		require.NoError(t, err)
		// Base mode and budget survive; only min_score is overlaid.
		assert.Equal(t, skills.ModeTopK, config.Selector.Mode)
		assert.Equal(t, 5, config.Selector.Budget)
		assert.Equal(t, 0.5, config.Selector.MinScore)
	})

	t.Run("unknown profile is an error", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()
		viper.Set("profile", "nope")

		_, err := GetConfigFromViper()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown profile")
	})

	t.Run("default profile name is a no-op", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()
		viper.Set("profile", "default")

		config, err := GetConfigFromViper()
		require.NoError(t, err)
		assert.Equal(t, skills.DefaultPolicy(), config.Selector)
	})

	t.Run("invalid selector is rejected", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()
		viper.Set("selector.mode", "top1")
		viper.Set("selector.min_score", 1.5)

		_, err := GetConfigFromViper()
		assert.Error(t, err)
	})
}

func TestNewFromConfig(t *testing.T) {
	config := Config{
		Selector:   skills.Policy{Mode: skills.ModeTopK, Budget: 2},
		KnownTools: []string{"Read", "Bash"},
	}

	eng := NewFromConfig(config)
	require.NotNil(t, eng)
	assert.Equal(t, skills.ModeTopK, eng.defaultPolicy.Mode)
	assert.Equal(t, []string{"Read", "Bash"}, eng.knownTools)
}
