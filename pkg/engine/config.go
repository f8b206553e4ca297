package engine

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillgate/pkg/types/skills"
)

// Config is the file/env configuration surface of the engine and its CLI.
type Config struct {
	// Selector is the default selection policy applied when a query does not
	// override it.
	Selector skills.Policy `mapstructure:"selector"`
	// Skills configures discovery and registration filtering.
	Skills SkillsConfig `mapstructure:"skills"`
	// KnownTools restricts the authorization tool universe; empty means any
	// non-empty tool name is checked against the allowlist only.
	KnownTools []string `mapstructure:"known_tools"`
	// Profiles are named policy overlays selectable with --profile.
	Profiles map[string]skills.Policy `mapstructure:"profiles"`
}

// SkillsConfig configures where skills are discovered and which names are
// eligible for registration.
type SkillsConfig struct {
	// Dirs are the skill directories scanned for SKILL.md files.
	Dirs []string `mapstructure:"dirs"`
	// Allowed is a list of glob patterns; when non-empty only matching skill
	// names are registered.
	Allowed []string `mapstructure:"allowed"`
}

// GetConfigFromViper loads the engine configuration, applying defaults and
// the active profile (if any) on top.
func GetConfigFromViper() (Config, error) {
	config := Config{
		Selector: skills.DefaultPolicy(),
	}

	if err := viper.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "failed to unmarshal configuration")
	}

	if config.Selector.Mode == "" {
		config.Selector = skills.DefaultPolicy()
	}

	profileName := viper.GetString("profile")
	if profileName != "" && profileName != "default" {
		profile, exists := config.Profiles[profileName]
		if !exists {
			return config, errors.Errorf("unknown profile %q", profileName)
		}
		if err := applyProfile(&config.Selector, profile); err != nil {
			return config, err
		}
	}

	if err := config.Selector.Validate(); err != nil {
		return config, errors.Wrap(err, "invalid selector policy")
	}

	return config, nil
}

// applyProfile overlays the non-zero fields of profile onto the policy.
func applyProfile(policy *skills.Policy, profile skills.Policy) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           policy,
		WeaklyTypedInput: true,
		ZeroFields:       false,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create profile decoder")
	}

	overlay := map[string]any{}
	if profile.Mode != "" {
		overlay["mode"] = string(profile.Mode)
	}
	if profile.Budget != 0 {
		overlay["budget"] = profile.Budget
	}
	if profile.MinScore != 0 {
		overlay["min_score"] = profile.MinScore
	}

	if err := decoder.Decode(overlay); err != nil {
		return errors.Wrap(err, "failed to apply profile configuration")
	}
	return nil
}

// NewFromConfig builds an engine honoring the configured default policy and
// tool universe.
func NewFromConfig(config Config) *Engine {
	opts := []Option{WithDefaultPolicy(config.Selector)}
	if len(config.KnownTools) > 0 {
		opts = append(opts, WithKnownTools(config.KnownTools...))
	}
	return New(opts...)
}
