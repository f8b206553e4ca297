package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillgate/pkg/engine"
	"github.com/jingkaihe/skillgate/pkg/presenter"
	"github.com/jingkaihe/skillgate/pkg/sources"
)

// buildSource assembles the skill source from config: the markdown discovery
// over the configured (or default) directories, wrapped with the name
// allowlist filter when one is configured.
func buildSource(config engine.Config) (sources.Source, []string, error) {
	var opts []sources.Option
	if len(config.Skills.Dirs) > 0 {
		opts = append(opts, sources.WithSkillDirs(config.Skills.Dirs...))
	} else {
		opts = append(opts, sources.WithDefaultDirs())
	}

	discovery, err := sources.NewDiscovery(opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create skill discovery")
	}

	dirs := discovery.Dirs()

	if len(config.Skills.Allowed) == 0 {
		return discovery, dirs, nil
	}

	filter, err := sources.NewNameFilter(config.Skills.Allowed)
	if err != nil {
		return nil, nil, err
	}
	return sources.NewFiltered(discovery, filter), dirs, nil
}

// setupEngine builds the engine from viper config and loads the configured
// skill source into it, reporting rejected records without failing.
func setupEngine(ctx context.Context) (*engine.Engine, sources.Source, engine.Config, error) {
	config, err := engine.GetConfigFromViper()
	if err != nil {
		return nil, nil, config, err
	}

	source, _, err := buildSource(config)
	if err != nil {
		return nil, nil, config, err
	}

	eng := engine.NewFromConfig(config)
	result, err := eng.LoadSkills(ctx, source)
	if err != nil {
		return nil, nil, config, errors.Wrap(err, "failed to load skills")
	}
	reportRejected(result)

	return eng, source, config, nil
}

// reportRejected surfaces every rejected record individually.
func reportRejected(result engine.LoadResult) {
	for _, rejected := range result.Rejected {
		where := rejected.Origin
		if where == "" {
			where = fmt.Sprintf("record %d", rejected.Index)
		}
		presenter.Warning(fmt.Sprintf("rejected %s: %v", where, rejected.Reason))
	}
}
