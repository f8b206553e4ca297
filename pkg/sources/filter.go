package sources

import (
	"context"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// NameFilter matches skill names against a set of glob patterns, used to
// restrict which discovered skills get registered (e.g. allowed: ["docker-*"]).
type NameFilter struct {
	patterns []glob.Glob
}

// NewNameFilter compiles the given glob patterns. An empty pattern list
// yields a filter that matches everything.
func NewNameFilter(patterns []string) (*NameFilter, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid skill name pattern %q", pattern)
		}
		compiled = append(compiled, g)
	}
	return &NameFilter{patterns: compiled}, nil
}

// Matches reports whether the name matches any pattern. With no patterns
// configured every name matches.
func (f *NameFilter) Matches(name string) bool {
	if len(f.patterns) == 0 {
		return true
	}
	for _, g := range f.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Apply filters records by name. Records that fail metadata validation later
// are kept here so they still surface as rejections instead of vanishing.
func (f *NameFilter) Apply(records []Record) []Record {
	if len(f.patterns) == 0 {
		return records
	}
	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		if record.Name == "" || f.Matches(record.Name) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// Filtered wraps a source, applying the filter to every batch it yields.
type Filtered struct {
	source Source
	filter *NameFilter
}

// NewFiltered wraps source with the given name filter.
func NewFiltered(source Source, filter *NameFilter) *Filtered {
	return &Filtered{source: source, filter: filter}
}

// Records yields the underlying batch with the name filter applied.
func (f *Filtered) Records(ctx context.Context) ([]Record, error) {
	records, err := f.source.Records(ctx)
	if err != nil {
		return nil, err
	}
	return f.filter.Apply(records), nil
}
