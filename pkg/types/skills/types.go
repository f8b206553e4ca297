// Package skills defines the core data model shared by the skillgate engine:
// skill metadata, immutable records, ranked candidates, and selection policies.
// Skill bodies are opaque to the engine; they are stored and handed back to the
// caller on activation, never interpreted.
package skills

import (
	"strings"

	"github.com/pkg/errors"
)

// Metadata is the immutable descriptive header of a skill. Name uniquely
// identifies the skill across the live registry; Description is free text
// used only for relevance ranking; AllowedTools is the ordered set of
// capability tokens the skill's activation may invoke (empty means no
// side-effecting tool is permitted).
type Metadata struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	AllowedTools []string `json:"allowedTools" yaml:"allowed-tools"`
}

// Validate checks the structural invariants of the metadata. A violation is
// reported as a MalformedRecord error.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.Wrap(ErrMalformedRecord, "skill name is required")
	}
	if strings.TrimSpace(m.Description) == "" {
		return errors.Wrapf(ErrMalformedRecord, "skill %q: description is required", m.Name)
	}
	return nil
}

// NormalizeTools deduplicates the allowed-tools list while preserving the
// declared order, dropping empty tokens.
func NormalizeTools(tools []string) []string {
	seen := make(map[string]bool, len(tools))
	normalized := make([]string, 0, len(tools))
	for _, tool := range tools {
		tool = strings.TrimSpace(tool)
		if tool == "" || seen[tool] {
			continue
		}
		seen[tool] = true
		normalized = append(normalized, tool)
	}
	return normalized
}

// Record is a registered skill: metadata plus the opaque body, stamped with
// the source generation it was loaded under. Records are immutable once
// registered; a reload produces fresh records rather than mutating old ones.
type Record struct {
	Metadata
	// Body is the skill content. The engine never interprets it.
	Body string `json:"body,omitempty" yaml:"body,omitempty"`
	// Origin identifies where the record came from (file path, "static", ...)
	// for attributable load reporting.
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`
	// SourceVersion is a monotonic counter incremented each time the owning
	// registry is loaded or reloaded, used for staleness detection.
	SourceVersion uint64 `json:"sourceVersion" yaml:"sourceVersion"`
}

// AllowsTool reports whether the record's allowlist contains the tool.
func (r *Record) AllowsTool(tool string) bool {
	for _, t := range r.AllowedTools {
		if t == tool {
			return true
		}
	}
	return false
}

// RankedCandidate is one entry of a ranking pass: the skill name, its
// relevance score in [0,1], and its rank position (0-based, stable by
// registration order on score ties).
type RankedCandidate struct {
	SkillName string  `json:"skillName"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}

// SelectionMode determines how ranked candidates are turned into an
// activation set.
type SelectionMode string

const (
	// ModeTop1 selects the single highest-scoring qualifying candidate.
	ModeTop1 SelectionMode = "top1"
	// ModeTopK selects the first Budget qualifying candidates in rank order.
	ModeTopK SelectionMode = "topk"
	// ModeThreshold selects every candidate at or above MinScore, capped at
	// Budget; truncated overflow is reported, never silently dropped.
	ModeThreshold SelectionMode = "threshold"
)

// Policy configures the activation selector. Zero-score candidates are never
// selected regardless of MinScore; a Budget of 0 always yields an empty
// activation set.
type Policy struct {
	Mode     SelectionMode `json:"mode" mapstructure:"mode"`
	Budget   int           `json:"budget" mapstructure:"budget"`
	MinScore float64       `json:"minScore" mapstructure:"min_score"`
}

// DefaultPolicy returns the policy used when the caller supplies none:
// top-1 selection with a budget of one.
func DefaultPolicy() Policy {
	return Policy{
		Mode:     ModeTop1,
		Budget:   1,
		MinScore: 0,
	}
}

// Validate checks that the policy's mode is recognized and its bounds are
// sane. An empty mode is filled in as top1.
func (p *Policy) Validate() error {
	if p.Mode == "" {
		p.Mode = ModeTop1
	}
	switch p.Mode {
	case ModeTop1, ModeTopK, ModeThreshold:
	default:
		return errors.Errorf("unknown selection mode %q", p.Mode)
	}
	if p.Budget < 0 {
		return errors.Errorf("budget must be >= 0, got %d", p.Budget)
	}
	if p.MinScore < 0 || p.MinScore > 1 {
		return errors.Errorf("min score must be within [0,1], got %v", p.MinScore)
	}
	return nil
}
