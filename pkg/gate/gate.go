// Package gate enforces the allowed-tools capability boundary of activated
// skills. Each activation token snapshots its skill's allowlist and the
// registry version at issue time; authorization is a pure set-membership
// check against that snapshot, fail-closed on anything unknown.
package gate

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jingkaihe/skillgate/pkg/types/skills"
)

// Token is the opaque handle issued when a skill is activated. It binds one
// skill record, a capability set snapshot, and the registry version it was
// issued under. Per-token state is owned by the token; no cross-token
// synchronization exists.
type Token struct {
	id           string
	record       *skills.Record
	allowed      map[string]struct{}
	boundVersion uint64
	score        float64

	mu       sync.Mutex
	released bool
}

// ID returns the unique token identifier.
func (t *Token) ID() string {
	return t.id
}

// SkillName returns the name of the activated skill.
func (t *Token) SkillName() string {
	return t.record.Name
}

// Record returns the activated skill record, including its opaque body.
func (t *Token) Record() *skills.Record {
	return t.record
}

// Score returns the relevance score the skill was activated at.
func (t *Token) Score() float64 {
	return t.score
}

// Released reports whether the token has been released.
func (t *Token) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

// Gate issues activation tokens and answers authorization checks against
// them. The registry version is read through versionFn so a reload under an
// outstanding token is detected as staleness.
type Gate struct {
	versionFn  func() uint64
	knownTools map[string]struct{}
}

// Option configures a Gate.
type Option func(*Gate)

// WithKnownTools restricts the tool universe. When set, a requested tool
// outside the universe is denied as UnknownTool before the allowlist is even
// consulted. Without it, any non-empty tool name is membership-checked.
func WithKnownTools(tools ...string) Option {
	return func(g *Gate) {
		g.knownTools = make(map[string]struct{}, len(tools))
		for _, tool := range tools {
			g.knownTools[tool] = struct{}{}
		}
	}
}

// New creates a gate whose staleness checks read the registry version from
// versionFn.
func New(versionFn func() uint64, opts ...Option) *Gate {
	g := &Gate{versionFn: versionFn}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Issue creates a token for the record, snapshotting its allowlist. The
// token is bound to registryVersion — the version of the snapshot the record
// was selected from — so a reload racing the query is caught as staleness.
func (g *Gate) Issue(record *skills.Record, score float64, registryVersion uint64) *Token {
	allowed := make(map[string]struct{}, len(record.AllowedTools))
	for _, tool := range record.AllowedTools {
		allowed[tool] = struct{}{}
	}
	return &Token{
		id:           uuid.NewString(),
		record:       record,
		allowed:      allowed,
		boundVersion: registryVersion,
		score:        score,
	}
}

// Authorize checks whether the token may invoke the requested tool. Checks
// run in order: released, stale, unknown tool, allowlist membership. Every
// denial carries the skill, tool, and reason.
func (g *Gate) Authorize(token *Token, tool string) skills.Decision {
	if token == nil {
		return skills.Deny("", tool, skills.DenyTokenReleased)
	}
	name := token.record.Name

	if token.Released() {
		return skills.Deny(name, tool, skills.DenyTokenReleased)
	}
	if g.versionFn() != token.boundVersion {
		return skills.Deny(name, tool, skills.DenyTokenStale)
	}
	if tool == "" {
		return skills.Deny(name, tool, skills.DenyUnknownTool)
	}
	if g.knownTools != nil {
		if _, known := g.knownTools[tool]; !known {
			return skills.Deny(name, tool, skills.DenyUnknownTool)
		}
	}
	if _, ok := token.allowed[tool]; !ok {
		return skills.Deny(name, tool, skills.DenyNotInAllowList)
	}
	return skills.Allow(name, tool)
}

// Release revokes the token. It is idempotent; releasing an already released
// token is a no-op. A released token denies every further authorization with
// TokenReleased, even if the same skill is reactivated under a new token.
func (g *Gate) Release(token *Token) {
	if token == nil {
		return
	}
	token.mu.Lock()
	defer token.mu.Unlock()
	token.released = true
}
