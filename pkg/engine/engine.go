// Package engine is the caller-facing surface of skillgate: it owns the
// registry lifecycle (load, reload, register, unregister), runs queries
// through the ranker and selector, and mediates tool authorization through
// the permission gate. Queries are read-only against an immutable registry
// snapshot, so any number may run concurrently with each other and with a
// reload.
package engine

import (
	"context"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillgate/pkg/gate"
	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jingkaihe/skillgate/pkg/ranker"
	"github.com/jingkaihe/skillgate/pkg/registry"
	"github.com/jingkaihe/skillgate/pkg/selector"
	"github.com/jingkaihe/skillgate/pkg/sources"
	"github.com/jingkaihe/skillgate/pkg/telemetry"
	"github.com/jingkaihe/skillgate/pkg/types/skills"
)

// Engine wires the record store, ranker, selector, and permission gate
// behind one API.
type Engine struct {
	store         *registry.Store
	gate          *gate.Gate
	defaultPolicy skills.Policy
	knownTools    []string
	loadGen       atomic.Uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultPolicy sets the policy used when Query is called without one.
func WithDefaultPolicy(policy skills.Policy) Option {
	return func(e *Engine) {
		e.defaultPolicy = policy
	}
}

// WithKnownTools restricts the gate's tool universe; requests for tools
// outside it are denied as UnknownTool.
func WithKnownTools(tools ...string) Option {
	return func(e *Engine) {
		e.knownTools = tools
	}
}

// New creates an engine with an empty registry.
func New(opts ...Option) *Engine {
	e := &Engine{
		store:         registry.NewStore(),
		defaultPolicy: skills.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	var gateOpts []gate.Option
	if e.knownTools != nil {
		gateOpts = append(gateOpts, gate.WithKnownTools(e.knownTools...))
	}
	e.gate = gate.New(e.store.Version, gateOpts...)
	return e
}

// Rejected describes one record that failed to load, attributable by batch
// index, name (if it had one), and origin.
type Rejected struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Origin string `json:"origin,omitempty"`
	Reason error  `json:"-"`
}

// LoadResult reports the outcome of a load or reload: how many records went
// live and which were rejected, in batch order.
type LoadResult struct {
	Loaded   int
	Rejected []Rejected
}

// Err aggregates the rejection reasons into a single error, or nil if the
// whole batch loaded. Rejections never abort a batch; this is for callers
// that want one error value to report.
func (r LoadResult) Err() error {
	var combined *multierror.Error
	for _, rej := range r.Rejected {
		combined = multierror.Append(combined, errors.Wrapf(rej.Reason, "record %d (%s)", rej.Index, rej.Origin))
	}
	return combined.ErrorOrNil()
}

// materialize turns raw source records into validated skill records stamped
// with the given source generation. Malformed records and duplicates (within
// the batch or against taken names) are rejected individually, first
// occurrence winning.
func materialize(raw []sources.Record, generation uint64, taken func(string) bool) ([]*skills.Record, []Rejected) {
	accepted := make([]*skills.Record, 0, len(raw))
	var rejected []Rejected
	seen := make(map[string]bool, len(raw))

	for i, src := range raw {
		record := &skills.Record{
			Metadata: skills.Metadata{
				Name:         src.Name,
				Description:  src.Description,
				AllowedTools: skills.NormalizeTools(src.AllowedTools),
			},
			Body:          src.Body,
			Origin:        src.Origin,
			SourceVersion: generation,
		}
		if err := record.Validate(); err != nil {
			rejected = append(rejected, Rejected{Index: i, Name: src.Name, Origin: src.Origin, Reason: err})
			continue
		}
		if seen[record.Name] || (taken != nil && taken(record.Name)) {
			rejected = append(rejected, Rejected{
				Index:  i,
				Name:   record.Name,
				Origin: src.Origin,
				Reason: errors.Wrapf(skills.ErrDuplicateName, "skill %q", record.Name),
			})
			continue
		}
		seen[record.Name] = true
		accepted = append(accepted, record)
	}
	return accepted, rejected
}

// LoadSkills registers every record the source yields on top of the current
// registry. One bad record never aborts the batch: malformed and duplicate
// records are reported in the result and skipped. The returned error is only
// non-nil when the source itself fails.
func (e *Engine) LoadSkills(ctx context.Context, source sources.Source) (LoadResult, error) {
	var result LoadResult
	err := telemetry.WithSpan(ctx, "engine.load_skills", func(ctx context.Context) error {
		raw, err := source.Records(ctx)
		if err != nil {
			return errors.Wrap(err, "skill source failed")
		}

		snapshot := e.store.Snapshot()
		generation := e.loadGen.Add(1)
		accepted, rejected := materialize(raw, generation, func(name string) bool {
			_, err := snapshot.Lookup(name)
			return err == nil
		})
		result.Rejected = rejected

		for _, record := range accepted {
			if err := e.store.Register(record); err != nil {
				// Concurrent registration beat us to the name.
				result.Rejected = append(result.Rejected, Rejected{Name: record.Name, Origin: record.Origin, Reason: err})
				continue
			}
			result.Loaded++
		}

		telemetry.SetAttributes(ctx,
			attribute.Int("skills.loaded", result.Loaded),
			attribute.Int("skills.rejected", len(result.Rejected)),
		)
		logger.G(ctx).WithField("loaded", result.Loaded).WithField("rejected", len(result.Rejected)).Debug("skills loaded")
		return nil
	})
	return result, err
}

// Reload atomically replaces the whole registry with the source's batch.
// Readers in flight keep their old snapshot; new queries see only the new
// table. Every activation token issued against the old registry version
// becomes stale. Rejected records are reported exactly as in LoadSkills.
func (e *Engine) Reload(ctx context.Context, source sources.Source) (LoadResult, error) {
	var result LoadResult
	err := telemetry.WithSpan(ctx, "engine.reload", func(ctx context.Context) error {
		raw, err := source.Records(ctx)
		if err != nil {
			return errors.Wrap(err, "skill source failed")
		}

		generation := e.loadGen.Add(1)
		accepted, rejected := materialize(raw, generation, nil)
		result.Rejected = rejected
		result.Loaded = len(accepted)

		snapshot := e.store.BulkReplace(accepted)

		telemetry.SetAttributes(ctx,
			attribute.Int("skills.loaded", result.Loaded),
			attribute.Int("skills.rejected", len(result.Rejected)),
			attribute.Int64("registry.version", int64(snapshot.Version())),
		)
		logger.G(ctx).WithField("loaded", result.Loaded).
			WithField("rejected", len(result.Rejected)).
			WithField("version", snapshot.Version()).
			Info("registry reloaded")
		return nil
	})
	return result, err
}

// Register adds a single skill record built from the raw source record.
func (e *Engine) Register(src sources.Record) error {
	record := &skills.Record{
		Metadata: skills.Metadata{
			Name:         src.Name,
			Description:  src.Description,
			AllowedTools: skills.NormalizeTools(src.AllowedTools),
		},
		Body:          src.Body,
		Origin:        src.Origin,
		SourceVersion: e.loadGen.Load(),
	}
	return e.store.Register(record)
}

// Unregister removes the named skill, or returns ErrNotFound.
func (e *Engine) Unregister(name string) error {
	return e.store.Unregister(name)
}

// Lookup returns the record registered under name, or ErrNotFound.
func (e *Engine) Lookup(name string) (*skills.Record, error) {
	return e.store.Snapshot().Lookup(name)
}

// List returns all live records in registration order.
func (e *Engine) List() []*skills.Record {
	return e.store.Snapshot().List()
}

// Version returns the current registry version.
func (e *Engine) Version() uint64 {
	return e.store.Version()
}

// QueryResult is the terminal state of one query: the full ranking, the
// issued activation tokens in rank order, and any qualifying candidates the
// budget truncated (threshold mode). Empty Tokens is a valid outcome meaning
// no applicable skill.
type QueryResult struct {
	Candidates      []skills.RankedCandidate
	Tokens          []*gate.Token
	Overflow        []skills.RankedCandidate
	RegistryVersion uint64
}

// Query ranks every registered skill against the text, selects an activation
// set under the policy (nil means the engine default), and issues one token
// per selected skill. The whole pass runs against one immutable snapshot.
// The only errors are an invalid policy or a context canceled before tokens
// were issued; "nothing matched" is not an error.
func (e *Engine) Query(ctx context.Context, text string, policy *skills.Policy) (*QueryResult, error) {
	pol := e.defaultPolicy
	if policy != nil {
		pol = *policy
	}
	if err := pol.Validate(); err != nil {
		return nil, err
	}

	var result *QueryResult
	err := telemetry.WithSpan(ctx, "engine.query", func(ctx context.Context) error {
		snapshot := e.store.Snapshot()

		if err := ctx.Err(); err != nil {
			return err
		}
		candidates := ranker.Rank(text, snapshot.List())
		if err := ctx.Err(); err != nil {
			return err
		}

		selected := selector.Select(candidates, pol)

		tokens := make([]*gate.Token, 0, len(selected.Selected))
		for _, candidate := range selected.Selected {
			record, err := snapshot.Lookup(candidate.SkillName)
			if err != nil {
				return err
			}
			tokens = append(tokens, e.gate.Issue(record, candidate.Score, snapshot.Version()))
		}

		result = &QueryResult{
			Candidates:      candidates,
			Tokens:          tokens,
			Overflow:        selected.Overflow,
			RegistryVersion: snapshot.Version(),
		}

		telemetry.SetAttributes(ctx,
			attribute.Int("query.candidates", len(candidates)),
			attribute.Int("query.activated", len(tokens)),
			attribute.Int("query.overflow", len(selected.Overflow)),
		)
		return nil
	}, attribute.String("query.mode", string(pol.Mode)), attribute.Int("query.budget", pol.Budget))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Authorize checks whether the token may invoke the tool. Denials carry the
// reason and are logged, never swallowed.
func (e *Engine) Authorize(ctx context.Context, token *gate.Token, tool string) skills.Decision {
	decision := e.gate.Authorize(token, tool)
	if !decision.Allowed {
		logger.G(ctx).WithField("skill", decision.SkillName).
			WithField("tool", tool).
			WithField("reason", string(decision.Reason)).
			Warn("tool authorization denied")
	}
	return decision
}

// Release revokes the token. Idempotent.
func (e *Engine) Release(token *gate.Token) {
	e.gate.Release(token)
}
