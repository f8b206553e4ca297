// Package sources supplies skill records to the engine. A source yields a
// finite, restartable batch of raw (metadata, body) records; it performs no
// validation of its own — the engine rejects malformed or duplicate records
// individually so one bad record never aborts the rest of a batch.
package sources

import "context"

// Record is one raw skill yielded by a source, before engine validation.
type Record struct {
	Name         string
	Description  string
	AllowedTools []string
	Body         string
	// Origin identifies where the record came from (file path, "static")
	// so load rejections are attributable.
	Origin string
}

// Source yields skill records. Records must be finite and restartable:
// calling it again re-yields the full batch. The engine only calls a source
// at load/reload time.
type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// Static is an in-memory source, primarily for tests and embedding callers
// that assemble skills programmatically.
type Static struct {
	records []Record
}

// NewStatic creates a static source over the given records.
func NewStatic(records ...Record) *Static {
	return &Static{records: records}
}

// Records returns a copy of the configured batch.
func (s *Static) Records(_ context.Context) ([]Record, error) {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	for i := range out {
		if out[i].Origin == "" {
			out[i].Origin = "static"
		}
	}
	return out, nil
}
