package sources

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/jingkaihe/skillgate/pkg/logger"
)

const skillFileName = "SKILL.md"

// Discovery is a markdown-directory source. Each skill lives in its own
// directory containing a SKILL.md whose YAML frontmatter declares name,
// description, and allowed-tools; the remainder of the file is the opaque
// body. Directories are scanned in lexical order so batches are stable
// across calls.
type Discovery struct {
	skillDirs []string
}

// Option configures a Discovery.
type Option func(*Discovery) error

// WithSkillDirs sets custom skill directories, scanned in the given order.
func WithSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.skillDirs = dirs
		return nil
	}
}

// WithDefaultDirs initializes with the default skill directories: repo-local
// first, then user-global.
func WithDefaultDirs() Option {
	return func(d *Discovery) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		d.skillDirs = []string{
			"./.skillgate/skills",
			filepath.Join(homeDir, ".skillgate", "skills"),
		}
		return nil
	}
}

// NewDiscovery creates a markdown directory source. With no options the
// default directories are used.
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{}

	if len(opts) == 0 {
		opts = []Option{WithDefaultDirs()}
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Dirs returns the directories this source scans, in scan order.
func (d *Discovery) Dirs() []string {
	out := make([]string, len(d.skillDirs))
	copy(out, d.skillDirs)
	return out
}

// Records scans the configured directories and yields one record per skill
// directory. A SKILL.md that cannot be parsed still yields a record (with the
// fields left empty) so the engine can reject it attributably; a missing
// SKILL.md skips the directory. Later directories do not shadow anything
// here — duplicate names are the engine's call.
func (d *Discovery) Records(ctx context.Context) ([]Record, error) {
	var records []Record

	for _, dir := range d.skillDirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("dir", dir).Debug("skipping unreadable skill directory")
			continue
		}

		for _, entry := range entries {
			entryPath := filepath.Join(dir, entry.Name())

			// Stat rather than entry.IsDir so symlinked skill dirs work.
			info, err := os.Stat(entryPath)
			if err != nil || !info.IsDir() {
				continue
			}

			skillPath := filepath.Join(entryPath, skillFileName)
			content, err := os.ReadFile(skillPath)
			if err != nil {
				continue
			}

			record, err := parseSkillFile(content)
			if err != nil {
				logger.G(ctx).WithError(err).WithField("path", skillPath).Debug("malformed skill file")
			}
			record.Origin = skillPath
			records = append(records, record)
		}
	}

	return records, nil
}

// parseSkillFile extracts frontmatter metadata and the body from a SKILL.md.
// On error the returned record is zero-valued apart from what parsed.
func parseSkillFile(content []byte) (Record, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return Record{}, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return Record{}, errors.New("missing frontmatter")
	}

	name, _ := metaData["name"].(string)
	description, _ := metaData["description"].(string)

	return Record{
		Name:         name,
		Description:  description,
		AllowedTools: parseAllowedTools(metaData["allowed-tools"]),
		Body:         extractBodyContent(string(content)),
	}, nil
}

// parseAllowedTools accepts the two frontmatter shapes found in the wild:
// a comma-separated string ("Read, Grep, Glob") or a YAML list. Anything
// else means no tools are permitted.
func parseAllowedTools(value any) []string {
	switch v := value.(type) {
	case string:
		parts := strings.Split(v, ",")
		tools := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				tools = append(tools, part)
			}
		}
		return tools
	case []any:
		tools := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				tools = append(tools, strings.TrimSpace(s))
			}
		}
		return tools
	default:
		return nil
	}
}

// extractBodyContent strips the YAML frontmatter block and returns the body.
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}
