package skills

import (
	"fmt"

	"github.com/pkg/errors"
)

// Engine error taxonomy. Every error is local and recoverable; a failed load
// or denied authorization never takes the process down. Callers match with
// errors.Is.
var (
	// ErrDuplicateName reports a registration whose name is already live in
	// the registry (or appeared earlier in the same batch).
	ErrDuplicateName = errors.New("duplicate skill name")
	// ErrMalformedRecord reports a record that is missing required metadata.
	ErrMalformedRecord = errors.New("malformed skill record")
	// ErrNotFound reports a lookup of an unregistered skill name.
	ErrNotFound = errors.New("skill not found")
)

// DenyReason explains why an authorization check was denied.
type DenyReason string

const (
	// DenyNotInAllowList: the tool is known but absent from the skill's
	// allowed-tools set.
	DenyNotInAllowList DenyReason = "NotInAllowList"
	// DenyTokenReleased: the activation token was released by the caller;
	// no further authorization is possible against it.
	DenyTokenReleased DenyReason = "TokenReleased"
	// DenyTokenStale: the registry version changed underneath the token
	// (reload or mutation), invalidating its capability snapshot.
	DenyTokenStale DenyReason = "TokenStale"
	// DenyUnknownTool: the requested tool name is empty or outside the
	// configured tool universe. Fail-closed default.
	DenyUnknownTool DenyReason = "UnknownTool"
)

// Decision is the outcome of a permission check. Denials are always surfaced
// with the skill, tool, and reason so every denied attempt is individually
// attributable.
type Decision struct {
	Allowed   bool       `json:"allowed"`
	Reason    DenyReason `json:"reason,omitempty"`
	SkillName string     `json:"skillName"`
	Tool      string     `json:"tool"`
}

// Allow builds an allowed decision for the given skill and tool.
func Allow(skillName, tool string) Decision {
	return Decision{Allowed: true, SkillName: skillName, Tool: tool}
}

// Deny builds a denied decision with the given reason.
func Deny(skillName, tool string, reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason, SkillName: skillName, Tool: tool}
}

func (d Decision) String() string {
	if d.Allowed {
		return fmt.Sprintf("skill %q: tool %q allowed", d.SkillName, d.Tool)
	}
	return fmt.Sprintf("skill %q: tool %q denied (%s)", d.SkillName, d.Tool, d.Reason)
}
