// Package access decides which organizations may use the platform and who may
// see a project.
package access

import (
	"sort"
	"strings"

	"bountyhub/pkg/config"

	"go.uber.org/fx"
)

var Module = fx.Module("access",
	fx.Provide(NewAllowlist),
)

// Wildcard disables the organization allowlist.
const Wildcard = "all"

// Allowlist is the set of organizations allowed to sign in. The zero value
// permits everyone.
type Allowlist struct {
	orgs map[string]struct{}
}

func NewAllowlist(cfg *config.Config) Allowlist {
	return ParseAllowlist(cfg.Access.AllowedOrganizations)
}

// ParseAllowlist builds an allowlist from a comma separated list. An empty list
// or one containing "all" is unrestricted.
func ParseAllowlist(raw string) Allowlist {
	orgs := ParseOrganizations(raw)
	if len(orgs) == 0 {
		return Allowlist{}
	}

	set := make(map[string]struct{}, len(orgs))
	for _, org := range orgs {
		if strings.EqualFold(org, Wildcard) {
			return Allowlist{}
		}
		set[strings.ToLower(org)] = struct{}{}
	}
	return Allowlist{orgs: set}
}

func (a Allowlist) Unrestricted() bool {
	return len(a.orgs) == 0
}

// Permits reports whether org may sign in. Organization names compare case
// insensitively.
func (a Allowlist) Permits(org string) bool {
	if a.Unrestricted() {
		return true
	}
	_, ok := a.orgs[strings.ToLower(strings.TrimSpace(org))]
	return ok
}

// Organizations returns the allowed names sorted, or nil when unrestricted.
func (a Allowlist) Organizations() []string {
	if a.Unrestricted() {
		return nil
	}
	out := make([]string, 0, len(a.orgs))
	for org := range a.orgs {
		out = append(out, org)
	}
	sort.Strings(out)
	return out
}

// ParseOrganizations splits a comma separated list, trimming blanks.
func ParseOrganizations(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinOrganizations(orgs []string) string {
	return strings.Join(ParseOrganizations(strings.Join(orgs, ",")), ",")
}
