package authz

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mantenix/inventory-service/internal/domain"
)

// Wildcard grants every capability
const Wildcard = "*"

//go:embed default_policy.yaml
var defaultPolicy []byte

// Policy maps roles to the capabilities they hold
type Policy struct {
	Roles map[string][]string `yaml:"roles"`
}

// LoadPolicy reads a YAML policy file. An empty path loads the built-in policy.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return ParsePolicy(defaultPolicy)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy document
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if len(p.Roles) == 0 {
		return nil, fmt.Errorf("policy defines no roles")
	}
	return &p, nil
}

// Authorizer answers capability checks from a static Policy. Role names are
// case-insensitive.
type Authorizer struct {
	roles map[string]map[string]struct{}
}

// NewAuthorizer indexes p
func NewAuthorizer(p *Policy) *Authorizer {
	roles := make(map[string]map[string]struct{}, len(p.Roles))
	for role, caps := range p.Roles {
		set := make(map[string]struct{}, len(caps))
		for _, c := range caps {
			set[strings.TrimSpace(c)] = struct{}{}
		}
		roles[strings.ToUpper(role)] = set
	}
	return &Authorizer{roles: roles}
}

// HasCapability reports whether the session's role holds capability
func (a *Authorizer) HasCapability(_ context.Context, session domain.Session, capability string) (bool, error) {
	caps, ok := a.roles[strings.ToUpper(session.Role)]
	if !ok {
		return false, nil
	}
	if _, ok := caps[Wildcard]; ok {
		return true, nil
	}
	_, ok = caps[capability]
	return ok, nil
}

// RequireCapability returns an error matching domain.ErrForbidden when the
// session lacks capability
func (a *Authorizer) RequireCapability(ctx context.Context, session domain.Session, capability string) error {
	ok, err := a.HasCapability(ctx, session, capability)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: role %q lacks %s", domain.ErrForbidden, session.Role, capability)
	}
	return nil
}
