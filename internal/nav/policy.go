package nav

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/noveleno/portal/internal/session"
)

// Policy decides whether a role may see entries tagged with subject and
// action. Action may be empty.
type Policy interface {
	Allowed(role session.Role, subject, action string) bool
}

type allowAll struct{}

func (allowAll) Allowed(session.Role, string, string) bool { return true }

// AllowAll shows every entry the menu builder produced for the role.
var AllowAll Policy = allowAll{}

// Wildcard matches any subject in a RolePolicy.
const Wildcard = "*"

// RolePolicy is an explicit (role, subject) table. Roles missing from the
// table see nothing.
type RolePolicy struct {
	subjects map[session.Role]map[string]bool
}

func NewRolePolicy(table map[session.Role][]string) *RolePolicy {
	p := &RolePolicy{subjects: make(map[session.Role]map[string]bool, len(table))}
	for role, subjects := range table {
		set := make(map[string]bool, len(subjects))
		for _, s := range subjects {
			set[s] = true
		}
		p.subjects[role] = set
	}
	return p
}

func (p *RolePolicy) Allowed(role session.Role, subject, action string) bool {
	set, ok := p.subjects[role]
	if !ok {
		return false
	}
	return set[Wildcard] || set[subject]
}

// policyFile is the on-disk shape:
//
//	[roles]
//	User = ["General Home", "Menu", "Chat", "News", "Emergency Hotlines"]
//	Admin = ["*"]
type policyFile struct {
	Roles map[string][]string `toml:"roles"`
}

// LoadPolicy reads a RolePolicy from a TOML file. Unknown role names are
// rejected so a typo does not silently hide a menu.
func LoadPolicy(path string) (*RolePolicy, error) {
	var f policyFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode nav policy: %w", err)
	}
	table := make(map[session.Role][]string, len(f.Roles))
	for name, subjects := range f.Roles {
		role := session.ParseRole(name)
		if role == session.RoleUnset {
			return nil, fmt.Errorf("nav policy: unknown role %q", name)
		}
		table[role] = subjects
	}
	return NewRolePolicy(table), nil
}
