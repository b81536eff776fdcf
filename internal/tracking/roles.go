// Package tracking holds the pure decision logic of visit tracking: which
// visitors are recorded and how the recorded source URL is derived.
// Nothing in here touches storage or configuration files.
package tracking

import (
	"sort"
	"strings"
)

// GuestRole is the sentinel role for visitors that are not logged in.
const GuestRole = "guest"

// RoleSet is a set of role identifiers.
type RoleSet map[string]struct{}

// NewRoleSet builds a set from role names, ignoring blanks and surrounding spaces.
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

// ParseRoles splits a comma-separated role list.
func ParseRoles(csv string) RoleSet {
	return NewRoleSet(strings.Split(csv, ",")...)
}

// Has reports whether role is in the set.
func (s RoleSet) Has(role string) bool {
	_, ok := s[role]
	return ok
}

// Intersects reports whether the two sets share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for r := range small {
		if large.Has(r) {
			return true
		}
	}
	return false
}

// Sorted returns the roles in lexical order.
func (s RoleSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Visitor is the identity of the current page viewer as supplied by the host.
type Visitor struct {
	LoggedIn bool
	Roles    RoleSet
}

// Guest returns a logged-out visitor.
func Guest() Visitor {
	return Visitor{}
}

// Member returns a logged-in visitor holding roles.
func Member(roles ...string) Visitor {
	return Visitor{LoggedIn: true, Roles: NewRoleSet(roles...)}
}

// Configuration is the persisted tracking configuration.
type Configuration struct {
	TrackedRoles     RoleSet
	EraseOnUninstall bool
}

// ShouldRecord decides whether a visit from v is recorded under the tracked roles.
// A logged-in visitor is never treated as a guest, even when none of their
// roles is tracked.
func ShouldRecord(tracked RoleSet, v Visitor) bool {
	if len(tracked) == 0 {
		return false
	}
	if !v.LoggedIn {
		return tracked.Has(GuestRole)
	}
	return tracked.Intersects(v.Roles)
}
