package api

import (
	"net/http"
	"strings"

	"github.com/axellelanca/trackit/internal/tracking"
)

// Identity headers read by HeaderIdentity. They are expected to be set by an
// authenticating proxy in front of the site.
const (
	UserHeader  = "X-Trackit-User"
	RolesHeader = "X-Trackit-Roles"
)

// IdentityResolver tells who is behind a request.
type IdentityResolver interface {
	Resolve(r *http.Request) tracking.Visitor
}

// IdentityFunc adapts a function to IdentityResolver.
type IdentityFunc func(r *http.Request) tracking.Visitor

// Resolve calls f(r).
func (f IdentityFunc) Resolve(r *http.Request) tracking.Visitor { return f(r) }

// HeaderIdentity treats a non-empty X-Trackit-User as a logged-in visitor whose
// roles are the comma-separated X-Trackit-Roles.
type HeaderIdentity struct{}

// Resolve implements IdentityResolver.
func (HeaderIdentity) Resolve(r *http.Request) tracking.Visitor {
	if strings.TrimSpace(r.Header.Get(UserHeader)) == "" {
		return tracking.Guest()
	}
	return tracking.Visitor{LoggedIn: true, Roles: tracking.ParseRoles(r.Header.Get(RolesHeader))}
}
