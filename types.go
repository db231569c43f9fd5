package authgate

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/veylan/authgate/permission"
	"github.com/veylan/authgate/session"
)

// Credential is the access/refresh token pair held for an active session.
type Credential = session.Credential

// Identity is the authenticated principal with its roles and permissions.
type Identity = permission.Identity

// Role is a named permission set attached to an identity.
type Role = permission.Role

// Permission is a single grantable capability.
type Permission = permission.Permission

// LoginRequest carries the credentials submitted to the login endpoint.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// Call describes one API request routed through the pipeline. Body, Query,
// and Header are optional; a non-nil Body is JSON-encoded.
type Call struct {
	Method string
	Path   string
	Body   any
	Query  url.Values
	Header http.Header
}

// RouteSpec describes a navigable route for guard evaluation.
type RouteSpec struct {
	// Name identifies the route in audit records.
	Name string

	// Public marks routes reachable without a session.
	Public bool

	// LoginSurface marks the login page itself: public when logged out,
	// redirected away from when logged in.
	LoginSurface bool

	// Permissions, when non-empty, requires the identity to hold at least
	// one of the named permissions.
	Permissions []string
}

// Decision is the guard's verdict for a navigation attempt.
type Decision int

const (
	// DecisionAllow lets the navigation proceed.
	DecisionAllow Decision = iota
	// DecisionLogin redirects to the login route.
	DecisionLogin
	// DecisionHome redirects a logged-in user away from the login surface.
	DecisionHome
	// DecisionForbidden redirects to the access-denied route.
	DecisionForbidden
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionLogin:
		return "login"
	case DecisionHome:
		return "home"
	case DecisionForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Navigator receives redirect targets from the pipeline and guard. Web
// frontends map this onto their router; headless clients can use
// [NavigatorFunc] or leave it nil.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// envelope is the uniform response body: code 0 means business success and
// Data carries the payload; any other code is a BusinessError.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginPayload struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	Identity     permission.Identity `json:"identity"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
