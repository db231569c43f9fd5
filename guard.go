package authgate

import (
	"context"

	"github.com/veylan/authgate/permission"
)

// Guard evaluates navigation attempts against session and permission state.
// Obtain one from [Client.Guard].
type Guard struct {
	client *Client
}

// Guard returns the route guard bound to this client.
func (c *Client) Guard() *Guard {
	return &Guard{client: c}
}

// Evaluate decides whether navigation to the route may proceed. Logged-out
// users reach only public routes and the login surface; logged-in users are
// bounced off the login surface; permission-gated routes require at least
// one of the listed permissions. When the identity has not been fetched yet
// (fresh hydration), Evaluate loads it from the profile endpoint first; a
// failed load ends the session and redirects to login.
func (g *Guard) Evaluate(ctx context.Context, route RouteSpec) Decision {
	c := g.client

	if !c.IsLoggedIn() {
		if route.Public || route.LoginSurface {
			return DecisionAllow
		}
		return DecisionLogin
	}

	if route.LoginSurface {
		return DecisionHome
	}

	if route.Public {
		return DecisionAllow
	}

	identity, ok := c.Identity()
	if !ok {
		fetched, err := c.FetchIdentity(ctx)
		if err != nil {
			// The pipeline already terminated the session on credential
			// failures; clear defensively for other error classes too.
			if c.IsLoggedIn() {
				c.terminateSession(ctx, "identity fetch failed: "+err.Error())
			}
			return DecisionLogin
		}
		identity = fetched
	}

	if len(route.Permissions) > 0 && !permission.HasAny(identity, route.Permissions...) {
		c.metrics.Inc(MetricForbidden)
		c.emitAudit(ctx, AuditEvent{
			EventType: AuditRequestForbidden,
			UserID:    identity.ID,
			Path:      route.Name,
			Error:     "missing route permission",
		})
		return DecisionForbidden
	}

	return DecisionAllow
}

// Redirect maps a decision to its target route. The boolean is false for
// DecisionAllow, which has no redirect.
func (g *Guard) Redirect(d Decision) (string, bool) {
	switch d {
	case DecisionLogin:
		return g.client.config.Routes.Login, true
	case DecisionHome:
		return g.client.config.Routes.Home, true
	case DecisionForbidden:
		return g.client.config.Routes.Forbidden, true
	default:
		return "", false
	}
}
