package authgate

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/veylan/authgate/jwt"
	"github.com/veylan/authgate/permission"
	"github.com/veylan/authgate/session"
)

// Client is the authenticated request pipeline. Construct it with [Builder];
// all methods are safe for concurrent use afterwards.
type Client struct {
	config      Config
	sessions    *session.Store
	httpClient  *http.Client
	refreshHTTP *http.Client
	navigator   Navigator
	metrics     *Metrics
	audit       *auditDispatcher

	refreshGroup singleflight.Group
}

// Login authenticates against the login endpoint, stores the issued
// credential pair, and caches the returned identity. The request goes
// through the regular pipeline so envelope and transport failures surface
// with the usual error taxonomy.
func (c *Client) Login(ctx context.Context, req LoginRequest) error {
	var payload loginPayload
	err := c.do(ctx, Call{
		Method: http.MethodPost,
		Path:   c.config.Endpoints.Login,
		Body:   req,
	}, &payload)
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		c.emitAudit(ctx, AuditEvent{
			EventType: AuditLoginFailure,
			Path:      c.config.Endpoints.Login,
			Error:     err.Error(),
		})
		return err
	}

	cred := Credential{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}
	if err := c.sessions.SetCredential(ctx, cred); err != nil {
		if cred.Complete() {
			// Memory holds the pair; only durable storage is behind.
			log.Printf("authgate: credential persist failed: %v", err)
		} else {
			c.metrics.Inc(MetricLoginFailure)
			return err
		}
	}
	c.sessions.SetIdentity(payload.Identity)

	c.metrics.Inc(MetricLoginSuccess)
	c.emitAudit(ctx, AuditEvent{
		EventType: AuditLoginSuccess,
		UserID:    payload.Identity.ID,
		Path:      c.config.Endpoints.Login,
		Success:   true,
	})
	return nil
}

// Logout ends the session. With no active session it is a no-op. The server
// revocation call is best-effort: local state is cleared even when revocation
// fails, so the client always lands logged out.
func (c *Client) Logout(ctx context.Context) error {
	cred, ok := c.sessions.Credential()
	if !ok {
		return nil
	}

	if err := c.revoke(ctx, cred.AccessToken); err != nil {
		log.Printf("authgate: logout revocation failed: %v", err)
	}

	userID := c.auditUserID()
	if err := c.sessions.Clear(ctx); err != nil {
		log.Printf("authgate: session clear failed: %v", err)
	}

	c.metrics.Inc(MetricLogout)
	c.emitAudit(ctx, AuditEvent{
		EventType: AuditLogout,
		UserID:    userID,
		Path:      c.config.Endpoints.Logout,
		Success:   true,
	})
	return nil
}

// revoke posts to the logout endpoint on the bare refresh client. It stays
// outside the pipeline: a 401 here just means the token is already dead.
func (c *Client) revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.API.BaseURL+c.config.Endpoints.Logout, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if c.config.API.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.API.UserAgent)
	}

	resp, err := c.refreshHTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &TransportError{StatusCode: resp.StatusCode}
	}
	return nil
}

// FetchIdentity loads the identity from the profile endpoint and caches it.
func (c *Client) FetchIdentity(ctx context.Context) (Identity, error) {
	var id permission.Identity
	err := c.do(ctx, Call{
		Method: http.MethodGet,
		Path:   c.config.Endpoints.Profile,
	}, &id)
	if err != nil {
		return Identity{}, err
	}
	c.sessions.SetIdentity(id)
	return id, nil
}

// Identity returns the cached identity; the boolean is false when none has
// been fetched since login or hydration.
func (c *Client) Identity() (Identity, bool) {
	return c.sessions.Identity()
}

// IsLoggedIn reports whether a credential pair is held.
func (c *Client) IsLoggedIn() bool {
	return c.sessions.LoggedIn()
}

// AccessToken returns the current access token, or "" when logged out. Used
// by the middleware form of the pipeline.
func (c *Client) AccessToken() string {
	return c.sessions.AccessToken()
}

// RefreshPath returns the refresh endpoint path so the middleware can exempt
// refresh traffic from the replay rule.
func (c *Client) RefreshPath() string {
	return c.config.Endpoints.Refresh
}

// TokenClaims decodes the current access token's claims without verifying
// the signature. Returns false when logged out or the token is malformed.
func (c *Client) TokenClaims() (*jwt.AccessClaims, bool) {
	token := c.sessions.AccessToken()
	if token == "" {
		return nil, false
	}
	claims, err := jwt.DecodeUnverified(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// MetricsSnapshot copies the client's counters and histograms.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped returns how many audit events were discarded under
// backpressure.
func (c *Client) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// Close drains and stops the audit dispatcher. The client must not be used
// afterwards.
func (c *Client) Close() {
	c.audit.Close()
}

// terminateSession is the single exit for unrecoverable credential failures:
// clear local state, record it, and send the user to the login surface.
func (c *Client) terminateSession(ctx context.Context, reason string) {
	userID := c.auditUserID()
	if err := c.sessions.Clear(ctx); err != nil {
		log.Printf("authgate: session clear failed: %v", err)
	}
	c.metrics.Inc(MetricSessionCleared)
	c.emitAudit(ctx, AuditEvent{
		EventType: AuditForcedLogout,
		UserID:    userID,
		Error:     reason,
	})
	c.navigate(c.config.Routes.Login)
}

func (c *Client) navigate(route string) {
	if c.navigator != nil {
		c.navigator.Navigate(route)
	}
}

// auditUserID attributes events to the cached identity, falling back to the
// access token subject.
func (c *Client) auditUserID() string {
	if id, ok := c.sessions.Identity(); ok && id.ID != "" {
		return id.ID
	}
	if claims, ok := c.TokenClaims(); ok {
		return claims.UserID()
	}
	return ""
}

func (c *Client) emitAudit(ctx context.Context, event AuditEvent) {
	if c.audit == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if event.RequestID == "" {
		if id, ok := requestIDFromContext(ctx); ok {
			event.RequestID = id
		}
	}
	c.audit.Emit(ctx, event)
}
