package authgate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
)

// refreshKey is the single-flight key: there is only ever one refresh
// concern per client.
const refreshKey = "refresh"

// ValidCredential returns a credential the server should accept, refreshing
// the pair at most once per expiry. staleToken is the access token the
// failing request carried; when the store already holds a different token
// some other caller refreshed first and no round-trip is needed. Concurrent
// callers coalesce onto one in-flight refresh and all receive its result.
// Refresh failure is terminal: the session is cleared and the navigator
// pointed at the login route before the error returns.
func (c *Client) ValidCredential(ctx context.Context, staleToken string) (Credential, error) {
	if cred, ok := c.sessions.Credential(); ok && cred.AccessToken != staleToken {
		return cred, nil
	}

	result, err, shared := c.refreshGroup.Do(refreshKey, func() (any, error) {
		// Re-check under the flight: a refresh that completed between the
		// fast path and joining the group already replaced the pair.
		if cred, ok := c.sessions.Credential(); ok && cred.AccessToken != staleToken {
			return cred, nil
		}
		fresh, err := c.refreshOnce(ctx)
		if err != nil {
			// Terminate inside the flight so coalesced waiters share one
			// clear and one redirect.
			c.terminateSession(ctx, err.Error())
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return Credential{}, err
	}
	if shared {
		c.metrics.Inc(MetricRefreshCoalesced)
	}
	return result.(Credential), nil
}

// refreshOnce performs the refresh round-trip on the bare HTTP client. Any
// failure is terminal for the attempt: the caller clears the session, and no
// retry is ever made here.
func (c *Client) refreshOnce(ctx context.Context) (Credential, error) {
	cred, ok := c.sessions.Credential()
	if !ok || cred.RefreshToken == "" {
		c.metrics.Inc(MetricRefreshFailure)
		return Credential{}, ErrNoRefreshToken
	}

	encoded, err := json.Marshal(refreshRequest{RefreshToken: cred.RefreshToken})
	if err != nil {
		c.metrics.Inc(MetricRefreshFailure)
		return Credential{}, ErrRefreshFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.API.BaseURL+c.config.Endpoints.Refresh, bytes.NewReader(encoded))
	if err != nil {
		c.metrics.Inc(MetricRefreshFailure)
		return Credential{}, ErrRefreshFailed
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.API.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.API.UserAgent)
	}

	resp, err := c.refreshHTTP.Do(req)
	if err != nil {
		c.metrics.Inc(MetricRefreshFailure)
		c.emitAudit(ctx, AuditEvent{
			EventType: AuditRefreshFailure,
			UserID:    c.auditUserID(),
			Error:     err.Error(),
		})
		return Credential{}, ErrRefreshFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.config.API.MaxBodyBytes))
		c.metrics.Inc(MetricRefreshFailure)
		c.emitAudit(ctx, AuditEvent{
			EventType: AuditRefreshFailure,
			UserID:    c.auditUserID(),
			Error:     http.StatusText(resp.StatusCode),
		})
		return Credential{}, ErrRefreshFailed
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.config.API.MaxBodyBytes))
	if err != nil {
		c.metrics.Inc(MetricRefreshFailure)
		return Credential{}, ErrRefreshFailed
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Code != 0 {
		c.metrics.Inc(MetricRefreshFailure)
		return Credential{}, ErrRefreshFailed
	}
	var payload refreshPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		c.metrics.Inc(MetricRefreshFailure)
		return Credential{}, ErrRefreshFailed
	}

	fresh := Credential{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}
	if !fresh.Complete() {
		c.metrics.Inc(MetricRefreshFailure)
		return Credential{}, ErrRefreshFailed
	}

	if err := c.sessions.SetCredential(ctx, fresh); err != nil {
		// The pair is complete, so only the durable write can fail; the live
		// session continues on the in-memory pair.
		log.Printf("authgate: credential persist failed: %v", err)
	}

	c.metrics.Inc(MetricRefreshSuccess)
	c.emitAudit(ctx, AuditEvent{
		EventType: AuditRefreshSuccess,
		UserID:    c.auditUserID(),
		Success:   true,
	})
	return fresh, nil
}
