package authgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Do routes one API call through the pipeline: attach the access token,
// dispatch, decode the response envelope, and on credential expiry refresh
// once and replay once. A non-nil out receives the envelope's data payload.
func (c *Client) Do(ctx context.Context, call Call, out any) error {
	return c.do(ctx, call, out)
}

func (c *Client) do(ctx context.Context, call Call, out any) error {
	if _, ok := requestIDFromContext(ctx); !ok {
		ctx = WithRequestID(ctx, newRequestID())
	}

	start := time.Now()
	err := c.dispatch(ctx, call, out, false)
	c.metrics.Observe(MetricRequestLatency, time.Since(start))
	return err
}

// dispatch builds and executes one HTTP attempt. The request is rebuilt from
// the Call on replay so the body and the attached token are always current.
func (c *Client) dispatch(ctx context.Context, call Call, out any, retried bool) error {
	token := c.sessions.AccessToken()

	req, err := c.buildRequest(ctx, call, token)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Inc(MetricTransportError)
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.config.API.MaxBodyBytes))
		return c.handleUnauthorized(ctx, call, out, retried, token)

	case resp.StatusCode == http.StatusForbidden:
		msg := c.serverMessage(resp)
		c.metrics.Inc(MetricForbidden)
		c.emitAudit(ctx, AuditEvent{
			EventType: AuditRequestForbidden,
			UserID:    c.auditUserID(),
			Path:      call.Path,
			Error:     msg,
		})
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrForbidden, msg)
		}
		return ErrForbidden

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.metrics.Inc(MetricTransportError)
		return &TransportError{StatusCode: resp.StatusCode, Message: c.serverMessage(resp)}
	}

	return c.decodeEnvelope(resp, out)
}

// handleUnauthorized is the expiry path. The refresh endpoint itself and
// already-replayed requests never trigger another refresh; everything else
// gets exactly one refresh-and-replay.
func (c *Client) handleUnauthorized(ctx context.Context, call Call, out any, retried bool, staleToken string) error {
	if call.Path == c.config.Endpoints.Refresh {
		c.metrics.Inc(MetricRefreshFailure)
		c.terminateSession(ctx, "refresh endpoint rejected credential")
		return ErrRefreshFailed
	}

	if retried {
		c.metrics.Inc(MetricUnauthorized)
		c.terminateSession(ctx, "credential rejected after refresh")
		return ErrUnauthorized
	}

	if _, err := c.ValidCredential(ctx, staleToken); err != nil {
		return err
	}

	c.metrics.Inc(MetricRequestReplayed)
	c.emitAudit(ctx, AuditEvent{
		EventType: AuditRequestReplayed,
		UserID:    c.auditUserID(),
		Path:      call.Path,
		Success:   true,
	})
	return c.dispatch(ctx, call, out, true)
}

func (c *Client) buildRequest(ctx context.Context, call Call, token string) (*http.Request, error) {
	var body io.Reader
	if call.Body != nil {
		encoded, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("authgate: encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	target := c.config.API.BaseURL + call.Path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("authgate: build request: %w", err)
	}

	for key, values := range call.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.config.API.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.API.UserAgent)
	}
	if id, ok := requestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", id)
	}
	return req, nil
}

// decodeEnvelope reads the uniform response body. Code 0 unmarshals the data
// payload into out; any other code is a business failure and never touches
// session state.
func (c *Client) decodeEnvelope(resp *http.Response, out any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.config.API.MaxBodyBytes))
	if err != nil {
		c.metrics.Inc(MetricTransportError)
		return &TransportError{StatusCode: resp.StatusCode, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.metrics.Inc(MetricTransportError)
		return &TransportError{StatusCode: resp.StatusCode, Message: "undecodable response body", Err: err}
	}

	if env.Code != 0 {
		c.metrics.Inc(MetricBusinessError)
		return &BusinessError{Code: env.Code, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		c.metrics.Inc(MetricTransportError)
		return &TransportError{StatusCode: resp.StatusCode, Message: "undecodable data payload", Err: err}
	}
	return nil
}

// serverMessage extracts the envelope message from an error response,
// falling back to the HTTP status text.
func (c *Client) serverMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.config.API.MaxBodyBytes))
	if err == nil && len(raw) > 0 {
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			return env.Message
		}
	}
	return http.StatusText(resp.StatusCode)
}
