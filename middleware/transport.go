package middleware

import (
	"net/http"
	"strings"

	authgate "github.com/veylan/authgate"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Pipeline wraps base with the client's credential handling: each request
// carries the current access token, and a 401 response triggers one
// coordinated refresh followed by one replay. Requests whose body cannot be
// rebuilt (streaming bodies without GetBody) are never replayed. A nil base
// uses http.DefaultTransport.
func Pipeline(client *authgate.Client, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		token := client.AccessToken()

		attempt := req.Clone(req.Context())
		if token != "" {
			attempt.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := base.RoundTrip(attempt)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return resp, nil
		}
		if isRefreshPath(client, req.URL.Path) {
			return resp, nil
		}
		if req.Body != nil && req.GetBody == nil {
			return resp, nil
		}

		cred, refreshErr := client.ValidCredential(req.Context(), token)
		if refreshErr != nil {
			return resp, nil
		}
		resp.Body.Close()

		replay := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			replay.Body = body
		}
		replay.Header.Set("Authorization", "Bearer "+cred.AccessToken)
		return base.RoundTrip(replay)
	})
}

func isRefreshPath(client *authgate.Client, path string) bool {
	refresh := client.RefreshPath()
	return refresh != "" && strings.HasSuffix(path, refresh)
}
