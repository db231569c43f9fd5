package authgate

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// APIConfig controls the HTTP surface shared by every pipeline request.
type APIConfig struct {
	// BaseURL is the API origin, e.g. "https://portal.example.com/api".
	// Required.
	BaseURL string

	// RequestTimeout bounds each pipeline request, replay included as a
	// separate request. Defaults to 10s.
	RequestTimeout time.Duration

	// RefreshTimeout bounds the refresh round-trip. Defaults to 10s.
	RefreshTimeout time.Duration

	// MaxBodyBytes caps decoded response bodies. Defaults to 4 MiB.
	MaxBodyBytes int64

	// UserAgent is sent on every request when non-empty.
	UserAgent string
}

// EndpointConfig names the server paths the client depends on. Paths are
// relative to BaseURL.
type EndpointConfig struct {
	Login   string
	Refresh string
	Logout  string
	Profile string
}

// RouteConfig names the frontend routes used for redirects.
type RouteConfig struct {
	Login     string
	Home      string
	Forbidden string
}

// StorageConfig controls credential persistence.
type StorageConfig struct {
	// Namespace prefixes durable storage keys so multiple portals can share
	// one backend. Defaults to "authgate".
	Namespace string
}

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int

	// DropIfFull makes Emit non-blocking: events beyond the buffer are
	// counted and discarded instead of applying backpressure.
	DropIfFull bool
}

// MetricsConfig controls the in-process counters and latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Config is the full client configuration. Zero fields are filled with
// defaults by [Builder.Build]; only API.BaseURL is required.
type Config struct {
	API       APIConfig
	Endpoints EndpointConfig
	Routes    RouteConfig
	Storage   StorageConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			RequestTimeout: 10 * time.Second,
			RefreshTimeout: 10 * time.Second,
			MaxBodyBytes:   4 << 20,
		},
		Endpoints: EndpointConfig{
			Login:   "/auth/login",
			Refresh: "/auth/refresh",
			Logout:  "/auth/logout",
			Profile: "/auth/profile",
		},
		Routes: RouteConfig{
			Login:     "/login",
			Home:      "/dashboard",
			Forbidden: "/403",
		},
		Storage: StorageConfig{
			Namespace: "authgate",
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func (c *Config) applyDefaults() {
	def := defaultConfig()
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = def.API.RequestTimeout
	}
	if c.API.RefreshTimeout <= 0 {
		c.API.RefreshTimeout = def.API.RefreshTimeout
	}
	if c.API.MaxBodyBytes <= 0 {
		c.API.MaxBodyBytes = def.API.MaxBodyBytes
	}
	if c.Endpoints.Login == "" {
		c.Endpoints.Login = def.Endpoints.Login
	}
	if c.Endpoints.Refresh == "" {
		c.Endpoints.Refresh = def.Endpoints.Refresh
	}
	if c.Endpoints.Logout == "" {
		c.Endpoints.Logout = def.Endpoints.Logout
	}
	if c.Endpoints.Profile == "" {
		c.Endpoints.Profile = def.Endpoints.Profile
	}
	if c.Routes.Login == "" {
		c.Routes.Login = def.Routes.Login
	}
	if c.Routes.Home == "" {
		c.Routes.Home = def.Routes.Home
	}
	if c.Routes.Forbidden == "" {
		c.Routes.Forbidden = def.Routes.Forbidden
	}
	if c.Storage.Namespace == "" {
		c.Storage.Namespace = def.Storage.Namespace
	}
	if c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = def.Audit.BufferSize
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("authgate: API.BaseURL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("authgate: API.BaseURL must be an absolute URL")
	}
	for _, ep := range []struct {
		name, path string
	}{
		{"Endpoints.Login", c.Endpoints.Login},
		{"Endpoints.Refresh", c.Endpoints.Refresh},
		{"Endpoints.Logout", c.Endpoints.Logout},
		{"Endpoints.Profile", c.Endpoints.Profile},
	} {
		if !strings.HasPrefix(ep.path, "/") {
			return errors.New("authgate: " + ep.name + " must start with /")
		}
	}
	return nil
}
