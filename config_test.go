package authgate

import (
	"testing"
	"time"
)

func TestConfigDefaultsFillZeroFields(t *testing.T) {
	cfg := Config{API: APIConfig{BaseURL: "https://portal.example.com/api"}}
	cfg.applyDefaults()

	if cfg.API.RequestTimeout != 10*time.Second {
		t.Fatalf("request timeout = %v", cfg.API.RequestTimeout)
	}
	if cfg.API.RefreshTimeout != 10*time.Second {
		t.Fatalf("refresh timeout = %v", cfg.API.RefreshTimeout)
	}
	if cfg.Endpoints.Refresh != "/auth/refresh" {
		t.Fatalf("refresh endpoint = %q", cfg.Endpoints.Refresh)
	}
	if cfg.Routes.Login != "/login" || cfg.Routes.Home != "/dashboard" || cfg.Routes.Forbidden != "/403" {
		t.Fatalf("unexpected route defaults: %+v", cfg.Routes)
	}
	if cfg.Storage.Namespace != "authgate" {
		t.Fatalf("namespace = %q", cfg.Storage.Namespace)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaulted config must validate: %v", err)
	}
}

func TestConfigDefaultsKeepExplicitValues(t *testing.T) {
	cfg := Config{
		API:       APIConfig{BaseURL: "https://x.test", RequestTimeout: time.Second},
		Endpoints: EndpointConfig{Login: "/v2/session"},
	}
	cfg.applyDefaults()

	if cfg.API.RequestTimeout != time.Second {
		t.Fatalf("explicit timeout overwritten: %v", cfg.API.RequestTimeout)
	}
	if cfg.Endpoints.Login != "/v2/session" {
		t.Fatalf("explicit endpoint overwritten: %q", cfg.Endpoints.Login)
	}
}

func TestConfigValidateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"empty base url", Config{}},
		{"relative base url", Config{API: APIConfig{BaseURL: "portal.example.com"}}},
		{"endpoint without slash", func() Config {
			cfg := Config{API: APIConfig{BaseURL: "https://x.test"}}
			cfg.applyDefaults()
			cfg.Endpoints.Refresh = "auth/refresh"
			return cfg
		}()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
