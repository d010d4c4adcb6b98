package config

import (
	"testing"
	"time"
)

// TestLoadDefaults tests the defaults with a clean environment
func TestLoadDefaults(t *testing.T) {
	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Analysis.MaxProfileRows != 2000 {
		t.Errorf("MaxProfileRows = %d, expected 2000", config.Analysis.MaxProfileRows)
	}
	if config.Analysis.MaxComputeRows != 20000 {
		t.Errorf("MaxComputeRows = %d, expected 20000", config.Analysis.MaxComputeRows)
	}
	if config.Analysis.TemplateID != "general" {
		t.Errorf("TemplateID = %q, expected general", config.Analysis.TemplateID)
	}
	if config.Cache.Enabled {
		t.Error("Cache enabled by default")
	}
	if config.Cache.TTL != 15*time.Minute {
		t.Errorf("Cache TTL = %v, expected 15m", config.Cache.TTL)
	}
}

// TestLoadFromEnvironment tests env overrides
func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MAX_PROFILE_ROWS", "500")
	t.Setenv("TEMPLATE_ID", "govcon")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_TTL", "1h")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Analysis.MaxProfileRows != 500 {
		t.Errorf("MaxProfileRows = %d, expected 500", config.Analysis.MaxProfileRows)
	}
	if config.Analysis.TemplateID != "govcon" {
		t.Errorf("TemplateID = %q, expected govcon", config.Analysis.TemplateID)
	}
	if !config.Cache.Enabled || config.Cache.TTL != time.Hour {
		t.Errorf("Cache config = %+v", config.Cache)
	}
}

// TestLoadRejectsInvalid tests validation failures
func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative profile rows", "MAX_PROFILE_ROWS", "-1"},
		{"zero compute rows", "MAX_COMPUTE_ROWS", "0"},
		{"unknown template", "TEMPLATE_ID", "nope"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv(test.key, test.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%s", test.key, test.value)
			}
		})
	}
}

// TestMalformedEnvFallsBack tests that unparseable values keep defaults
func TestMalformedEnvFallsBack(t *testing.T) {
	t.Setenv("MAX_PROFILE_ROWS", "lots")
	t.Setenv("CACHE_ENABLED", "sure")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Analysis.MaxProfileRows != 2000 {
		t.Errorf("MaxProfileRows = %d, expected default", config.Analysis.MaxProfileRows)
	}
	if config.Cache.Enabled {
		t.Error("Malformed boolean enabled the cache")
	}
}
