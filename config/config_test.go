package config

import (
	"flag"
	"testing"
)

func TestLayering(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"SIDX_DEGREE":     "4",
		"SIDX_STORE":      "pebble",
		"SIDX_STORE_PATH": "/var/lib/sidx",
		"SIDX_LOG_LEVEL":  "info",
	}
	if err := cfg.ApplyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	fs := flag.NewFlagSet("sidx", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse([]string{"-degree", "8", "-log-format", "json"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Degree != 8 {
		t.Errorf("Degree = %d, want flag value 8", cfg.Degree)
	}
	if cfg.Store.Kind != StorePebble || cfg.Store.Path != "/var/lib/sidx" {
		t.Errorf("Store = %+v, want env values", cfg.Store)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Input != "input.txt" {
		t.Errorf("Input = %q, want default", cfg.Input)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestApplyEnvRejectsBadDegree(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "SIDX_DEGREE" {
			return "three", true
		}
		return "", false
	})
	if err == nil {
		t.Fatal("ApplyEnv accepted a non-numeric degree")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"degree", func(c *Config) { c.Degree = 1 }},
		{"store kind", func(c *Config) { c.Store.Kind = "bolt" }},
		{"store path", func(c *Config) { c.Store.Path = "" }},
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"seed", func(c *Config) { c.Seed = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
		})
	}
	if cfg := Default(); cfg.Validate() != nil {
		t.Fatal("default config is invalid")
	}
}
