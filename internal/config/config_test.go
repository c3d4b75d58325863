package config

import (
	"errors"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:                  "local",
		DatabaseType:         "sqlite",
		ContentSource:        "json",
		DialogueSource:       "file",
		DialogueTimeout:      10 * time.Second,
		CelebrationThreshold: 90,
		CelebrationDuration:  5 * time.Second,
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SPEAKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.CelebrationThreshold != 90 {
		t.Errorf("CelebrationThreshold = %d, want 90", cfg.CelebrationThreshold)
	}
	if cfg.CelebrationDuration != 5*time.Second {
		t.Errorf("CelebrationDuration = %v, want 5s", cfg.CelebrationDuration)
	}
	if len(cfg.Speakers) != 2 || cfg.Speakers[0] != "Ori" || cfg.Speakers[1] != "Ariel" {
		t.Errorf("Speakers = %v, want [Ori Ariel]", cfg.Speakers)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SPEAKERS", "Ana, Ben ,")
	t.Setenv("DIALOGUE_SOURCE", "http")
	t.Setenv("DIALOGUE_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.DialogueSource != "http" {
		t.Errorf("DialogueSource = %q, want http", cfg.DialogueSource)
	}
	if cfg.DialogueTimeout != 3*time.Second {
		t.Errorf("DialogueTimeout = %v, want 3s", cfg.DialogueTimeout)
	}
	if len(cfg.Speakers) != 2 || cfg.Speakers[0] != "Ana" || cfg.Speakers[1] != "Ben" {
		t.Errorf("Speakers = %v, want [Ana Ben]", cfg.Speakers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown database", mutate: func(c *Config) { c.DatabaseType = "oracle" }, wantErr: true},
		{name: "unknown content source", mutate: func(c *Config) { c.ContentSource = "yaml" }, wantErr: true},
		{name: "unknown dialogue source", mutate: func(c *Config) { c.DialogueSource = "ftp" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.DialogueSource = "s3" }, wantErr: true},
		{name: "s3 with bucket", mutate: func(c *Config) { c.DialogueSource = "s3"; c.DialogueBucket = "stories" }},
		{name: "threshold above 100", mutate: func(c *Config) { c.CelebrationThreshold = 101 }, wantErr: true},
		{name: "threshold zero", mutate: func(c *Config) { c.CelebrationThreshold = 0 }, wantErr: true},
		{name: "threshold one", mutate: func(c *Config) { c.CelebrationThreshold = 1 }},
		{name: "production without secret", mutate: func(c *Config) { c.Env = "production" }, wantErr: true},
		{name: "production with secret", mutate: func(c *Config) { c.Env = "production"; c.SessionSecret = "s3cret" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProductionSecretSentinel(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "production"

	if err := cfg.Validate(); !errors.Is(err, ErrMissingSessionSecret) {
		t.Errorf("Validate() error = %v, want ErrMissingSessionSecret", err)
	}
}
