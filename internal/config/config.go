package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingSessionSecret = errors.New("SESSION_SECRET must be set in production")

// Config holds application configuration
type Config struct {
	Env      string
	Debug    bool
	LogLevel string

	ServerPort      string
	StaticFilesPath string
	TemplatesPath   string

	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	// ContentSource selects where stories come from: "json" or "database"
	ContentSource string
	StoriesPath   string

	// DialogueSource selects the dialogue text backend: "file", "http" or "s3"
	DialogueSource  string
	DialogueBase    string
	DialogueBucket  string
	DialogueTimeout time.Duration
	AWSRegion       string

	SessionSecret   string
	SessionDuration time.Duration

	Speakers             []string
	CelebrationThreshold int
	CelebrationDuration  time.Duration
}

// Load reads configuration from .env, an optional config file and environment variables
func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("app_env", "local")
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("port", "8080")
	v.SetDefault("static_path", "./static")
	v.SetDefault("templates_path", "./internal/templates")
	v.SetDefault("db_type", "sqlite")
	v.SetDefault("db_path", "./storyquiz.db")
	v.SetDefault("database_url", "")
	v.SetDefault("migrations_path", "./migrations")
	v.SetDefault("content_source", "json")
	v.SetDefault("stories_path", "./data/stories.json")
	v.SetDefault("dialogue_source", "file")
	v.SetDefault("dialogue_base", "./static")
	v.SetDefault("dialogue_bucket", "")
	v.SetDefault("dialogue_timeout", "10s")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("session_secret", "")
	v.SetDefault("session_duration", "24h")
	v.SetDefault("speakers", "Ori,Ariel")
	v.SetDefault("celebration_threshold", 90)
	v.SetDefault("celebration_duration", "5s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	cfg := &Config{
		Env:                  v.GetString("app_env"),
		Debug:                v.GetBool("debug"),
		LogLevel:             v.GetString("log_level"),
		ServerPort:           v.GetString("port"),
		StaticFilesPath:      v.GetString("static_path"),
		TemplatesPath:        v.GetString("templates_path"),
		DatabaseType:         v.GetString("db_type"),
		DatabasePath:         v.GetString("db_path"),
		DatabaseURL:          v.GetString("database_url"),
		MigrationsPath:       v.GetString("migrations_path"),
		ContentSource:        v.GetString("content_source"),
		StoriesPath:          v.GetString("stories_path"),
		DialogueSource:       v.GetString("dialogue_source"),
		DialogueBase:         v.GetString("dialogue_base"),
		DialogueBucket:       v.GetString("dialogue_bucket"),
		DialogueTimeout:      v.GetDuration("dialogue_timeout"),
		AWSRegion:            v.GetString("aws_region"),
		SessionSecret:        v.GetString("session_secret"),
		SessionDuration:      v.GetDuration("session_duration"),
		Speakers:             splitList(v.GetString("speakers")),
		CelebrationThreshold: v.GetInt("celebration_threshold"),
		CelebrationDuration:  v.GetDuration("celebration_duration"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that enumerated settings hold known values
func (c *Config) Validate() error {
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "postgres", "postgresql", "mysql", "":
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	switch c.ContentSource {
	case "json", "database":
	default:
		return fmt.Errorf("unsupported content source: %s", c.ContentSource)
	}

	switch c.DialogueSource {
	case "file", "http":
	case "s3":
		if c.DialogueBucket == "" {
			return errors.New("DIALOGUE_BUCKET is required for the s3 dialogue source")
		}
	default:
		return fmt.Errorf("unsupported dialogue source: %s", c.DialogueSource)
	}

	if c.CelebrationThreshold < 1 || c.CelebrationThreshold > 100 {
		return fmt.Errorf("celebration threshold out of range: %d", c.CelebrationThreshold)
	}

	if c.SessionSecret == "" && c.IsProduction() {
		return ErrMissingSessionSecret
	}

	return nil
}

// splitList turns a comma-separated value into trimmed, non-empty items
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
