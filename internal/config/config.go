package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port   int
	DBPath string
	APIKey string

	LogLevel string

	// External trackers
	GoogleCredentialsDir string
	GoogleTasksEnabled   bool
	TeamBoardURL         string
	TeamBoardToken       string
	SyncTimeout          time.Duration
}

// TrackerFile is the optional YAML file describing tracker endpoints and
// credentials. Values present in the file override environment defaults.
type TrackerFile struct {
	GoogleTasks struct {
		Enabled        bool   `yaml:"enabled"`
		CredentialsDir string `yaml:"credentials_dir"`
	} `yaml:"google_tasks"`
	TeamBoard struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
	} `yaml:"team_board"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                 envInt("PORT", 8430),
		DBPath:               envStr("TASKS_DB_PATH", "/data/tasks.db"),
		APIKey:               envStr("API_KEY", ""),
		LogLevel:             envStr("LOG_LEVEL", "info"),
		GoogleCredentialsDir: envStr("GOOGLE_CREDENTIALS_DIR", ""),
		GoogleTasksEnabled:   envBool("GOOGLE_TASKS_ENABLED", true),
		TeamBoardURL:         envStr("TEAM_BOARD_URL", ""),
		TeamBoardToken:       envStr("TEAM_BOARD_TOKEN", ""),
		SyncTimeout:          time.Duration(envInt("SYNC_TIMEOUT_SECONDS", 15)) * time.Second,
	}

	if path := os.Getenv("TRACKERS_FILE"); path != "" {
		if err := cfg.applyTrackerFile(path); err != nil {
			return nil, fmt.Errorf("load trackers file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyTrackerFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var tf TrackerFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	c.GoogleTasksEnabled = tf.GoogleTasks.Enabled
	if tf.GoogleTasks.CredentialsDir != "" {
		c.GoogleCredentialsDir = tf.GoogleTasks.CredentialsDir
	}
	if tf.TeamBoard.URL != "" {
		c.TeamBoardURL = tf.TeamBoard.URL
	}
	if tf.TeamBoard.Token != "" {
		c.TeamBoardToken = tf.TeamBoard.Token
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("TASKS_DB_PATH must not be empty")
	}
	if c.SyncTimeout <= 0 {
		return fmt.Errorf("SYNC_TIMEOUT_SECONDS must be positive, got %s", c.SyncTimeout)
	}
	if c.GoogleTasksEnabled && c.GoogleCredentialsDir == "" {
		return fmt.Errorf("GOOGLE_CREDENTIALS_DIR must be set when Google Tasks sync is enabled")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}
