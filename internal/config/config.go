// Package config reads process configuration from the environment and sweep
// definitions from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/reviewcal/internal/spaced_repetition"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	DBDriver    string
	DBDSN       string

	// Live session
	Capacity    int
	Horizon     int
	PolicyKind  string // static or sm2
	Spacing     string // Comma separated day offsets, used by the static policy
	DayInterval time.Duration
	LessonSize  int
	MaxLateness int // Abandon overflow later than this many days; 0 always delays

	// Telegram
	TelegramToken string
	ChatIDs       []int64
}

// Load reads an optional .env file, then environment variables, applies
// defaults and validates the result. Variables already set in the
// environment win over the .env file.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit .env paths. Missing files are ignored.
func LoadFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Environment:   getEnv("REVIEWCAL_ENV", "development"),
		DBDriver:      getEnv("REVIEWCAL_DB_DRIVER", "sqlite3"),
		DBDSN:         getEnv("REVIEWCAL_DB_DSN", "data/reviewcal.db"),
		Capacity:      getEnvInt("REVIEWCAL_CAPACITY", 5),
		Horizon:       getEnvInt("REVIEWCAL_HORIZON", 80),
		PolicyKind:    getEnv("REVIEWCAL_POLICY", spaced_repetition.KindStatic),
		Spacing:       getEnv("REVIEWCAL_SPACING", "0,1,2,5,8,14"),
		DayInterval:   getEnvDuration("REVIEWCAL_DAY_INTERVAL", 24*time.Hour),
		LessonSize:    getEnvInt("REVIEWCAL_LESSON_SIZE", 2),
		MaxLateness:   getEnvInt("REVIEWCAL_MAX_LATENESS", 0),
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
	}

	ids, err := parseChatIDs(getEnv("REVIEWCAL_CHAT_IDS", ""))
	if err != nil {
		return nil, err
	}
	cfg.ChatIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot fix by itself.
func (c *Config) Validate() error {
	if c.DBDriver != "sqlite3" && c.DBDriver != "postgres" {
		return fmt.Errorf("unsupported database driver %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("REVIEWCAL_DB_DSN must not be empty")
	}
	if c.Capacity < 1 {
		return fmt.Errorf("REVIEWCAL_CAPACITY must be at least 1, got %d", c.Capacity)
	}
	if c.LessonSize < 1 {
		return fmt.Errorf("REVIEWCAL_LESSON_SIZE must be at least 1, got %d", c.LessonSize)
	}
	if c.MaxLateness < 0 {
		return fmt.Errorf("REVIEWCAL_MAX_LATENESS must not be negative, got %d", c.MaxLateness)
	}
	if c.DayInterval <= 0 {
		return fmt.Errorf("REVIEWCAL_DAY_INTERVAL must be positive, got %v", c.DayInterval)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("REVIEWCAL_POLICY/REVIEWCAL_SPACING: %w", err)
	}
	return nil
}

// Policy returns the configured spacing policy.
func (c *Config) Policy() (spaced_repetition.Policy, error) {
	if c.PolicyKind == spaced_repetition.KindSM2 {
		return spaced_repetition.Select(c.PolicyKind, nil)
	}
	static, err := spaced_repetition.ParseOffsets(c.Spacing)
	if err != nil {
		return nil, err
	}
	return spaced_repetition.Select(c.PolicyKind, static.Offsets())
}

func parseChatIDs(s string) ([]int64, error) {
	var ids []int64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("REVIEWCAL_CHAT_IDS: invalid chat id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return def
}
