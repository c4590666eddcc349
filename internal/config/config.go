package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingToken is returned by RequireToken when no bot credential is configured
var ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")

// Config represents the configuration for the bot
type Config struct {
	TelegramToken string

	// Verb source
	VerbsFile  string
	VerbsSheet string

	// Storage
	DBType      string
	DatabaseURL string

	Location *time.Location
	Schedule Schedule

	LogMode      string
	AdminUserIDs map[int64]bool
}

// Schedule holds wall-clock times of the daily slots
type Schedule struct {
	VerbAt        string // HH:MM
	Quiz1At       string // HH:MM
	Quiz2At       string // HH:MM
	TenseFromHour int
	TenseToHour   int
	// Spacing between triggers of the accelerated test flow
	TestStep time.Duration
}

// DefaultSchedule returns the default daily schedule
func DefaultSchedule() Schedule {
	return Schedule{
		VerbAt:        "09:00",
		Quiz1At:       "10:00",
		Quiz2At:       "11:00",
		TenseFromHour: 13,
		TenseToHour:   23,
		TestStep:      10 * time.Second,
	}
}

// TenseHours returns every hour of the tense drip in ascending order
func (s Schedule) TenseHours() []int {
	var hours []int
	for h := s.TenseFromHour; h <= s.TenseToHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	// .env is optional, the environment always wins
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(name, def string) string {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
		return def
	}

	def := DefaultSchedule()
	cfg := &Config{
		TelegramToken: strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN")),
		VerbsFile:     get("VERBS_FILE", "verbs.csv"),
		VerbsSheet:    get("VERBS_SHEET", ""),
		DBType:        strings.ToLower(get("DB_TYPE", "sqlite")),
		DatabaseURL:   get("DATABASE_URL", "data/verbbot.db"),
		LogMode:       get("LOG_MODE", "dev"),
		AdminUserIDs:  make(map[int64]bool),
		Schedule: Schedule{
			VerbAt:  get("VERB_AT", def.VerbAt),
			Quiz1At: get("QUIZ1_AT", def.Quiz1At),
			Quiz2At: get("QUIZ2_AT", def.Quiz2At),
		},
	}

	switch cfg.DBType {
	case "sqlite", "postgres", "pgx":
	default:
		return nil, fmt.Errorf("config: unsupported DB_TYPE %q", cfg.DBType)
	}

	loc, err := time.LoadLocation(get("TIMEZONE", "Europe/Moscow"))
	if err != nil {
		return nil, fmt.Errorf("config: TIMEZONE: %w", err)
	}
	cfg.Location = loc

	for name, v := range map[string]string{"VERB_AT": cfg.Schedule.VerbAt, "QUIZ1_AT": cfg.Schedule.Quiz1At, "QUIZ2_AT": cfg.Schedule.Quiz2At} {
		if _, err := time.Parse("15:04", v); err != nil {
			return nil, fmt.Errorf("config: %s must be HH:MM, got %q", name, v)
		}
	}

	if cfg.Schedule.TenseFromHour, err = hour(get("TENSE_FROM_HOUR", strconv.Itoa(def.TenseFromHour))); err != nil {
		return nil, fmt.Errorf("config: TENSE_FROM_HOUR: %w", err)
	}
	if cfg.Schedule.TenseToHour, err = hour(get("TENSE_TO_HOUR", strconv.Itoa(def.TenseToHour))); err != nil {
		return nil, fmt.Errorf("config: TENSE_TO_HOUR: %w", err)
	}
	if cfg.Schedule.TenseFromHour > cfg.Schedule.TenseToHour {
		return nil, fmt.Errorf("config: TENSE_FROM_HOUR %d is after TENSE_TO_HOUR %d",
			cfg.Schedule.TenseFromHour, cfg.Schedule.TenseToHour)
	}

	step, err := time.ParseDuration(get("TEST_STEP", def.TestStep.String()))
	if err != nil || step <= 0 {
		return nil, fmt.Errorf("config: TEST_STEP must be a positive duration, got %q", get("TEST_STEP", ""))
	}
	cfg.Schedule.TestStep = step

	if ids := getenv("ADMIN_USER_IDS"); ids != "" {
		for _, idStr := range strings.Split(ids, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("config: invalid admin user ID %q", idStr)
			}
			cfg.AdminUserIDs[id] = true
		}
	}

	return cfg, nil
}

// RequireToken fails when the bot credential is absent
func (c *Config) RequireToken() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	return nil
}

func hour(s string) (int, error) {
	h, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour %d out of range 0-23", h)
	}
	return h, nil
}
