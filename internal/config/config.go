package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/neexbeast/vacation-planner/internal/vacation"
)

// Config is the process configuration, read once at startup.
type Config struct {
	DatabaseURL        string
	RedisURL           string
	Port               string
	LogLevel           slog.Level
	RateLimitPerMinute int

	Upstream vacation.Keys
}

// Load reads the given .env files (".env" when none are named), then the
// environment. Variables already set in the environment win over file values.
// A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		DatabaseURL: required("DATABASE_URL"),
		RedisURL:    required("REDIS_URL"),
		Port:        getEnv("PORT", "3000"),
		Upstream: vacation.Keys{
			GeocodeKey:   required("GEOCODE_API_KEY"),
			WeatherKey:   required("WEATHER_API"),
			CurrencyKey:  required("CURRENCY_API_KEY"),
			GeocodeURL:   os.Getenv("GEOCODE_URL"),
			WeatherURL:   os.Getenv("WEATHER_URL"),
			CountriesURL: os.Getenv("COUNTRIES_URL"),
			RatesURL:     os.Getenv("RATES_URL"),
		},
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	limit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "60"))
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be a positive integer")
	}
	cfg.RateLimitPerMinute = limit

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("parsing LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
