package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

func load() {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	})
}

// Config returns the raw value of an environment key, loading .env on first use.
func Config(key string) string {
	load()
	return os.Getenv(key)
}

// Require fails with the names of every key that is unset or blank.
func Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(Config(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}
	return nil
}

func Get(key, fallback string) string {
	if v := strings.TrimSpace(Config(key)); v != "" {
		return v
	}
	return fallback
}

func Int(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(Config(key)))
	if err != nil {
		return fallback
	}
	return v
}

func Float(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(Config(key)), 64)
	if err != nil {
		return fallback
	}
	return v
}

func Bool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(Config(key)))
	if err != nil {
		return fallback
	}
	return v
}

// Duration accepts Go duration strings ("15m", "24h") as well as a plain day count ("7d").
func Duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(Config(key))
	if raw == "" {
		return fallback
	}
	if strings.HasSuffix(raw, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(raw, "d"))
		if err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func IsProduction() bool {
	return strings.EqualFold(Get("APP_ENV", "development"), "production")
}
