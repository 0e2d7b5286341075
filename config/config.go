package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every environment value the service reads. The application
// must keep running when required values are absent: callers check Missing()
// and serve the configuration-error screen instead of crashing.
type Config struct {
	DatabaseURL    string
	SessionSecret  string
	GoogleClientID string

	RedisAddr     string
	RedisPassword string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string

	PublicBaseURL string
	Port          string
}

// required lists the keys without which the identity gateway and profile
// store cannot be initialized at all.
var required = []string{
	"DATABASE_URL",
	"SESSION_SECRET",
	"GOOGLE_CLIENT_ID",
}

// Load reads a local .env file when present, then the process environment.
// It never fails on missing values; use Missing to decide whether the app
// is configured.
func Load() Config {
	// A missing .env is normal in deployed environments.
	_ = godotenv.Load()

	return Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getenv("SMTP_PORT", "465"),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		PublicBaseURL:  getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		Port:           getenv("PORT", "8080"),
	}
}

// Missing returns the names of required configuration values that are unset.
func (c Config) Missing() []string {
	values := map[string]string{
		"DATABASE_URL":     c.DatabaseURL,
		"SESSION_SECRET":   c.SessionSecret,
		"GOOGLE_CLIENT_ID": c.GoogleClientID,
	}

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// Configured reports whether all required values are present.
func (c Config) Configured() bool {
	return len(c.Missing()) == 0
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
