package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port                 string
	Env                  string
	LogLevel             string
	CORSAllowOrigin      []string
	PortalName           string
	NotifyEmail          string
	SenderEmail          string
	DefaultName          string
	DefaultEmail         string
	SubmitDelay          time.Duration
	AlertTTL             time.Duration
	SessionTTL           time.Duration
	TimeZone             string
	UploadRateLimitRPS   float64
	UploadRateLimitBurst int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  normalizeEnv(getEnv("ENV", "dev")),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		PortalName:           getEnv("PORTAL_NAME", "MAT"),
		NotifyEmail:          getEnv("NOTIFY_EMAIL", "atozclientmail@gmail.com"),
		SenderEmail:          getEnv("SENDER_EMAIL", "noreply@matportal.com"),
		DefaultName:          getEnv("DEFAULT_NAME", "MAT"),
		DefaultEmail:         getEnv("DEFAULT_EMAIL", "atozclientmail@gmail.com"),
		SubmitDelay:          getDuration("SUBMIT_DELAY", 2*time.Second),
		AlertTTL:             getDuration("ALERT_TTL", 5*time.Second),
		SessionTTL:           getDuration("SESSION_TTL", 30*time.Minute),
		TimeZone:             getEnv("TIME_ZONE", "Local"),
		UploadRateLimitRPS:   getFloat("UPLOAD_RATE_LIMIT_RPS", 5),
		UploadRateLimitBurst: getInt("UPLOAD_RATE_LIMIT_BURST", 20),
	}
}

// Location resolves TimeZone, falling back to the process local zone.
func (c Config) Location() *time.Location {
	name := strings.TrimSpace(c.TimeZone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("config: unknown TIME_ZONE %q, using local time", name)
		return time.Local
	}
	return loc
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("config: invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return d
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
