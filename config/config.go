package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"reflection-garden/utils"
)

// Config is read once at startup and treated as immutable.
type Config struct {
	DatabaseURL  string
	GatewayToken string

	Port           string
	AllowedOrigins []string
	Location       *time.Location

	// SubscriberBuffer is the per-stream frame queue before drops start.
	SubscriberBuffer   int
	PromptRotationHour uint

	R2         utils.R2Config
	CDNBaseURL string
}

// Load reads the environment. Missing required variables are reported together.
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GatewayToken = os.Getenv("GATEWAY_TOKEN")
	if cfg.GatewayToken == "" {
		missing = append(missing, "GATEWAY_TOKEN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	tz := getEnvString("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	hour, err := getEnvInt("PROMPT_ROTATION_HOUR", 0)
	if err != nil {
		return nil, err
	}
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("PROMPT_ROTATION_HOUR must be 0-23, got %d", hour)
	}
	cfg.PromptRotationHour = uint(hour)

	cfg.Port = getEnvString("PORT", "5200")
	cfg.AllowedOrigins = splitList(getEnvString("ALLOWED_ORIGINS", "http://localhost:3000"))
	if cfg.SubscriberBuffer, err = getEnvInt("SUBSCRIBER_BUFFER", 32); err != nil {
		return nil, err
	}
	if cfg.SubscriberBuffer < 1 {
		cfg.SubscriberBuffer = 1
	}

	ttl, err := getEnvDuration("ASSET_URL_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.R2 = utils.R2Config{
		AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		Bucket:          os.Getenv("R2_BUCKET_NAME"),
		TTL:             ttl,
	}
	cfg.CDNBaseURL = os.Getenv("CDN_BASE_URL")

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer", key, v)
	}
	return i, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, v, err)
	}
	return d, nil
}
