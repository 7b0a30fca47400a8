package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultSiteOrigin = "http://localhost:3000"

type IdentityConfig struct {
	Provider       string // "gotrue" or "local"
	SupabaseURL    string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string
	JWTIssuer      string
	JWTTTL         time.Duration
}

type AppConfig struct {
	HTTPAddr             string
	SiteOrigin           string
	RedisAddr            string
	RedisPass            string
	KafkaBrokers         []string
	AutoMigrate          bool
	Identity             IdentityConfig
	CompensationAttempts int
	CompensationBackoff  time.Duration
	CORSAllowedOrigins   []string
	LogLevel             string
	LogFormat            string
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		SiteOrigin:   ResolveSiteOrigin(os.Getenv),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:    getEnv("REDIS_PASS", ""),
		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", nil),
		AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", false),
		Identity: IdentityConfig{
			Provider:       strings.ToLower(getEnv("IDENTITY_PROVIDER", "gotrue")),
			SupabaseURL:    getEnv("SUPABASE_URL", os.Getenv("NEXT_PUBLIC_SUPABASE_URL")),
			AnonKey:        getEnv("SUPABASE_ANON_KEY", os.Getenv("NEXT_PUBLIC_SUPABASE_ANON_KEY")),
			ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			JWTSecret:      getEnv("JWT_SECRET", ""),
			JWTIssuer:      getEnv("JWT_ISSUER", "canadian-rental-platform"),
			JWTTTL:         getEnvAsDuration("JWT_TTL", time.Hour),
		},
		CompensationAttempts: getEnvAsInt("COMPENSATION_ATTEMPTS", 1),
		CompensationBackoff:  getEnvAsDuration("COMPENSATION_BACKOFF", 200*time.Millisecond),
		CORSAllowedOrigins:   getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
	}
}

// ResolveSiteOrigin picks the public origin used for confirmation redirects:
// an explicit site URL, then the deployment platform's URL, then localhost.
func ResolveSiteOrigin(lookup func(string) string) string {
	for _, key := range []string{"NEXT_PUBLIC_SITE_URL", "SITE_URL"} {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	if v := strings.TrimSpace(lookup("VERCEL_URL")); v != "" {
		if !strings.Contains(v, "://") {
			v = "https://" + v
		}
		return strings.TrimRight(v, "/")
	}
	return defaultSiteOrigin
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
