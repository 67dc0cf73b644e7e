package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"minitasks/internal/auth"
)

const defaultJWTSecret = "change-me"

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string

	DBDriver    string
	DatabaseDSN string
	ResetDB     bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	CORSOrigins    []string
	TrustProxy     bool
	AuthRateLimit  int
	AuthRateWindow time.Duration

	LogLevel    string
	LogFormat   string
	SwaggerHost string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is read first if present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DatabaseDSN:    getEnv("DATABASE_DSN", "user:password@tcp(localhost:3306)/minitasks?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true"),
		ResetDB:        getEnvBool("RESET_DB", false),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisPass:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		JWTIssuer:      getEnv("JWT_ISSUER", "mini-tasks-app"),
		JWTAudience:    getEnv("JWT_AUDIENCE", "mini-tasks-users"),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),
		AuthRateLimit:  getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow: getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		SwaggerHost:    os.Getenv("SWAGGER_HOST"),
	}
}

// Token returns the token settings shared by issuance and verification.
func (c *Config) Token() auth.TokenConfig {
	return auth.TokenConfig{
		Secret:   c.JWTSecret,
		Issuer:   c.JWTIssuer,
		Audience: c.JWTAudience,
		Lifetime: auth.TokenLifetime,
	}
}

// InsecureSecret reports whether the JWT secret is still the built-in default.
func (c *Config) InsecureSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
