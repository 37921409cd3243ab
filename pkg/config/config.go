package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/wadjakorntonsri/kind-letters/pkg/logger"
)

// DefaultAdminPassword is the demo password the admin page has always shipped with.
// Deployments are expected to override it.
const DefaultAdminPassword = "admin123"

type Config struct {
	Port              string
	DatabaseURL       string
	DatabaseAuthToken string
	AppEnv            string
	LogLevel          string
	LogFile           string

	AdminPassword      string
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	AllowedEmails      []string
	FrontendURL        string

	CORSOrigins         []string
	SubmitRatePerMinute int
	SubmitBurst         int
	TrustProxy          bool
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:              getEnv("PORT", "3000"),
		DatabaseURL:       getEnv("DATABASE_URL", getEnv("TURSO_DATABASE_URL", "file:local.db")),
		DatabaseAuthToken: getEnv("DATABASE_AUTH_TOKEN", getEnv("TURSO_AUTH_TOKEN", "")),
		AppEnv:            getEnv("APP_ENV", "local"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),

		AdminPassword:      getEnv("ADMIN_PASSWORD", DefaultAdminPassword),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:3000/auth/google/callback"),
		AllowedEmails:      getList("ALLOWED_EMAILS"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000/admin"),

		CORSOrigins:         getList("CORS_ORIGINS"),
		SubmitRatePerMinute: getInt("SUBMIT_RATE_PER_MINUTE", 5),
		SubmitBurst:         getInt("SUBMIT_BURST", 5),
		TrustProxy:          getBool("TRUST_PROXY", os.Getenv("VERCEL") != ""),
	}
}

// LoggerOptions maps the logging keys onto logger.Options fields.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:       c.LogLevel,
		Development: !c.IsProduction(),
		File:        c.LogFile,
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GoogleLoginEnabled reports whether moderators may sign in with Google.
func (c *Config) GoogleLoginEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
