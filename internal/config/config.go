package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreSQL    = "sql"
	StoreRemote = "remote"
	StoreMongo  = "mongo"
)

// Config holds all configuration for the service
type Config struct {
	AppVersion string

	// Server
	Port         string
	GinMode      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	Debug        bool

	// Local database (operators, board keys, and trips for the sql backend)
	DatabaseURL string
	DataPath    string

	// Trip store
	StoreBackend  string
	RemoteBaseURL string
	RemoteToken   string
	MongoURI      string
	MongoDB       string

	// Manifest
	RefreshInterval   time.Duration
	DefaultMaximumPOB int
	VisibleWeeks      int

	// Auth
	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string
}

// Load reads .env (if present) and the environment
func Load() *Config {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	return &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "8000"),
		GinMode:      getEnv("GIN_MODE", ""),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 30),
		CORSOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		Debug:        getEnv("LOG_LEVEL", "info") == "debug",

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DataPath:    getEnv("DATA_PATH", "manifest.db"),

		StoreBackend:  getEnv("STORE_BACKEND", StoreSQL),
		RemoteBaseURL: getEnv("REMOTE_BASE_URL", ""),
		RemoteToken:   getEnv("REMOTE_TOKEN", ""),
		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "manifest"),

		RefreshInterval:   getEnvAsDuration("REFRESH_INTERVAL_SECONDS", 600),
		DefaultMaximumPOB: getEnvAsInt("DEFAULT_MAXIMUM_POB", 200),
		VisibleWeeks:      getEnvAsInt("VISIBLE_WEEKS", 10),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		APIMasterSecret: getEnv("API_MASTER_SECRET", ""),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),
	}
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration reads a number of seconds
func getEnvAsDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
