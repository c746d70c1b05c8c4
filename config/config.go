package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	Port          string
	Env           string // "development" or "production"
	BaseURL       string // external base URL, used to build OAuth callback URLs
	SessionSecret string

	PublicDir string // root directory for static assets
	UploadDir string // subdirectory for uploaded outfit images: PublicDir/uploads
	ViewsDir  string // directory holding the HTML templates

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Upload storage backend: "local" writes under PublicDir/uploads,
	// "minio" pushes objects to a MinIO bucket.
	StorageBackend string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	// Email config (optional). When SMTPHost is empty, verification emails
	// are logged instead of sent.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
// The process exits when a mandatory secret is absent: running without a session
// secret would silently issue forgeable cookies.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		log.Fatal("Environment variable SESSION_SECRET is required but not set. Check your .env file.")
	}

	env := getEnv("APP_ENV", "development")
	if env == "production" && len(secret) < 32 {
		log.Println("Warning: SESSION_SECRET is short; use at least 32 random bytes in production.")
	}

	publicDir := getEnv("PUBLIC_DIR", "public")
	port := getEnv("PORT", "3000")

	return &Config{
		Port:          port,
		Env:           env,
		BaseURL:       getEnv("BASE_URL", "http://localhost:"+port),
		SessionSecret: secret,

		PublicDir: publicDir,
		UploadDir: filepath.Join(publicDir, "uploads"),
		ViewsDir:  getEnv("VIEWS_DIR", filepath.Join("web", "views")),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for passwords
		DBName:     getEnv("DB_NAME", "ratemyfit"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "ratemyfit"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", true),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),

		SMTPHost:     getEnv("EMAIL_HOST", ""),
		SMTPPort:     getEnvInt("EMAIL_PORT", 587),
		SMTPUser:     os.Getenv("EMAIL_USER"),
		SMTPPassword: os.Getenv("EMAIL_PASSWORD"),
		SMTPFrom:     getEnv("EMAIL_FROM", "no-reply@ratemyfit.app"),
	}
}

// IsProduction reports whether the app runs with production hardening
// (secure cookies, trust-proxy behavior).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
