package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string
	BaseURL string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret         string
	JWTExpiryHours    int
	AdminPasswordHash string

	// CredentialPepper keys the HMAC lookup hash for vote credentials.
	// Rotating it invalidates every outstanding credential.
	CredentialPepper string

	AttendeeFeedSeconds int
	AdminFeedSeconds    int

	CheckinLimitPerMin int
	VoteLimitPerMin    int
	AuthLimitPerMin    int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "quorum"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret:         getEnv("JWT_SECRET", "change-me"),
		JWTExpiryHours:    getEnvAsInt("JWT_EXPIRY_HOURS", 8),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		CredentialPepper: getEnv("CREDENTIAL_PEPPER", "change-me-too"),

		AttendeeFeedSeconds: getEnvAsInt("ATTENDEE_FEED_SECONDS", 5),
		AdminFeedSeconds:    getEnvAsInt("ADMIN_FEED_SECONDS", 3),

		CheckinLimitPerMin: getEnvAsInt("CHECKIN_LIMIT_PER_MIN", 200),
		VoteLimitPerMin:    getEnvAsInt("VOTE_LIMIT_PER_MIN", 200),
		AuthLimitPerMin:    getEnvAsInt("AUTH_LIMIT_PER_MIN", 5),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
