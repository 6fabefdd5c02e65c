package config

import (
	"os"      // For environment variables
	"strconv" // For string to number conversion

	"github.com/joho/godotenv" // For loading .env files
)

// MealCost is the amount charged for every marked meal
const MealCost = 30.0

// Config holds the application configuration
type Config struct {
	AppPort        string  // Application port
	DBDriver       string  // Database driver: mysql or sqlite
	DBUser         string  // Database user
	DBPassword     string  // Database password
	DBHost         string  // Database host
	DBPort         string  // Database port
	DBName         string  // Database name
	SQLitePath     string  // SQLite file used when DBDriver is sqlite
	RedisAddr      string  // Redis server address, empty disables Redis
	RedisPass      string  // Redis password
	RedisDB        int     // Redis database number
	SessionSecret  string  // Key used to sign session cookies
	SessionMaxAge  int     // Session lifetime in seconds
	MealCost       float64 // Per-meal cost
	CurrencySymbol string  // Prefix for money on pages and in CSV
	BcryptCost     int     // Work factor for password hashes
	AdminUsername  string  // Seeded admin username
	AdminPassword  string  // Seeded admin password
	IsProd         bool    // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:        getEnv("APP_PORT", "8080"),
		DBDriver:       getEnv("DB_DRIVER", "mysql"),
		DBUser:         getEnv("DB_USER", "root"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBName:         getEnv("DB_NAME", "mess"),
		SQLitePath:     getEnv("SQLITE_PATH", "mess.db"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPass:      os.Getenv("REDIS_PASS"),
		RedisDB:        getInt("REDIS_DB", 0),
		SessionSecret:  getEnv("SESSION_SECRET", "change-me-session-secret"),
		SessionMaxAge:  getInt("SESSION_MAX_AGE", 86400),
		MealCost:       getFloat("MEAL_COST", MealCost),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₹"),
		BcryptCost:     getInt("BCRYPT_COST", 10),
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "admin"),
		IsProd:         os.Getenv("IS_PROD") == "true",
	}
}

// DSN returns the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
