package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting list values
	"time"    // For cache TTL

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBDriver   string // Database driver: mysql or sqlite
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	SQLitePath string // Database file when DBDriver is sqlite
	RedisAddr  string // Redis server address, empty disables caching
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	WalletAddress  string        // Receiving TON wallet for top-ups
	BotToken       string        // Telegram bot token, empty disables the bot
	WebAppURL      string        // URL opened by the bot's WebApp button
	ObserverSecret string        // HMAC secret for the payment observer token, empty leaves confirm open
	MemoRetries    int           // Memo generation attempts per payment
	HistoryLimit   int           // Default number of operations returned
	CacheTTL       time.Duration // Redis cache TTL
	CORSOrigins    []string      // Allowed CORS origins
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),      // Application port
		DBDriver:   getEnv("DB_DRIVER", "mysql"),    // Database driver
		DBUser:     os.Getenv("DB_USER"),            // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),        // Database password
		DBHost:     os.Getenv("DB_HOST"),            // Database host
		DBPort:     os.Getenv("DB_PORT"),            // Database port
		DBName:     os.Getenv("DB_NAME"),            // Database name
		SQLitePath: getEnv("SQLITE_PATH", "bot.db"), // SQLite file
		RedisAddr:  os.Getenv("REDIS_ADDR"),         // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),         // Redis password
		RedisDB:    getEnvAsInt("REDIS_DB", 0),      // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true",  // Is production environment

		WalletAddress:  os.Getenv("TON_WALLET"),
		BotToken:       os.Getenv("BOT_TOKEN"),
		WebAppURL:      os.Getenv("WEB_APP_URL"),
		ObserverSecret: os.Getenv("OBSERVER_SECRET"),
		MemoRetries:    getEnvAsInt("MEMO_RETRIES", 5),
		HistoryLimit:   getEnvAsInt("HISTORY_LIMIT", 100),
		CacheTTL:       time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
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
