package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisAuthDB    int    `mapstructure:"REDIS_AUTH_DB"`
	RedisContextDB int    `mapstructure:"REDIS_CONTEXT_DB"`

	// Gemini API key for intent extraction and response generation.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`

	// Dialogue context lifetime in minutes.
	ContextTTLMinutes int `mapstructure:"CONTEXT_TTL_MINUTES"`

	// Business rules. The three sizing constants are independent knobs,
	// not derived from one another.
	WorkingHoursStart         int `mapstructure:"WORKING_HOURS_START"`
	WorkingHoursEnd           int `mapstructure:"WORKING_HOURS_END"`
	SingleUserCapacityLimit   int `mapstructure:"SINGLE_USER_CAPACITY_LIMIT"`
	GoodFitCapacityMultiplier int `mapstructure:"GOOD_FIT_CAPACITY_MULTIPLIER"`
	GoodFitMinCapacity        int `mapstructure:"GOOD_FIT_MIN_CAPACITY"`
	CoherenceMultiplier       int `mapstructure:"COHERENCE_MULTIPLIER"`
	CoherenceMinCapacity      int `mapstructure:"COHERENCE_MIN_CAPACITY"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_CONTEXT_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("CONTEXT_TTL_MINUTES", 30)
	viper.SetDefault("WORKING_HOURS_START", 8)
	viper.SetDefault("WORKING_HOURS_END", 19)
	viper.SetDefault("SINGLE_USER_CAPACITY_LIMIT", 6)
	viper.SetDefault("GOOD_FIT_CAPACITY_MULTIPLIER", 4)
	viper.SetDefault("GOOD_FIT_MIN_CAPACITY", 10)
	viper.SetDefault("COHERENCE_MULTIPLIER", 3)
	viper.SetDefault("COHERENCE_MIN_CAPACITY", 20)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
