package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ServerPort int
	GinMode    string
	LogLevel   string
	LogFormat  string

	MongoURI      string
	MongoDatabase string

	RabbitMQURL     string
	VerifyQueueName string
	ResultQueueName string
	WorkerCount     int

	NewsAPIKey     string
	NewsTimeout    time.Duration
	WeatherTimeout time.Duration
	SocialMockMode bool
}

// Load reads configuration from the environment, applying defaults where
// unset. A local .env file is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := envInt("PORT", 8081)
	if err != nil {
		return nil, err
	}
	workers, err := envInt("WORKER_COUNT", 10)
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := envDuration("WEATHER_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	newsTimeout, err := envDuration("NEWS_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort: port,
		GinMode:    envOrDefault("GIN_MODE", "debug"),
		LogLevel:   envOrDefault("LOG_LEVEL", "info"),
		LogFormat:  envOrDefault("LOG_FORMAT", "json"),

		MongoURI:      envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: envOrDefault("MONGO_DATABASE", "flood_management"),

		RabbitMQURL:     os.Getenv("RABBITMQ_URL"),
		VerifyQueueName: envOrDefault("VERIFY_QUEUE_NAME", "report.verify"),
		ResultQueueName: envOrDefault("RESULT_QUEUE_NAME", "report.verify.result"),
		WorkerCount:     workers,

		NewsAPIKey:     os.Getenv("NEWS_API_KEY"),
		NewsTimeout:    newsTimeout,
		WeatherTimeout: weatherTimeout,
		SocialMockMode: os.Getenv("SOCIAL_MOCK_MODE") == "true",
	}

	if cfg.MongoDatabase == "" {
		return nil, fmt.Errorf("MONGO_DATABASE is required")
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}
