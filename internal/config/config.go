package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	GRPC    GRPCConfig
	Worker  WorkerConfig
	Catalog CatalogConfig
	Geodata GeodataConfig
	View    ViewConfig
	Kafka   KafkaConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type GRPCConfig struct {
	Port int
}

type ServerConfig struct {
	Host            string
	Port            int
	RateLimitRPS    int
	ShutdownTimeout time.Duration
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

// CatalogConfig locates the earthquake catalog. Source is a path, a glob or
// an http(s) URL.
type CatalogConfig struct {
	Source  string
	Timeout time.Duration
}

type GeodataConfig struct {
	Enabled   bool
	WorldURL  string
	PlatesURL string
	Timeout   time.Duration
}

type ViewConfig struct {
	Width  int
	Height int
}

// KafkaConfig enables snapshot publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 20),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		GRPC: GRPCConfig{
			Port: getEnvInt("GRPC_PORT", 50051),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 4),
		},
		Catalog: CatalogConfig{
			Source:  getEnv("CATALOG_SOURCE", "./data/earthquakes-*.tsv"),
			Timeout: getEnvDuration("CATALOG_TIMEOUT", 30*time.Second),
		},
		Geodata: GeodataConfig{
			Enabled:   getEnvBool("GEODATA_ENABLED", true),
			WorldURL:  getEnv("WORLD_URL", "https://cdn.jsdelivr.net/npm/world-atlas@2/countries-110m.json"),
			PlatesURL: getEnv("PLATES_URL", "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"),
			Timeout:   getEnvDuration("GEODATA_TIMEOUT", 30*time.Second),
		},
		View: ViewConfig{
			Width:  getEnvInt("VIEW_WIDTH", 800),
			Height: getEnvInt("VIEW_HEIGHT", 500),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "quake-explorer.snapshots"),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/quake-explorer.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Catalog.Source == "" {
		return fmt.Errorf("catalog source is required")
	}
	if c.View.Width <= 0 || c.View.Height <= 0 {
		return fmt.Errorf("invalid view size: %dx%d", c.View.Width, c.View.Height)
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per second")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
