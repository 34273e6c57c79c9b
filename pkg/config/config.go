package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"PlayerCast/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"required"`
	Log         logger.Config `yaml:"log"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		// BatchRate is the sustained batch requests per second allowed per client.
		BatchRate  float64 `yaml:"batch_rate" default:"2" validate:"gt=0"`
		BatchBurst int     `yaml:"batch_burst" default:"4" validate:"gt=0"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Model struct {
		// Type selects the regression model: "linear" reads ArtifactPath,
		// "http" calls URL.
		Type         string        `yaml:"type" default:"linear" validate:"oneof=linear http"`
		ArtifactPath string        `yaml:"artifact_path" default:"config/model.yaml" validate:"required_if=Type linear"`
		URL          string        `yaml:"url" validate:"required_if=Type http"`
		Timeout      time.Duration `yaml:"timeout" default:"3s"`
		Retries      int           `yaml:"retries" default:"2" validate:"gte=0,lte=10"`
	} `yaml:"model"`
	Forecast struct {
		Horizon      int     `yaml:"horizon" default:"9" validate:"gte=1,lte=30"`
		LagLevels    []int   `yaml:"lag_levels" default:"[1,2]" validate:"min=1,dive,gte=1,lte=3"`
		GapThreshold float64 `yaml:"gap_threshold" default:"0.5" validate:"gt=0,lte=1"`
		Workers      int     `yaml:"workers" default:"8" validate:"gte=1,lte=128"`
	} `yaml:"forecast"`
	Store struct {
		Type    string `yaml:"type" default:"csv" validate:"oneof=csv clickhouse postgres"`
		CSVPath string `yaml:"csv_path" default:"data/players.csv"`
	} `yaml:"store"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"playercast"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"player_seasons"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Postgres struct {
		URL      string `yaml:"url"`
		MaxConns int32  `yaml:"max_conns" default:"10" validate:"gte=1"`
		Table    string `yaml:"table" default:"player_seasons"`
	} `yaml:"postgres"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers" validate:"required_if=Enabled true"`
		ForecastTopic string   `yaml:"forecast_topic" default:"player.forecasts"`
		RequestTopic  string   `yaml:"request_topic" default:"player.forecast.requests"`
		RequiredAcks  int      `yaml:"required_acks" default:"-1"`
		Compression   string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"playercast"`
			Workers    int           `yaml:"workers" default:"4" validate:"gte=1"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl" default:"1h"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

var validate = validator.New()

// Default returns a configuration populated from default tags only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv("MODEL_URL"); v != "" {
		c.Model.Type = "http"
		c.Model.URL = v
	}
	if v := os.Getenv("MODEL_ARTIFACT"); v != "" {
		c.Model.ArtifactPath = v
	}
	if v := os.Getenv("STORE"); v != "" {
		c.Store.Type = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Addr = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	switch c.Store.Type {
	case "csv":
		if c.Store.CSVPath == "" {
			return fmt.Errorf("store.csv_path is required for csv store")
		}
	case "postgres":
		if c.Postgres.URL == "" {
			return fmt.Errorf("postgres.url is required for postgres store")
		}
	}
	return nil
}
