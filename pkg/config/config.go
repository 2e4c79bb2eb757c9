package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"TickerWatch/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"required"`
	Log         logger.Config `yaml:"log"`
	LogShipping struct {
		Enabled   bool          `yaml:"enabled"`
		Topic     string        `yaml:"topic" default:"tickerwatch.logs"`
		Interval  time.Duration `yaml:"interval" default:"30s"`
		Threshold int           `yaml:"threshold" default:"100" validate:"gte=1"`
	} `yaml:"log_shipping"`
	Server struct {
		Enabled         bool          `yaml:"enabled"`
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		CORS            bool          `yaml:"cors" default:"true"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		HistoryCacheTTL time.Duration `yaml:"history_cache_ttl" default:"15s"`
	} `yaml:"server"`
	Monitor struct {
		Tickers          []string      `yaml:"tickers" validate:"min=1,dive,required"`
		BatchSize        int           `yaml:"batch_size" default:"50" validate:"gte=1"`
		CycleInterval    time.Duration `yaml:"cycle_interval" default:"300s" validate:"gt=0"`
		PublishDelay     time.Duration `yaml:"publish_delay" default:"5s" validate:"gte=0"`
		RateLimitBackoff time.Duration `yaml:"rate_limit_backoff" default:"60s" validate:"gt=0"`
		Timezone         string        `yaml:"timezone"`
	} `yaml:"monitor"`
	RSI struct {
		Oversold   float64 `yaml:"oversold" default:"30" validate:"gte=0,ltfield=Overbought"`
		Overbought float64 `yaml:"overbought" default:"70" validate:"lte=100"`
		Window     int     `yaml:"window" default:"14" validate:"gte=2"`
	} `yaml:"rsi"`
	MACD struct {
		Fast   int `yaml:"fast" default:"12" validate:"gte=1,ltfield=Slow"`
		Slow   int `yaml:"slow" default:"26" validate:"gte=1"`
		Signal int `yaml:"signal" default:"9" validate:"gte=1"`
	} `yaml:"macd"`
	Data struct {
		Provider string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo finnhub"`
		Period   string        `yaml:"period" default:"1mo" validate:"required"`
		Interval string        `yaml:"interval" default:"1h" validate:"required"`
		Timeout  time.Duration `yaml:"timeout" default:"20s"`
	} `yaml:"data"`
	Finnhub struct {
		APIKey  string  `yaml:"api_key"`
		BaseURL string  `yaml:"base_url" default:"https://finnhub.io/api/v1"`
		MaxRPS  float64 `yaml:"max_rps" default:"1" validate:"gt=0"`
	} `yaml:"finnhub"`
	Publisher struct {
		Type string `yaml:"type" default:"twitter" validate:"oneof=twitter kafka log"`
	} `yaml:"publisher"`
	Twitter struct {
		APIKey            string        `yaml:"api_key"`
		APISecret         string        `yaml:"api_secret"`
		AccessToken       string        `yaml:"access_token"`
		AccessTokenSecret string        `yaml:"access_token_secret"`
		BearerToken       string        `yaml:"bearer_token"`
		BaseURL           string        `yaml:"base_url" default:"https://api.twitter.com"`
		Timeout           time.Duration `yaml:"timeout" default:"15s"`
	} `yaml:"twitter"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=none gzip snappy lz4 zstd"`
		Topics       struct {
			Messages string `yaml:"messages" default:"tickerwatch.messages"`
			Events   string `yaml:"events" default:"tickerwatch.alerts"`
		} `yaml:"topics"`
		PublishEvents bool `yaml:"publish_events"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID     string        `yaml:"group_id" default:"tickerwatch-archive"`
			OffsetReset string        `yaml:"auto_offset_reset" default:"earliest" validate:"oneof=earliest latest"`
			Workers     int           `yaml:"workers" default:"1"`
			BufferSize  int           `yaml:"buffer_size" default:"64"`
			RetryMax    int           `yaml:"retry_max" default:"3"`
			BackoffMin  time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax  time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic    string        `yaml:"dlq_topic"`
			MinBytes    int           `yaml:"min_bytes" default:"1"`
			MaxBytes    int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Archive struct {
		Type            string `yaml:"type" default:"none" validate:"oneof=none clickhouse sqlite"`
		IngestFromKafka bool   `yaml:"ingest_from_kafka"`
		SQLitePath      string `yaml:"sqlite_path" default:"tickerwatch.db"`
	} `yaml:"archive"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"tickerwatch"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Lease struct {
		Enabled  bool          `yaml:"enabled"`
		Backend  string        `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		Key      string        `yaml:"key" default:"cycle"`
		Holder   string        `yaml:"holder"`
		TTL      time.Duration `yaml:"ttl"`
		Host     string        `yaml:"host" default:"localhost"`
		Port     int           `yaml:"port" default:"6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
	} `yaml:"lease"`
}

var validate = validator.New()

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.normalize()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

type twitterEnv struct {
	APIKey            string `envconfig:"API_KEY"`
	APISecret         string `envconfig:"API_SECRET"`
	AccessToken       string `envconfig:"ACCESS_TOKEN"`
	AccessTokenSecret string `envconfig:"ACCESS_TOKEN_SECRET"`
	BearerToken       string `envconfig:"BEARER_TOKEN"`
}

type finnhubEnv struct {
	APIKey string `envconfig:"API_KEY"`
}

type appEnv struct {
	Tickers      []string `envconfig:"TICKERS"`
	Publisher    string   `envconfig:"PUBLISHER"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	Archive      string   `envconfig:"ARCHIVE"`
}

// LoadWithEnv loads config from YAML and overrides it with environment variables.
// A .env file in the working directory is loaded first when present. Credentials
// in TWITTER_* and FINNHUB_API_KEY take precedence over the file.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.normalize()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	var tw twitterEnv
	if err := envconfig.Process("TWITTER", &tw); err != nil {
		return fmt.Errorf("twitter env: %w", err)
	}
	setIf(&c.Twitter.APIKey, tw.APIKey)
	setIf(&c.Twitter.APISecret, tw.APISecret)
	setIf(&c.Twitter.AccessToken, tw.AccessToken)
	setIf(&c.Twitter.AccessTokenSecret, tw.AccessTokenSecret)
	setIf(&c.Twitter.BearerToken, tw.BearerToken)

	var fh finnhubEnv
	if err := envconfig.Process("FINNHUB", &fh); err != nil {
		return fmt.Errorf("finnhub env: %w", err)
	}
	setIf(&c.Finnhub.APIKey, fh.APIKey)

	var app appEnv
	if err := envconfig.Process("TICKERWATCH", &app); err != nil {
		return fmt.Errorf("tickerwatch env: %w", err)
	}
	if len(app.Tickers) > 0 {
		c.Monitor.Tickers = app.Tickers
	}
	if len(app.KafkaBrokers) > 0 {
		c.Kafka.Brokers = app.KafkaBrokers
	}
	setIf(&c.Publisher.Type, app.Publisher)
	setIf(&c.Archive.Type, app.Archive)
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) normalize() {
	tickers := make([]string, 0, len(c.Monitor.Tickers))
	for _, t := range c.Monitor.Tickers {
		if t = strings.TrimSpace(t); t != "" {
			tickers = append(tickers, t)
		}
	}
	c.Monitor.Tickers = tickers
	if c.Lease.TTL <= 0 {
		c.Lease.TTL = 2 * c.Monitor.CycleInterval
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Publisher.Type == "twitter" {
		if c.Twitter.APIKey == "" || c.Twitter.APISecret == "" ||
			c.Twitter.AccessToken == "" || c.Twitter.AccessTokenSecret == "" {
			return fmt.Errorf("twitter credentials are required (set TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN, TWITTER_ACCESS_TOKEN_SECRET)")
		}
	}
	if c.Data.Provider == "finnhub" && c.Finnhub.APIKey == "" {
		return fmt.Errorf("finnhub.api_key is required")
	}
	if (c.Publisher.Type == "kafka" || c.Kafka.PublishEvents || c.Archive.IngestFromKafka || c.LogShipping.Enabled) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.Archive.IngestFromKafka {
		if c.Archive.Type == "none" {
			return fmt.Errorf("archive.ingest_from_kafka needs archive.type")
		}
		if !c.Kafka.PublishEvents {
			return fmt.Errorf("archive.ingest_from_kafka needs kafka.publish_events")
		}
	}
	// The holder renews every third of the ttl during a cycle and once before
	// the next one, so the lease must outlive the sleep plus that third.
	if c.Lease.Enabled && 2*c.Lease.TTL < 3*c.Monitor.CycleInterval {
		return fmt.Errorf("lease.ttl must be at least 1.5x monitor.cycle_interval")
	}
	if c.Monitor.Timezone != "" {
		if _, err := time.LoadLocation(c.Monitor.Timezone); err != nil {
			return fmt.Errorf("monitor.timezone: %w", err)
		}
	}
	return nil
}

// Location returns the zone used for alert timestamps.
func (c *Config) Location() *time.Location {
	if c.Monitor.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Monitor.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
