package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Name         string        `mapstructure:"name"`
	Env          string        `mapstructure:"env"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	FrontendURL  string        `mapstructure:"frontend_url"`
}

type MongoConfig struct {
	URI               string        `mapstructure:"uri"`
	Database          string        `mapstructure:"database"`
	UserCollection    string        `mapstructure:"user_collection"`
	ChatCollection    string        `mapstructure:"chat_collection"`
	MessageCollection string        `mapstructure:"message_collection"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	Issuer    string        `mapstructure:"issuer"`
	AccessTTL time.Duration `mapstructure:"access_ttl"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type EventsConfig struct {
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	Breaker        BreakerConfig `mapstructure:"breaker"`
}

type WSConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	InboundRPS     int           `mapstructure:"inbound_rps"`
	PresenceTTL    time.Duration `mapstructure:"presence_ttl"`
}

type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// DefaultsConfig holds the fallback values used when a chat or user has no photo or bio.
type DefaultsConfig struct {
	Picture      string `mapstructure:"picture"`
	GroupPicture string `mapstructure:"group_picture"`
	GroupBio     string `mapstructure:"group_bio"`
}

type ConsulConfig struct {
	Addr        string `mapstructure:"addr"`
	ServiceName string `mapstructure:"service_name"`
	ServiceHost string `mapstructure:"service_host"`
}

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Events    EventsConfig    `mapstructure:"events"`
	WS        WSConfig        `mapstructure:"ws"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	Consul    ConsulConfig    `mapstructure:"consul"`
}

// Load reads the YAML file at path (optional) and applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindLegacyEnv(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "messaging-app")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 3000)
	v.SetDefault("app.read_timeout", 10*time.Second)
	v.SetDefault("app.write_timeout", 10*time.Second)
	v.SetDefault("app.idle_timeout", 60*time.Second)
	v.SetDefault("app.frontend_url", "*")

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "messagingApp")
	v.SetDefault("mongo.user_collection", "users")
	v.SetDefault("mongo.chat_collection", "groups")
	v.SetDefault("mongo.message_collection", "messages")
	v.SetDefault("mongo.connect_timeout", 15*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "messaging")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "messaging-app")
	v.SetDefault("jwt.access_ttl", time.Hour)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "messages.events")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "messages")

	v.SetDefault("events.publish_timeout", 5*time.Second)
	v.SetDefault("events.breaker.max_failures", 5)
	v.SetDefault("events.breaker.interval", time.Minute)
	v.SetDefault("events.breaker.timeout", 30*time.Second)

	v.SetDefault("ws.ping_interval", 25*time.Second)
	v.SetDefault("ws.max_message_size", 64*1024)
	v.SetDefault("ws.inbound_rps", 5)
	v.SetDefault("ws.presence_ttl", 60*time.Second)

	v.SetDefault("rate_limit.limit", 120)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("defaults.picture", "")
	v.SetDefault("defaults.group_picture", "")
	v.SetDefault("defaults.group_bio", "Welcome to the group!")

	v.SetDefault("consul.addr", "")
	v.SetDefault("consul.service_name", "messaging-app")
	v.SetDefault("consul.service_host", "localhost")
}

// bindLegacyEnv keeps the variable names used by earlier deployments working.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("app.env", "APP_ENV")
	_ = v.BindEnv("app.port", "APP_PORT", "PORT")
	_ = v.BindEnv("app.frontend_url", "FRONTEND_URL")
	_ = v.BindEnv("mongo.uri", "MONGO_URI", "MONGO_DB_CONNECTION_STRING")
	_ = v.BindEnv("mongo.database", "MONGO_DB")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET", "SECRET_KEY")
	_ = v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	_ = v.BindEnv("nats.url", "NATS_URL")
	_ = v.BindEnv("defaults.picture", "DEFAULT_PICTURE")
	_ = v.BindEnv("defaults.group_picture", "DEFAULT_GROUP_PICTURE")
	_ = v.BindEnv("consul.addr", "CONSUL_ADDR")
}

func validate(cfg *Config) error {
	if cfg.App.Port <= 0 {
		return errors.New("app.port is missing or invalid")
	}
	if cfg.Mongo.URI == "" {
		return errors.New("mongo.uri is empty (set MONGO_URI)")
	}
	if cfg.Mongo.Database == "" {
		return errors.New("mongo.database is missing")
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is empty (set JWT_SECRET)")
	}
	if cfg.JWT.AccessTTL <= 0 {
		return errors.New("jwt.access_ttl must be positive")
	}
	if cfg.RateLimit.Limit <= 0 || cfg.RateLimit.Window <= 0 {
		return errors.New("rate_limit.limit and rate_limit.window must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs with development logging.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
