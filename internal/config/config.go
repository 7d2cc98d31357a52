package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "AUCTIONDESK_"

// Config represents the application configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server" envPrefix:"SERVER_"`
	Auction        AuctionConfig        `yaml:"auction" envPrefix:"AUCTION_"`
	Admin          AdminConfig          `yaml:"admin" envPrefix:"ADMIN_"`
	Database       DatabaseConfig       `yaml:"database" envPrefix:"DATABASE_"`
	Telemetry      TelemetryConfig      `yaml:"telemetry" envPrefix:"TELEMETRY_"`
	Discord        DiscordConfig        `yaml:"discord" envPrefix:"DISCORD_"`
	Kafka          KafkaConfig          `yaml:"kafka" envPrefix:"KAFKA_"`
	LeaderElection LeaderElectionConfig `yaml:"leader_election" envPrefix:"LEADER_ELECTION_"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" env:"PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// MaxLongPoll caps the wait parameter accepted by /check_update.
	MaxLongPoll time.Duration `yaml:"max_long_poll" env:"MAX_LONG_POLL"`
}

// AuctionConfig holds the catalog source and domain settings.
type AuctionConfig struct {
	PlayersFile string `yaml:"players_file" env:"PLAYERS_FILE"`
	HomeCountry string `yaml:"home_country" env:"HOME_COUNTRY"`
	StaticDir   string `yaml:"static_dir" env:"STATIC_DIR"`
}

// AdminConfig holds the credentials guarding the admin view and mutations.
// Both empty disables authentication.
type AdminConfig struct {
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
}

// Enabled reports whether admin credentials are configured.
func (a AdminConfig) Enabled() bool {
	return a.Username != "" || a.Password != ""
}

// DatabaseConfig holds journal store settings.
type DatabaseConfig struct {
	Driver      string `yaml:"driver" env:"DRIVER"` // "memory", "sqlx" or "ent"
	Host        string `yaml:"host" env:"HOST"`
	Port        int    `yaml:"port" env:"PORT"`
	User        string `yaml:"user" env:"USER"`
	Password    string `yaml:"password" env:"PASSWORD"`
	DBName      string `yaml:"dbname" env:"DBNAME"`
	SSLMode     string `yaml:"sslmode" env:"SSLMODE"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE"`
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" env:"SERVICE_NAME"`
	ServiceVersion string `yaml:"service_version" env:"SERVICE_VERSION"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	Insecure       bool   `yaml:"insecure" env:"INSECURE"`
}

// DiscordConfig holds settings for the Discord announcer.
type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Token     string `yaml:"token" env:"TOKEN"`
	GuildID   string `yaml:"guild_id" env:"GUILD_ID"`
	ChannelID string `yaml:"channel_id" env:"CHANNEL_ID"`
}

// KafkaConfig holds settings for publishing journal events to Kafka.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" env:"ENABLED"`
	Brokers []string `yaml:"brokers" env:"BROKERS" envSeparator:","`
	Topic   string   `yaml:"topic" env:"TOPIC"`
}

// LeaderElectionConfig holds Kubernetes leader election settings.
type LeaderElectionConfig struct {
	Enabled        bool          `yaml:"enabled" env:"ENABLED"`
	LeaseName      string        `yaml:"lease_name" env:"LEASE_NAME"`
	LeaseNamespace string        `yaml:"lease_namespace" env:"LEASE_NAMESPACE"`
	LeaseDuration  time.Duration `yaml:"lease_duration" env:"LEASE_DURATION"`
	RenewDeadline  time.Duration `yaml:"renew_deadline" env:"RENEW_DEADLINE"`
	RetryPeriod    time.Duration `yaml:"retry_period" env:"RETRY_PERIOD"`
	// Identity names this replica in the Lease. Empty means POD_NAME, then
	// the hostname.
	Identity       string        `yaml:"identity" env:"IDENTITY"`
}

// Default returns the configuration used when no file or overrides are given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			ShutdownTimeout: 15 * time.Second,
			MaxLongPoll:     30 * time.Second,
		},
		Auction: AuctionConfig{
			PlayersFile: "players.csv",
			HomeCountry: "India",
			StaticDir:   "static",
		},
		Database: DatabaseConfig{
			Driver:      "memory",
			Host:        "localhost",
			Port:        5432,
			SSLMode:     "disable",
			AutoMigrate: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "auctiondesk",
			ServiceVersion: "0.1.0",
		},
		Kafka: KafkaConfig{
			Topic: "auction.events",
		},
		LeaderElection: LeaderElectionConfig{
			Enabled:        false,
			LeaseName:      "auctiondesk-announcer",
			LeaseNamespace: "default",
			LeaseDuration:  15 * time.Second,
			RenewDeadline:  10 * time.Second,
			RetryPeriod:    2 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and AUCTIONDESK_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	var errs []error

	switch c.Database.Driver {
	case "memory", "sqlx", "ent":
		// valid
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q: must be \"memory\", \"sqlx\" or \"ent\"", c.Database.Driver))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}

	if c.Discord.Enabled {
		if c.Discord.Token == "" {
			errs = append(errs, errors.New("discord: token is required when enabled"))
		}
		if c.Discord.ChannelID == "" {
			errs = append(errs, errors.New("discord: channel_id is required when enabled"))
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka: at least one broker is required when enabled"))
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, errors.New("kafka: topic is required when enabled"))
		}
	}

	return errors.Join(errs...)
}
