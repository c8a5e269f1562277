package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Vault      VaultConfig      `mapstructure:"vault"`
	Inventory  InventoryConfig  `mapstructure:"inventory"`
	Playbooks  PlaybooksConfig  `mapstructure:"playbooks"`
	Lock       LockConfig       `mapstructure:"lock"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	Timezone        string        `mapstructure:"timezone"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// AuthConfig selects exactly one identity provider at startup.
// Provider is one of "keycloak", "okta" or "static".
type AuthConfig struct {
	Provider string         `mapstructure:"provider"`
	Keycloak KeycloakConfig `mapstructure:"keycloak"`
	Okta     OktaConfig     `mapstructure:"okta"`
	Static   StaticConfig   `mapstructure:"static"`
}

type KeycloakConfig struct {
	URL      string `mapstructure:"url"`
	Realm    string `mapstructure:"realm"`
	ClientID string `mapstructure:"client_id"`
}

type OktaConfig struct {
	Issuer   string `mapstructure:"issuer"`
	ClientID string `mapstructure:"client_id"`
}

type StaticConfig struct {
	Secret string `mapstructure:"secret"`
}

type VaultConfig struct {
	Addr      string        `mapstructure:"addr"`
	Mount     string        `mapstructure:"mount"`
	TokenFile string        `mapstructure:"token_file"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type InventoryConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PlaybooksConfig struct {
	Dir string `mapstructure:"dir"`
}

// LockConfig tunes the distributed lock. TTL must exceed the worst-case
// request duration; it is a tuning parameter, not a correctness guarantee.
type LockConfig struct {
	Wait time.Duration `mapstructure:"wait"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type EncryptionConfig struct {
	Key string `mapstructure:"key"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.timezone", "UTC")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 50)
	viper.SetDefault("database.conn_max_lifetime", time.Hour)
	viper.SetDefault("database.auto_migrate", true)

	viper.SetDefault("auth.provider", "keycloak")

	viper.SetDefault("vault.mount", "default")
	viper.SetDefault("vault.token_file", "/var/run/secrets/vault-token")
	viper.SetDefault("vault.timeout", 15*time.Second)

	viper.SetDefault("inventory.timeout", 30*time.Second)

	viper.SetDefault("playbooks.dir", "/app/playbooks")

	viper.SetDefault("lock.wait", 10*time.Second)
	viper.SetDefault("lock.ttl", 600*time.Second)

	viper.SetDefault("rate_limit.requests_per_minute", 10)
	viper.SetDefault("rate_limit.burst", 5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}
