package config

import (
	"fmt"
	"strings"
	"time"

	"branch-order-api/models"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StripeConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	Currency  string        `mapstructure:"currency"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from an optional yaml file with BOA_* env
// overrides (e.g. BOA_STRIPE_SECRET_KEY). A missing file is fine — every
// key has a default.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.path", "branch_orders.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.currency", "usd")
	v.SetDefault("stripe.timeout", 15*time.Second)
	v.SetDefault("jwt.secret", "branch_order_super_secret_2024")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("BOA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// NewLogger builds the service logger from the configured level.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.Server.Mode == "debug" {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(cfg.Log.Level); err == nil {
		zcfg.Level = lvl
	}
	return zcfg.Build()
}

// InitDB opens the sqlite database and migrates every model, including
// the explicit order↔line join table.
func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate wires the join table and auto-migrates the schema. Split out
// so tests can run it against an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Order{}, "Lines", &models.OrderLineLink{}); err != nil {
		return fmt.Errorf("failed to set up order line link table: %w", err)
	}
	err := db.AutoMigrate(
		&models.User{},
		&models.Branch{},
		&models.Product{},
		&models.OrderLine{},
		&models.Order{},
		&models.OrderLineLink{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
