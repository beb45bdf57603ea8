package config

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the full application configuration tree, loaded once at startup
// and passed to the components that need it. Services never read config from
// package globals.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	MySQL  MySQLConfig  `mapstructure:"mysql"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	Outbox OutboxConfig `mapstructure:"outbox"`
	Rules  Rules        `mapstructure:"rules"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	TransactionCreated string `mapstructure:"transaction_created"`
}

type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
}

type OutboxConfig struct {
	MaxRetryCount int `mapstructure:"max_retry_count"`
}

// Rules holds the business rules of the bank. The snapshot is read-only for
// the lifetime of the process.
type Rules struct {
	Transaction TransactionRules `mapstructure:"transaction"`
	Account     AccountRules     `mapstructure:"account"`
	AccountType AccountTypeRules `mapstructure:"account_type"`
	User        UserRules        `mapstructure:"user"`
}

// TransactionRules configures the per-kind value bounds. Values are decimal
// strings; an empty maximum means unbounded.
type TransactionRules struct {
	MinDepositValue  string `mapstructure:"min_deposit_value"`
	MaxDepositValue  string `mapstructure:"max_deposit_value"`
	MinWithdrawValue string `mapstructure:"min_withdraw_value"`
	MaxWithdrawValue string `mapstructure:"max_withdraw_value"`
	MinTransferValue string `mapstructure:"min_transfer_value"`
	MaxTransferValue string `mapstructure:"max_transfer_value"`
}

// Bounds returns the configured min/max for a transaction kind. bounded is
// false when no maximum is configured. ok is false for an unrecognized kind.
func (r TransactionRules) Bounds(kind string) (min, max decimal.Decimal, bounded, ok bool) {
	var minStr, maxStr string
	switch kind {
	case "deposit":
		minStr, maxStr = r.MinDepositValue, r.MaxDepositValue
	case "withdraw":
		minStr, maxStr = r.MinWithdrawValue, r.MaxWithdrawValue
	case "transfer":
		minStr, maxStr = r.MinTransferValue, r.MaxTransferValue
	default:
		return decimal.Zero, decimal.Zero, false, false
	}

	min = mustDecimal(minStr)
	if maxStr == "" {
		return min, decimal.Zero, false, true
	}
	return min, mustDecimal(maxStr), true, true
}

type AccountRules struct {
	NumberSize    int    `mapstructure:"number_size"`
	NumberPattern string `mapstructure:"number_pattern"`
}

type AccountTypeRules struct {
	MaxNameSize int    `mapstructure:"max_name_size"`
	NamePattern string `mapstructure:"name_pattern"`
}

type UserRules struct {
	MinPasswordSize  int    `mapstructure:"min_password_size"`
	MaxPasswordSize  int    `mapstructure:"max_password_size"`
	MinAge           int    `mapstructure:"min_age"`
	MaxAge           int    `mapstructure:"max_age"`
	UsernamePattern  string `mapstructure:"username_pattern"`
	FirstNamePattern string `mapstructure:"first_name_pattern"`
	LastNamePattern  string `mapstructure:"last_name_pattern"`
}

// LoadConfig reads the yaml config file at the given path and returns the
// parsed configuration. Missing business-rule keys fall back to defaults.
func LoadConfig(configPath string) *Config {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setRuleDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	if err := config.Rules.validate(); err != nil {
		log.Fatalf("invalid business rules: %v", err)
	}

	return config
}

func setRuleDefaults(v *viper.Viper) {
	v.SetDefault("jwt.expire_minutes", 5)
	v.SetDefault("outbox.max_retry_count", 5)

	v.SetDefault("rules.transaction.min_deposit_value", "0.01")
	v.SetDefault("rules.transaction.max_deposit_value", "")
	v.SetDefault("rules.transaction.min_withdraw_value", "0.01")
	v.SetDefault("rules.transaction.max_withdraw_value", "5000")
	v.SetDefault("rules.transaction.min_transfer_value", "0.01")
	v.SetDefault("rules.transaction.max_transfer_value", "10000")

	v.SetDefault("rules.account.number_size", 10)
	v.SetDefault("rules.account.number_pattern", `^\d+$`)

	v.SetDefault("rules.account_type.max_name_size", 25)
	v.SetDefault("rules.account_type.name_pattern", `^[A-Za-z]+$`)

	v.SetDefault("rules.user.min_password_size", 8)
	v.SetDefault("rules.user.max_password_size", 20)
	v.SetDefault("rules.user.min_age", 18)
	v.SetDefault("rules.user.max_age", 120)
	v.SetDefault("rules.user.username_pattern", `^[\w ]{2,20}$`)
	v.SetDefault("rules.user.first_name_pattern", `^[A-Za-z]{2,45}$`)
	v.SetDefault("rules.user.last_name_pattern", `^[A-Za-z ]{2,100}$`)
}

// validate rejects rule values that would otherwise only fail at request time.
func (r Rules) validate() error {
	for _, kind := range []string{"deposit", "withdraw", "transfer"} {
		min, max, bounded, _ := r.Transaction.Bounds(kind)
		if min.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%s minimum must be positive", kind)
		}
		if bounded && max.LessThan(min) {
			return fmt.Errorf("%s maximum is below the minimum", kind)
		}
	}
	if r.Account.NumberSize <= 0 {
		return fmt.Errorf("account number size must be positive")
	}
	return nil
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("invalid decimal in business rules: %q", s)
	}
	return d
}
