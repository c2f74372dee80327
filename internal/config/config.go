// Package config defines the engine's top-level configuration and its
// validation rules.
package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration. Fields come from a TOML file and can be
// overridden by HYPERARB_* environment variables.
type Config struct {
	Engine      EngineConfig      `toml:"engine"`
	Strategies  []StrategyConfig  `toml:"strategies"`
	Chain       ChainConfig       `toml:"chain"`
	Hyperliquid HyperliquidConfig `toml:"hyperliquid"`
	Wallet      WalletConfig      `toml:"wallet"`
	Redis       RedisConfig       `toml:"redis"`
	Postgres    PostgresConfig    `toml:"postgres"`
	S3          S3Config          `toml:"s3"`
	Server      ServerConfig      `toml:"server"`
	Notify      NotifyConfig      `toml:"notify"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// EngineConfig tunes the event pipeline and the execution governor.
type EngineConfig struct {
	MaxConcurrentExecutions int `toml:"max_concurrent_executions"`
	CooldownSeconds         int `toml:"cooldown_seconds"`
	EventBusCapacity        int `toml:"event_bus_capacity"`
	ActionBusCapacity       int `toml:"action_bus_capacity"`
	DedupTTLSeconds         int `toml:"dedup_ttl_seconds"`
}

// StrategyConfig describes one pool/instrument pair to arbitrage. Declared
// as a [[strategies]] block in the TOML file.
type StrategyConfig struct {
	Name       string `toml:"name"`
	Enabled    bool   `toml:"enabled"`
	Pool       string `toml:"pool"`
	TokenA     string `toml:"token_a"`
	TokenB     string `toml:"token_b"`
	DecimalsA  int    `toml:"decimals_a"`
	DecimalsB  int    `toml:"decimals_b"`
	FeeTierPpm int    `toml:"fee_tier_ppm"`
	Instrument string `toml:"instrument"`

	OrderSizeUsd   float64 `toml:"order_size_usd"`
	MakerFeeBps    float64 `toml:"maker_fee_bps"`
	GasFeeUsd      float64 `toml:"gas_fee_usd"`
	MinProfitBps   float64 `toml:"min_profit_bps"`
	CexSlippageBps float64 `toml:"cex_slippage_bps"`
	DexSlippageBps float64 `toml:"dex_slippage_bps"`
}

// ChainConfig holds the EVM chain endpoints and the swap router.
type ChainConfig struct {
	RPCWSURL      string `toml:"rpc_ws_url"`
	ChainID       int64  `toml:"chain_id"`
	RouterAddress string `toml:"router_address"`
}

// HyperliquidConfig holds the exchange endpoints.
type HyperliquidConfig struct {
	APIURL string `toml:"api_url"`
	WSURL  string `toml:"ws_url"`
	// SignatureSource distinguishes mainnet ("a") from testnet ("b").
	SignatureSource string `toml:"signature_source"`
}

// WalletConfig holds the trading key material.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds the execution journal connection parameters.
type PostgresConfig struct {
	Enabled      bool   `toml:"enabled"`
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// S3Config holds object storage parameters for the execution archiver.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP status server parameters.
type ServerConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// NotifyConfig holds operator alert channels.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config with workable non-secret values.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			MaxConcurrentExecutions: 1,
			CooldownSeconds:         10,
			EventBusCapacity:        512,
			ActionBusCapacity:       512,
			DedupTTLSeconds:         300,
		},
		Chain: ChainConfig{
			RPCWSURL: "wss://api.hyperliquid-testnet.xyz/evm",
			ChainID:  998,
		},
		Hyperliquid: HyperliquidConfig{
			APIURL:          "https://api.hyperliquid-testnet.xyz",
			WSURL:           "wss://api.hyperliquid-testnet.xyz/ws",
			SignatureSource: "b",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "hyperarb",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "hyperarb-archive",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8000,
		},
		Notify: NotifyConfig{
			Events: []string{"one_sided", "engine_error"},
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"live":  true,
	"paper": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate reports every problem it finds as one combined error.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: live, paper)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Engine.MaxConcurrentExecutions < 1 {
		errs = append(errs, "engine: max_concurrent_executions must be >= 1")
	}
	if c.Engine.CooldownSeconds < 0 {
		errs = append(errs, "engine: cooldown_seconds must be >= 0")
	}
	if c.Engine.EventBusCapacity < 1 || c.Engine.ActionBusCapacity < 1 {
		errs = append(errs, "engine: bus capacities must be >= 1")
	}

	live := strings.ToLower(c.Mode) == "live"
	if live {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set in live mode")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
		if c.Chain.RouterAddress == "" {
			errs = append(errs, "chain: router_address must be set in live mode")
		} else if !common.IsHexAddress(c.Chain.RouterAddress) {
			errs = append(errs, fmt.Sprintf("chain: router_address %q is not a valid address", c.Chain.RouterAddress))
		}
	}

	if c.Chain.RPCWSURL == "" {
		errs = append(errs, "chain: rpc_ws_url must not be empty")
	}
	if c.Chain.ChainID <= 0 {
		errs = append(errs, "chain: chain_id must be positive")
	}
	if c.Hyperliquid.APIURL == "" {
		errs = append(errs, "hyperliquid: api_url must not be empty")
	}
	if c.Hyperliquid.WSURL == "" {
		errs = append(errs, "hyperliquid: ws_url must not be empty")
	}

	enabled := 0
	for i, s := range c.Strategies {
		prefix := fmt.Sprintf("strategies[%d]", i)
		if s.Name != "" {
			prefix = fmt.Sprintf("strategies[%s]", s.Name)
		}
		if !s.Enabled {
			continue
		}
		enabled++
		if s.Name == "" {
			errs = append(errs, prefix+": name must not be empty")
		}
		for field, addr := range map[string]string{"pool": s.Pool, "token_a": s.TokenA, "token_b": s.TokenB} {
			if !common.IsHexAddress(addr) {
				errs = append(errs, fmt.Sprintf("%s: %s %q is not a valid address", prefix, field, addr))
			}
		}
		if s.DecimalsA < 0 || s.DecimalsA > 30 || s.DecimalsB < 0 || s.DecimalsB > 30 {
			errs = append(errs, prefix+": token decimals must be 0-30")
		}
		if s.FeeTierPpm <= 0 {
			errs = append(errs, prefix+": fee_tier_ppm must be positive")
		}
		if s.Instrument == "" {
			errs = append(errs, prefix+": instrument must not be empty")
		}
		if s.OrderSizeUsd <= 0 {
			errs = append(errs, prefix+": order_size_usd must be > 0")
		}
		if s.MinProfitBps <= 0 {
			errs = append(errs, prefix+": min_profit_bps must be > 0")
		}
		if s.GasFeeUsd < 0 || s.CexSlippageBps < 0 || s.DexSlippageBps < 0 {
			errs = append(errs, prefix+": fees and slippage must not be negative")
		}
	}
	if enabled == 0 {
		errs = append(errs, "strategies: at least one enabled strategy is required")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// EnabledStrategies returns only the strategy blocks marked enabled.
func (c *Config) EnabledStrategies() []StrategyConfig {
	out := make([]StrategyConfig, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
