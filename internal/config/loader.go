package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load decodes the TOML file at path over the built-in defaults, expanding
// ${VAR} references against the environment, then applies HYPERARB_*
// overrides. The result is NOT validated; callers invoke Config.Validate
// afterwards.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	// A local .env file is a convenience; missing is fine. Loaded before
	// the file is read so ${VAR} references can resolve from it.
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := toml.Decode(expandEnvRefs(string(raw)), &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvRefs substitutes ${VAR} references with the environment value.
// Only the braced form is expanded; an unset variable becomes empty, which
// Validate then reports for required fields.
func expandEnvRefs(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// applyEnvOverrides lets operators inject secrets and endpoint overrides at
// deploy time without editing the TOML file. Per-strategy blocks are only
// configurable through the file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Wallet.PrivateKey, "HYPERARB_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "HYPERARB_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "HYPERARB_WALLET_KEY_PASSWORD")

	setStr(&cfg.Chain.RPCWSURL, "HYPERARB_CHAIN_RPC_WS_URL")
	setInt64(&cfg.Chain.ChainID, "HYPERARB_CHAIN_ID")
	setStr(&cfg.Chain.RouterAddress, "HYPERARB_CHAIN_ROUTER_ADDRESS")

	setStr(&cfg.Hyperliquid.APIURL, "HYPERARB_HYPERLIQUID_API_URL")
	setStr(&cfg.Hyperliquid.WSURL, "HYPERARB_HYPERLIQUID_WS_URL")
	setStr(&cfg.Hyperliquid.SignatureSource, "HYPERARB_HYPERLIQUID_SIGNATURE_SOURCE")

	setInt(&cfg.Engine.MaxConcurrentExecutions, "HYPERARB_ENGINE_MAX_CONCURRENT_EXECUTIONS")
	setInt(&cfg.Engine.CooldownSeconds, "HYPERARB_ENGINE_COOLDOWN_SECONDS")
	setInt(&cfg.Engine.EventBusCapacity, "HYPERARB_ENGINE_EVENT_BUS_CAPACITY")
	setInt(&cfg.Engine.ActionBusCapacity, "HYPERARB_ENGINE_ACTION_BUS_CAPACITY")
	setInt(&cfg.Engine.DedupTTLSeconds, "HYPERARB_ENGINE_DEDUP_TTL_SECONDS")

	setStr(&cfg.Redis.Addr, "HYPERARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "HYPERARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "HYPERARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "HYPERARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "HYPERARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "HYPERARB_REDIS_TLS_ENABLED")

	setBool(&cfg.Postgres.Enabled, "HYPERARB_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "HYPERARB_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "HYPERARB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "HYPERARB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "HYPERARB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "HYPERARB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "HYPERARB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "HYPERARB_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "HYPERARB_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "HYPERARB_POSTGRES_POOL_MIN_CONNS")

	setBool(&cfg.S3.Enabled, "HYPERARB_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "HYPERARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "HYPERARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "HYPERARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "HYPERARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "HYPERARB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "HYPERARB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "HYPERARB_S3_FORCE_PATH_STYLE")

	setBool(&cfg.Server.Enabled, "HYPERARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "HYPERARB_SERVER_PORT")

	setStr(&cfg.Notify.TelegramToken, "HYPERARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "HYPERARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "HYPERARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "HYPERARB_NOTIFY_EVENTS")

	setStr(&cfg.Mode, "HYPERARB_MODE")
	setStr(&cfg.LogLevel, "HYPERARB_LOG_LEVEL")
}

// Typed env helpers; each mutates the target only when the variable is set
// and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
