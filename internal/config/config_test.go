package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validStrategy() StrategyConfig {
	return StrategyConfig{
		Name:         "hype_usdc",
		Enabled:      true,
		Pool:         "0x1111111111111111111111111111111111111111",
		TokenA:       "0x2222222222222222222222222222222222222222",
		TokenB:       "0x3333333333333333333333333333333333333333",
		DecimalsA:    18,
		DecimalsB:    6,
		FeeTierPpm:   3000,
		Instrument:   "HYPE",
		OrderSizeUsd: 1000,
		MakerFeeBps:  2,
		GasFeeUsd:    0.50,
		MinProfitBps: 10,
	}
}

func validConfig() Config {
	cfg := Defaults()
	cfg.Strategies = []StrategyConfig{validStrategy()}
	return cfg
}

func TestValidatePaperDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRequiresEnabledStrategy(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "at least one enabled strategy") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateLiveNeedsWalletAndRouter(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "live"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors in live mode without a wallet")
	}
	msg := err.Error()
	if !strings.Contains(msg, "private_key or encrypted_key_path") {
		t.Errorf("missing wallet error, got: %v", err)
	}
	if !strings.Contains(msg, "router_address") {
		t.Errorf("missing router error, got: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "nonsense"
	cfg.LogLevel = "loud"
	cfg.Redis.Addr = ""
	cfg.Strategies[0].Pool = "not-an-address"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"unknown mode", "unknown log_level", "redis: addr", "not a valid address"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestValidateSkipsDisabledStrategies(t *testing.T) {
	cfg := validConfig()
	cfg.Strategies = append(cfg.Strategies, StrategyConfig{Name: "broken", Enabled: false})
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled strategy must not be validated: %v", err)
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "live"
log_level = "debug"

[engine]
max_concurrent_executions = 2

[[strategies]]
name = "hype_usdc"
enabled = true
pool = "0x1111111111111111111111111111111111111111"
token_a = "0x2222222222222222222222222222222222222222"
token_b = "0x3333333333333333333333333333333333333333"
decimals_a = 18
decimals_b = 6
fee_tier_ppm = 3000
instrument = "HYPE"
order_size_usd = 1000.0
min_profit_bps = 10.0
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("HYPERARB_MODE", "paper")
	t.Setenv("HYPERARB_REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "paper" {
		t.Errorf("mode = %q, env override must win", cfg.Mode)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Engine.MaxConcurrentExecutions != 2 {
		t.Errorf("max concurrent = %d, want file value 2", cfg.Engine.MaxConcurrentExecutions)
	}
	// Defaults survive where the file is silent.
	if cfg.Engine.EventBusCapacity != 512 {
		t.Errorf("event bus capacity = %d, want default 512", cfg.Engine.EventBusCapacity)
	}
	if len(cfg.Strategies) != 1 || cfg.Strategies[0].Name != "hype_usdc" {
		t.Fatalf("strategies = %+v", cfg.Strategies)
	}
}

func TestLoadExpandsEnvRefs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[redis]
addr = "${ARB_TEST_REDIS_ADDR}"
password = "${ARB_TEST_REDIS_PASSWORD}"

[wallet]
# literal dollar values without braces must pass through untouched
private_key = "$notaref"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("ARB_TEST_REDIS_ADDR", "redis.internal:6379")
	os.Unsetenv("ARB_TEST_REDIS_PASSWORD")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("redis addr = %q, want expanded value", cfg.Redis.Addr)
	}
	if cfg.Redis.Password != "" {
		t.Errorf("password = %q, unset reference must become empty", cfg.Redis.Password)
	}
	if cfg.Wallet.PrivateKey != "$notaref" {
		t.Errorf("private key = %q, unbraced dollar must not expand", cfg.Wallet.PrivateKey)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Wallet.PrivateKey = "deadbeef"
	cfg.Redis.Password = "secret"
	cfg.Notify.TelegramToken = "token"

	red := RedactedConfig(&cfg)
	if red.Wallet.PrivateKey != "***" || red.Redis.Password != "***" || red.Notify.TelegramToken != "***" {
		t.Fatal("secrets were not redacted")
	}
	if cfg.Wallet.PrivateKey != "deadbeef" {
		t.Fatal("original config was mutated")
	}
	// Empty secrets stay empty rather than implying a value exists.
	if red.S3.SecretKey != "" {
		t.Fatal("empty secret must stay empty")
	}
}
