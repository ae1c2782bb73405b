package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
service_name = "fxpricing"
environment = "staging"

[http]
port = 9080

[database]
driver = "sqlite"
dsn = "file:fx.db"

[kafka]
brokers = ["kafka-1:9092", "kafka-2:9092"]

[ratelimit]
enabled = true
qps = 10
burst = 20

[fxpricing]
cache_ttl = 60
relay_batch_size = 25
dead_letter_topic = "fx.dlq"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fxpricing.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "fxpricing", cfg.ServiceName)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 9080, cfg.HTTP.Port)
	assert.Equal(t, 50051, cfg.GRPC.Port)
	assert.Equal(t, "0.0.0.0:50051", cfg.GRPC.Addr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 60, cfg.FXPricing.CacheTTL)
	assert.Equal(t, 25, cfg.FXPricing.RelayBatchSize)
	assert.Equal(t, 60, cfg.FXPricing.MaintenanceInterval)
	assert.Equal(t, "fx.dlq", cfg.FXPricing.DeadLetterTopic)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_DATABASE_DSN", "file:override.db")
	t.Setenv("APP_HTTP_PORT", "7000")
	t.Setenv("APP_LOGGER_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, sampleTOML))
	require.NoError(t, err)
	assert.Equal(t, "file:override.db", cfg.Database.DSN)
	assert.Equal(t, 7000, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadWithDefaults_MissingFile(t *testing.T) {
	t.Setenv("APP_DATABASE_DRIVER", "sqlite")

	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "fxpricing", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 900, cfg.FXPricing.CacheTTL)
	assert.Equal(t, "fxpricing.dlq", cfg.FXPricing.DeadLetterTopic)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServiceName: "fxpricing",
			HTTP:        HTTPConfig{Port: 8080},
			GRPC:        GRPCConfig{Port: 50051},
			Database:    DatabaseConfig{Driver: "mysql", DSN: "user:pass@tcp(localhost:3306)/fx"},
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "dev", cfg.Environment)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing service name", func(c *Config) { c.ServiceName = "" }},
		{"bad http port", func(c *Config) { c.HTTP.Port = 70000 }},
		{"bad grpc port", func(c *Config) { c.GRPC.Port = 0 }},
		{"mysql without dsn", func(c *Config) { c.Database.DSN = "" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"ratelimit without qps", func(c *Config) { c.RateLimit = RateLimitConfig{Enabled: true, Burst: 1} }},
		{"negative cache ttl", func(c *Config) { c.FXPricing.CacheTTL = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("FXPRICING_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("FXPRICING_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("FXPRICING_TEST_MISSING", "fallback"))
}
