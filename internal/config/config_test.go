package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/videotube?sslmode=disable")
	t.Setenv("ACCESS_TOKEN_SECRET", "access")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 240*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 30*time.Second, cfg.Media.UploadTimeout)
	assert.Equal(t, "channels", cfg.Search.Index)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Search.URL)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "5m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("MEDIA_BUCKET", "avatars")
	t.Setenv("MEDIA_USE_SSL", "true")
	t.Setenv("ES_URL", "http://es:9200")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "avatars", cfg.Media.Bucket)
	assert.True(t, cfg.Media.UseSSL)
	assert.Equal(t, "http://es:9200", cfg.Search.URL)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "equal secrets", mutate: func(c *Config) { c.JWT.RefreshSecret = c.JWT.AccessSecret }, want: "must differ"},
		{name: "zero access ttl", mutate: func(c *Config) { c.JWT.AccessTTL = 0 }, want: "ACCESS_TOKEN_EXPIRY"},
		{name: "negative refresh ttl", mutate: func(c *Config) { c.JWT.RefreshTTL = -time.Hour }, want: "REFRESH_TOKEN_EXPIRY"},
		{name: "bad port", mutate: func(c *Config) { c.ServerPort = 70000 }, want: "SERVER_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				ServerPort: 8080,
				JWT: JWT{
					AccessSecret:  "a",
					RefreshSecret: "b",
					AccessTTL:     time.Minute,
					RefreshTTL:    time.Hour,
				},
				Media: Media{UploadTimeout: time.Second},
			}
			require.NoError(t, cfg.Validate())

			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
