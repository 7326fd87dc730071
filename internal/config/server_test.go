package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "",
		Port:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

func TestServerConfig_GetAddress(t *testing.T) {
	t.Run("no host", func(t *testing.T) {
		cfg := validServerConfig()
		assert.Equal(t, ":8080", cfg.GetAddress())
	})

	t.Run("host with colon-prefixed port", func(t *testing.T) {
		cfg := validServerConfig()
		cfg.Host = "127.0.0.1"
		assert.Equal(t, "127.0.0.1:8080", cfg.GetAddress())
	})

	t.Run("host with bare port", func(t *testing.T) {
		cfg := validServerConfig()
		cfg.Host = "localhost"
		cfg.Port = "9090"
		assert.Equal(t, "localhost:9090", cfg.GetAddress())
	})
}

func TestServerConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validServerConfig().Validate())
	})

	t.Run("zero read timeout", func(t *testing.T) {
		cfg := validServerConfig()
		cfg.ReadTimeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative write timeout", func(t *testing.T) {
		cfg := validServerConfig()
		cfg.WriteTimeout = -1 * time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero idle timeout", func(t *testing.T) {
		cfg := validServerConfig()
		cfg.IdleTimeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero shutdown timeout", func(t *testing.T) {
		cfg := validServerConfig()
		cfg.ShutdownTimeout = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadServerConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := LoadServerConfigFromEnv()

		assert.Equal(t, ":8080", cfg.Port)
		assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
		assert.Equal(t, 60*time.Second, cfg.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.IdleTimeout)
		assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("SERVER_HOST", "0.0.0.0")
		t.Setenv("SERVER_READ_TIMEOUT", "5s")

		cfg := LoadServerConfigFromEnv()

		assert.Equal(t, "0.0.0.0", cfg.Host)
		assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	})
}
