package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.App.StorageDriver)
	assert.False(t, cfg.Stock.AllowNegative)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 60*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "postgres://postgres:@localhost:5432/erp_ledger?sslmode=disable", cfg.DB.ConnectionString())
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("STOCK_ALLOW_NEGATIVE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("HTTP_READ_TIMEOUT", "15")
	t.Setenv("HTTP_WRITE_TIMEOUT", "2m")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	v := viper.New()
	v.AutomaticEnv()
	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.True(t, cfg.App.IsMemoryStorage())
	assert.True(t, cfg.Stock.AllowNegative)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 2*time.Minute, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DB.ConnectionString())
}

func TestFromViper_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")
	v := viper.New()
	v.AutomaticEnv()
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestFromViper_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	v := viper.New()
	v.AutomaticEnv()
	_, err := fromViper(v)
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cr3t")
	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", cfg.JWT.Secret)
}

func TestDSN_EscapesPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "erp", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/erp?sslmode=require", c.DSN())
}
