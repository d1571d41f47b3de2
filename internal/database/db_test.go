package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcourier/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{
		DBUser: "app",
		DBPass: "s3cret",
		DBHost: "db.internal",
		DBPort: "3306",
		DBName: "bookcourier",
	}

	parsed, err := mysql.ParseDSN(dsn(cfg))
	require.NoError(t, err)
	assert.Equal(t, "app", parsed.User)
	assert.Equal(t, "s3cret", parsed.Passwd)
	assert.Equal(t, "db.internal:3306", parsed.Addr)
	assert.Equal(t, "bookcourier", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, "UTC", parsed.Loc.String())
	assert.Equal(t, "utf8mb4", parsed.Params["charset"])

	t.Run("empty password", func(t *testing.T) {
		cfg.DBPass = ""
		parsed, err := mysql.ParseDSN(dsn(cfg))
		require.NoError(t, err)
		assert.Empty(t, parsed.Passwd)
	})
}
