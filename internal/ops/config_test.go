package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"exstats/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
		"backend": {"driver": "SQLite", "dsn": "/tmp/stats.db", "table": "lvl_base", "maxOpenConns": 2},
		"pipeline": {"queueSize": 64, "workers": 2, "writeTimeout": "750ms"},
		"feed": {"socket": "/tmp/exstats.sock"},
		"ops": {"addr": ":9100", "pyroscope": "http://pyroscope:4040"}
	}`)

	cfg, err := load(path, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Backend.Driver())
	assert.Equal(t, "/tmp/stats.db", cfg.Backend.ConnectionString())
	assert.Equal(t, "lvl_base", cfg.Backend.TableName())
	assert.Equal(t, 2, cfg.Backend.Option().MaxOpenConns)
	assert.Equal(t, 64, cfg.Pipeline.QueueSize)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, 750*time.Millisecond, cfg.Pipeline.WriteTimeout)
	assert.Equal(t, "/tmp/exstats.sock", cfg.FeedSocket)
	assert.Equal(t, ":9100", cfg.OpsAddr)
	assert.Equal(t, "http://pyroscope:4040", cfg.PyroscopeAddr)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"backend": {"dsn": "postgres://file", "table": "from_file"}, "pipeline": {"workers": 2}}`)

	cfg, err := load(path, map[string]string{
		"EXSTATS_DSN":           "postgres://env",
		"EXSTATS_TABLE":         "from_env",
		"EXSTATS_WORKERS":       "8",
		"EXSTATS_QUEUE_SIZE":    "16",
		"EXSTATS_WRITE_TIMEOUT": "2s",
		"EXSTATS_SOCKET":        "/run/exstats.sock",
	})
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Backend.Driver())
	assert.Equal(t, "postgres://env", cfg.Backend.ConnectionString())
	assert.Equal(t, "from_env", cfg.Backend.TableName())
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 16, cfg.Pipeline.QueueSize)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.WriteTimeout)
	assert.Equal(t, "/run/exstats.sock", cfg.FeedSocket)
}

func TestLoadBuildsPostgresDSN(t *testing.T) {
	path := writeConfig(t, `{
		"backend": {
			"host": "db", "port": 5433, "user": "lr", "password": "pw", "database": "levels",
			"table": "lvl_base", "maxIdleConns": 3, "connMaxLifetime": "5m"
		}
	}`)

	cfg, err := load(path, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Backend.Driver())
	assert.Equal(t, "postgres://lr:pw@db:5433/levels?sslmode=disable", cfg.Backend.ConnectionString())

	opt := cfg.Backend.Option()
	assert.Equal(t, 3, opt.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, opt.ConnMaxLifetime)
	assert.Equal(t, "db", opt.Host)
}

func TestLoadBuildsMySQLDSNFromEnv(t *testing.T) {
	cfg, err := load("", map[string]string{
		"EXSTATS_DRIVER":      "mysql",
		"EXSTATS_DB_HOST":     "levels-db",
		"EXSTATS_DB_USER":     "lr",
		"EXSTATS_DB_PASSWORD": "pw",
		"EXSTATS_DB_NAME":     "levels",
		"EXSTATS_DB_PARAMS":   "charset:utf8mb4",
		"EXSTATS_TABLE":       "lvl_base",
	})
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Backend.Driver())
	assert.Equal(t, "lr:pw@tcp(levels-db:3306)/levels?charset=utf8mb4", cfg.Backend.ConnectionString())
}

func TestLoadDSNWinsOverFields(t *testing.T) {
	cfg, err := load("", map[string]string{
		"EXSTATS_DSN":     "postgres://explicit",
		"EXSTATS_DB_HOST": "ignored",
		"EXSTATS_TABLE":   "lvl_base",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://explicit", cfg.Backend.ConnectionString())
}

func TestLoadEnvOnly(t *testing.T) {
	cfg, err := load("", map[string]string{
		"EXSTATS_DRIVER": "sqlite",
		"EXSTATS_DSN":    "file::memory:",
		"EXSTATS_TABLE":  "lvl_base",
	})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend.Driver())
	assert.Zero(t, cfg.Pipeline.Workers)
	assert.Zero(t, cfg.Pipeline.WriteTimeout)
	assert.Empty(t, cfg.OpsAddr)
}

func TestLoadRequiresBackend(t *testing.T) {
	_, err := load("", map[string]string{})
	require.ErrorIs(t, err, exception.ErrBackendNotConfigured)

	_, err = load("", map[string]string{"EXSTATS_DSN": "postgres://x"})
	require.ErrorIs(t, err, exception.ErrBackendNotConfigured)

	_, err = load("", map[string]string{"EXSTATS_DSN": "postgres://x", "EXSTATS_TABLE": "bad-name"})
	require.ErrorIs(t, err, exception.ErrInvalidTableName)
}

func TestLoadInvalid(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.json"), map[string]string{})
	require.Error(t, err)

	_, err = load(writeConfig(t, `{"backend":`), map[string]string{})
	require.Error(t, err)

	_, err = load(writeConfig(t, `{"backend": {"dsn": "x", "table": "t"}, "pipeline": {"writeTimeout": "soon"}}`), map[string]string{})
	require.Error(t, err)

	_, err = load(writeConfig(t, `{"backend": {"dsn": "x", "table": "t"}, "pipeline": {"workers": -1}}`), map[string]string{})
	require.Error(t, err)

	_, err = load("", map[string]string{"EXSTATS_WORKERS": "many"})
	require.Error(t, err)

	_, err = load(writeConfig(t, `{"backend": {"dsn": "x", "table": "t", "connMaxLifetime": "later"}}`), map[string]string{})
	require.Error(t, err)

	_, err = load(writeConfig(t, `{"backend": {"driver": "sqlite", "host": "db", "table": "t"}}`), map[string]string{})
	require.Error(t, err)
}
