package ops

import (
	"os"
	"strings"
	"time"

	"exstats/internal/ingest"
	"exstats/internal/stats"
	"exstats/pkg/conn"
	"exstats/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/caarlos0/env/v11"
	"github.com/yanun0323/errors"
)

const defaultDriver = "postgres"

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Backend  BackendConfig  `json:"backend"`
	Pipeline PipelineConfig `json:"pipeline"`
	Feed     FeedConfig     `json:"feed"`
	Ops      OpsConfig      `json:"ops"`
}

// BackendConfig locates the stats store. DSN wins over the discrete
// host/port/user/database fields when both are set.
type BackendConfig struct {
	Driver   string            `json:"driver"`
	DSN      string            `json:"dsn"`
	Host     string            `json:"host"`
	Port     int               `json:"port"`
	User     string            `json:"user"`
	Password string            `json:"password"`
	Database string            `json:"database"`
	SSLMode  string            `json:"sslMode"`
	Params   map[string]string `json:"params"`
	Table    string            `json:"table"`

	MaxOpenConns    int    `json:"maxOpenConns"`
	MaxIdleConns    int    `json:"maxIdleConns"`
	ConnMaxLifetime string `json:"connMaxLifetime"`
}

// PipelineConfig tunes the dispatch queue.
type PipelineConfig struct {
	QueueSize    int    `json:"queueSize"`
	Workers      int    `json:"workers"`
	WriteTimeout string `json:"writeTimeout"`
}

// FeedConfig describes where damage events arrive.
type FeedConfig struct {
	Socket string `json:"socket"`
}

// OpsConfig holds the operability endpoints.
type OpsConfig struct {
	Addr      string `json:"addr"`
	Pyroscope string `json:"pyroscope"`
}

// envConfig overrides file values; empty fields keep the file value.
type envConfig struct {
	Driver          string            `env:"EXSTATS_DRIVER"`
	DSN             string            `env:"EXSTATS_DSN"`
	Host            string            `env:"EXSTATS_DB_HOST"`
	Port            int               `env:"EXSTATS_DB_PORT"`
	User            string            `env:"EXSTATS_DB_USER"`
	Password        string            `env:"EXSTATS_DB_PASSWORD"`
	Database        string            `env:"EXSTATS_DB_NAME"`
	SSLMode         string            `env:"EXSTATS_DB_SSLMODE"`
	Params          map[string]string `env:"EXSTATS_DB_PARAMS"`
	Table           string            `env:"EXSTATS_TABLE"`
	MaxOpenConns    int               `env:"EXSTATS_MAX_OPEN_CONNS"`
	MaxIdleConns    int               `env:"EXSTATS_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration     `env:"EXSTATS_CONN_MAX_LIFETIME"`
	QueueSize       int               `env:"EXSTATS_QUEUE_SIZE"`
	Workers         int               `env:"EXSTATS_WORKERS"`
	WriteTimeout    time.Duration     `env:"EXSTATS_WRITE_TIMEOUT"`
	Socket          string            `env:"EXSTATS_SOCKET"`
	OpsAddr         string            `env:"EXSTATS_OPS_ADDR"`
	Pyroscope       string            `env:"EXSTATS_PYROSCOPE"`
}

// Backend is the resolved stats backend; it satisfies stats.Provider.
type Backend struct {
	opt   conn.Option
	table string
}

var _ stats.Provider = Backend{}

func (b Backend) Driver() string           { return b.opt.Driver }
func (b Backend) ConnectionString() string { return b.opt.ConnString }
func (b Backend) TableName() string        { return b.table }

// Option returns the full connection options, pool settings included.
func (b Backend) Option() conn.Option { return b.opt }

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Backend       Backend
	Pipeline      ingest.Config
	FeedSocket    string
	OpsAddr       string
	PyroscopeAddr string
}

// Load reads an optional JSON config file, applies environment overrides
// and validates the result. An empty path means environment only.
func Load(path string) (Loaded, error) {
	return load(path, nil)
}

// load reads environ instead of the process environment when it is non-nil.
func load(path string, environ map[string]string) (Loaded, error) {
	var cfg FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Loaded{}, errors.Wrap(err, "read config").With("path", path)
		}
		if err := sonic.Unmarshal(data, &cfg); err != nil {
			return Loaded{}, errors.Wrap(err, "decode config").With("path", path)
		}
	}

	var ec envConfig
	if err := env.ParseWithOptions(&ec, env.Options{Environment: environ}); err != nil {
		return Loaded{}, errors.Wrap(err, "parse env")
	}
	applyEnv(&cfg, ec)

	return resolve(cfg)
}

func applyEnv(cfg *FileConfig, ec envConfig) {
	setString(&cfg.Backend.Driver, ec.Driver)
	setString(&cfg.Backend.DSN, ec.DSN)
	setString(&cfg.Backend.Host, ec.Host)
	setString(&cfg.Backend.User, ec.User)
	setString(&cfg.Backend.Password, ec.Password)
	setString(&cfg.Backend.Database, ec.Database)
	setString(&cfg.Backend.SSLMode, ec.SSLMode)
	setString(&cfg.Backend.Table, ec.Table)
	setString(&cfg.Feed.Socket, ec.Socket)
	setString(&cfg.Ops.Addr, ec.OpsAddr)
	setString(&cfg.Ops.Pyroscope, ec.Pyroscope)
	if ec.Port > 0 {
		cfg.Backend.Port = ec.Port
	}
	if len(ec.Params) > 0 {
		if cfg.Backend.Params == nil {
			cfg.Backend.Params = make(map[string]string, len(ec.Params))
		}
		for k, v := range ec.Params {
			cfg.Backend.Params[k] = v
		}
	}
	if ec.MaxOpenConns > 0 {
		cfg.Backend.MaxOpenConns = ec.MaxOpenConns
	}
	if ec.MaxIdleConns > 0 {
		cfg.Backend.MaxIdleConns = ec.MaxIdleConns
	}
	if ec.ConnMaxLifetime > 0 {
		cfg.Backend.ConnMaxLifetime = ec.ConnMaxLifetime.String()
	}
	if ec.QueueSize > 0 {
		cfg.Pipeline.QueueSize = ec.QueueSize
	}
	if ec.Workers > 0 {
		cfg.Pipeline.Workers = ec.Workers
	}
	if ec.WriteTimeout > 0 {
		cfg.Pipeline.WriteTimeout = ec.WriteTimeout.String()
	}
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func resolve(cfg FileConfig) (Loaded, error) {
	backend, err := resolveBackend(cfg.Backend)
	if err != nil {
		return Loaded{}, err
	}

	pipeline := ingest.Config{
		QueueSize: cfg.Pipeline.QueueSize,
		Workers:   cfg.Pipeline.Workers,
	}
	if pipeline.QueueSize < 0 || pipeline.Workers < 0 {
		return Loaded{}, errors.New("pipeline queueSize and workers must be >= 0")
	}
	if s := strings.TrimSpace(cfg.Pipeline.WriteTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Loaded{}, errors.Wrap(err, "parse writeTimeout").With("value", s)
		}
		if d <= 0 {
			return Loaded{}, errors.Errorf("writeTimeout must be > 0, got %s", s)
		}
		pipeline.WriteTimeout = d
	}

	return Loaded{
		Backend:       backend,
		Pipeline:      pipeline,
		FeedSocket:    strings.TrimSpace(cfg.Feed.Socket),
		OpsAddr:       strings.TrimSpace(cfg.Ops.Addr),
		PyroscopeAddr: strings.TrimSpace(cfg.Ops.Pyroscope),
	}, nil
}

func resolveBackend(cfg BackendConfig) (Backend, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = defaultDriver
	}
	if cfg.MaxOpenConns < 0 || cfg.MaxIdleConns < 0 || cfg.Port < 0 {
		return Backend{}, errors.New("backend port, maxOpenConns and maxIdleConns must be >= 0")
	}

	opt := conn.Option{
		Driver:       driver,
		Host:         strings.TrimSpace(cfg.Host),
		Port:         cfg.Port,
		User:         strings.TrimSpace(cfg.User),
		Password:     cfg.Password,
		Database:     strings.TrimSpace(cfg.Database),
		SSLMode:      strings.TrimSpace(cfg.SSLMode),
		Params:       cfg.Params,
		ConnString:   strings.TrimSpace(cfg.DSN),
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	}
	if s := strings.TrimSpace(cfg.ConnMaxLifetime); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Backend{}, errors.Wrap(err, "parse connMaxLifetime").With("value", s)
		}
		opt.ConnMaxLifetime = d
	}

	if opt.ConnString == "" && (opt.Host != "" || opt.Database != "") {
		dsn, err := opt.DSN()
		if err != nil {
			return Backend{}, errors.Wrap(err, "build dsn").With("driver", driver)
		}
		opt.ConnString = dsn
	}
	if opt.ConnString == "" {
		return Backend{}, errors.Wrap(exception.ErrBackendNotConfigured, "dsn is empty")
	}

	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		return Backend{}, errors.Wrap(exception.ErrBackendNotConfigured, "table is empty")
	}
	if _, err := stats.TableName(table); err != nil {
		return Backend{}, err
	}
	return Backend{opt: opt, table: table}, nil
}
