package conn

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/yanun0323/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

const (
	defaultHost            = "localhost"
	defaultPostgresPort    = 5432
	defaultMySQLPort       = 3306
	defaultPostgresSSLMode = "disable"
)

// Option defines connection options for the stats database.
type Option struct {
	// Driver is DriverPostgres (default), DriverMySQL or DriverSQLite.
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	Params     map[string]string
	ConnString string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	Config *gorm.Config
}

// Client wraps a gorm connection pool.
type Client struct {
	opt Option
	db  *gorm.DB
}

// New opens a connection pool from the provided options.
func New(option Option) (*Client, error) {
	dialector, err := option.dialector()
	if err != nil {
		return nil, err
	}

	config := option.Config
	if config == nil {
		config = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		}
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, errors.Wrap(err, "open database").With("driver", option.driver())
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql db")
	}

	maxOpen := option.MaxOpenConns
	if maxOpen == 0 && option.driver() == DriverSQLite {
		// sqlite has a single writer; extra connections only add SQLITE_BUSY.
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if option.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(option.MaxIdleConns)
	}
	if option.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(option.ConnMaxLifetime)
	}

	return &Client{opt: option, db: db}, nil
}

// DB returns the underlying gorm.DB instance.
func (c *Client) DB() *gorm.DB {
	if c == nil {
		return nil
	}
	return c.db
}

// Driver returns the resolved driver name.
func (c *Client) Driver() string {
	if c == nil {
		return ""
	}
	return c.opt.driver()
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (opt Option) driver() string {
	d := strings.ToLower(strings.TrimSpace(opt.Driver))
	if d == "" {
		return DriverPostgres
	}
	return d
}

func (opt Option) dialector() (gorm.Dialector, error) {
	switch opt.driver() {
	case DriverPostgres:
		dsn, err := opt.DSN()
		if err != nil {
			return nil, err
		}
		return postgres.Open(dsn), nil
	case DriverMySQL:
		dsn, err := opt.DSN()
		if err != nil {
			return nil, err
		}
		return gormmysql.Open(dsn), nil
	case DriverSQLite:
		if opt.ConnString == "" {
			return nil, errors.New("sqlite requires a connection string")
		}
		return sqlite.Open(opt.ConnString), nil
	default:
		return nil, errors.Errorf("unsupported driver: %s", opt.Driver)
	}
}

// DSN returns ConnString when set, otherwise builds one from the
// discrete fields in the driver's own format.
func (opt Option) DSN() (string, error) {
	if opt.ConnString != "" {
		return opt.ConnString, nil
	}

	switch opt.driver() {
	case DriverPostgres:
		return opt.postgresDSN(), nil
	case DriverMySQL:
		return opt.mysqlDSN(), nil
	case DriverSQLite:
		return "", errors.New("sqlite requires a connection string")
	default:
		return "", errors.Errorf("unsupported driver: %s", opt.Driver)
	}
}

func (opt Option) hostPort(defaultPort int) string {
	host := opt.Host
	if host == "" {
		host = defaultHost
	}
	port := opt.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}

func (opt Option) postgresDSN() string {
	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   opt.hostPort(defaultPostgresPort),
	}

	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}

	if opt.Database != "" {
		u.Path = "/" + opt.Database
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	for key, value := range opt.Params {
		if key == "" {
			continue
		}
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()

	return u.String()
}

// mysqlDSN renders the go-sql-driver form, user:pass@tcp(host:port)/db?k=v.
// SSLMode does not apply; pass "tls" through Params instead.
func (opt Option) mysqlDSN() string {
	cfg := mysql.NewConfig()
	cfg.User = opt.User
	cfg.Passwd = opt.Password
	cfg.Net = "tcp"
	cfg.Addr = opt.hostPort(defaultMySQLPort)
	cfg.DBName = opt.Database
	for key, value := range opt.Params {
		if key == "" {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]string, len(opt.Params))
		}
		cfg.Params[key] = value
	}
	return cfg.FormatDSN()
}
