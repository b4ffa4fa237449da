package target

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
)

// Config describes one target database. Either DSN is set directly, or it is
// assembled from the discrete fields. For DuckDB, Path points at the database
// file (empty means in-memory).
type Config struct {
	Driver         string        `json:"driver"`
	DSN            string        `json:"dsn,omitempty"`
	Host           string        `json:"host,omitempty"`
	Port           int           `json:"port,omitempty"`
	User           string        `json:"user,omitempty"`
	Password       string        `json:"password,omitempty"`
	Database       string        `json:"database,omitempty"`
	SSLMode        string        `json:"ssl_mode,omitempty"`
	Path           string        `json:"path,omitempty"`
	ConnectTimeout time.Duration `json:"-"`
}

// Schema returns the default schema introspection should scan for this engine.
func (c Config) Schema() string {
	if strings.EqualFold(c.Driver, DriverDuckDB) {
		return "main"
	}
	return "public"
}

// Open establishes an exclusive connection for one pipeline run. The pool is
// pinned to a single connection; the caller must Close it on every exit path.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverPostgres
	}

	var db *sql.DB
	var err error
	switch driver {
	case DriverPostgres:
		dsn := cfg.DSN
		if dsn == "" {
			dsn, err = buildPostgresDSN(cfg)
			if err != nil {
				return nil, err
			}
		}
		db, err = sql.Open("pgx", dsn)
	case DriverDuckDB:
		db, err = sql.Open("duckdb", cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported target driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open target database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping target database: %w", err)
	}
	return db, nil
}

func buildPostgresDSN(cfg Config) (string, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return "", fmt.Errorf("target host is required")
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return "", fmt.Errorf("target database name is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()
	return u.String(), nil
}
