// Package postgres connects to PostgreSQL which backs sql:// data.
//
// sql:// paths address tables:
//
//	sql://{database}/{schema}/{table}
//	sql://{database}/{table}          (schema is "public")
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
)

const DefaultSchema = "public"

// Config is connection parameters.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

// ConfigFromEnv reads POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
// POSTGRES_DATABASE and POSTGRES_SCHEMA.
func ConfigFromEnv() Config {
	c := Config{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Database: os.Getenv("POSTGRES_DATABASE"),
		Schema:   os.Getenv("POSTGRES_SCHEMA"),
	}
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.Schema == "" {
		c.Schema = DefaultSchema
	}
	return c
}

// ConnString formats c as a postgres:// URL.
func (c Config) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String()
}

// Verify checks that c is enough to connect.
func (c Config) Verify() error {
	if c.Host == "" {
		return dherr.NewBackendError(dherr.ErrConfiguration, "postgres", "POSTGRES_HOST is not set", nil)
	}
	if c.Database == "" {
		return dherr.NewBackendError(dherr.ErrConfiguration, "postgres", "POSTGRES_DATABASE is not set", nil)
	}
	return nil
}

// Table is a parsed sql:// path.
type Table struct {
	Database string
	Schema   string
	Name     string
}

// Identifier is the quoted "schema"."table".
func (t Table) Identifier() string {
	return pgx.Identifier{t.Schema, t.Name}.Sanitize()
}

// Path formats t back to sql:// path.
func (t Table) Path() string {
	return fmt.Sprintf("sql://%s/%s/%s", t.Database, t.Schema, t.Name)
}

// ParseTablePath parses sql://{database}[/{schema}]/{table}.
func ParseTablePath(path string) (Table, error) {
	rest, ok := strings.CutPrefix(path, "sql://")
	if !ok {
		rest, ok = strings.CutPrefix(path, "postgresql://")
	}
	if !ok {
		return Table{}, fmt.Errorf("%w: '%s' is not a sql:// path", dherr.ErrValidation, path)
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch len(parts) {
	case 2:
		return Table{Database: parts[0], Schema: DefaultSchema, Name: parts[1]}, nil
	case 3:
		return Table{Database: parts[0], Schema: parts[1], Name: parts[2]}, nil
	default:
		return Table{}, fmt.Errorf(
			"%w: invalid SQL path '%s'. it should be sql://<database>/<schema>/<table> or sql://<database>/<table>",
			dherr.ErrValidation, path,
		)
	}
}

// Open connects to the database.
//
// # Returns
//
// - Pool
//
// - error: ErrConfiguration if config is not enough, ErrConnection if failed to connect.
func Open(ctx context.Context, config Config) (Pool, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	pgconf, err := pgxpool.ParseConfig(config.ConnString())
	if err != nil {
		return nil, dherr.NewBackendError(dherr.ErrConfiguration, "postgres", "", err)
	}
	p, err := pgxpool.ConnectConfig(ctx, pgconf)
	if err != nil {
		return nil, dherr.NewBackendError(dherr.ErrConnection, "postgres "+config.Host, "", err)
	}
	return Wrap(p), nil
}

// CopyOut writes the table as CSV with header into w.
func CopyOut(ctx context.Context, pool Pool, table Table, w io.Writer) (int64, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return 0, xe.Wrap(err)
	}
	defer conn.Release()

	tag, err := conn.PgConn().CopyTo(
		ctx, w, fmt.Sprintf("COPY %s TO STDOUT WITH (FORMAT csv, HEADER true)", table.Identifier()),
	)
	if err != nil {
		return 0, Classify("COPY "+table.Path(), err)
	}
	return tag.RowsAffected(), nil
}

// Classify converts errors from PostgreSQL into backend errors.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		switch pgerr.Code {
		case pgerrcode.UndefinedTable, pgerrcode.InvalidSchemaName, pgerrcode.InvalidCatalogName:
			return dherr.NewBackendError(dherr.ErrEntityNotExists, op, pgerr.Message, err)
		case pgerrcode.DuplicateTable, pgerrcode.UniqueViolation:
			return dherr.NewBackendError(dherr.ErrEntityAlreadyExists, op, pgerr.Message, err)
		case pgerrcode.InsufficientPrivilege:
			return dherr.NewBackendError(dherr.ErrForbidden, op, pgerr.Message, err)
		case pgerrcode.InvalidPassword, pgerrcode.InvalidAuthorizationSpecification:
			return dherr.NewBackendError(dherr.ErrUnauthorized, op, pgerr.Message, err)
		}
		if pgerrcode.IsConnectionException(pgerr.Code) {
			return dherr.NewBackendError(dherr.ErrConnection, op, pgerr.Message, err)
		}
		return dherr.NewBackendError(dherr.ErrStatus, op, pgerr.Message, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dherr.NewBackendError(dherr.ErrTimeout, op, "", err)
	}
	return dherr.NewBackendError(dherr.ErrConnection, op, "", err)
}
