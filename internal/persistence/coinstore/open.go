package coinstore

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"cryptoverde-api/internal/config"
	"cryptoverde-api/internal/model"
)

const (
	pgxDriverName    = "pgx"
	sqliteDriverName = "sqlite3"
)

// Open connects to the configured SQL backend and creates the schema.
func Open(ctx context.Context, conf config.StoreConf) (*SQLStore, error) {
	var (
		driverName string
		dialect    model.Dialect
	)
	switch conf.Driver {
	case config.DriverPostgres:
		driverName, dialect = pgxDriverName, model.DialectPostgres
	case config.DriverSQLite:
		driverName, dialect = sqliteDriverName, model.DialectSQLite
	default:
		return nil, fmt.Errorf("coinstore: unsupported driver %q", conf.Driver)
	}

	conn := sqlx.NewSqlConn(driverName, conf.DSN)
	db, err := conn.RawDB()
	if err != nil {
		return nil, fmt.Errorf("coinstore: open %s: %w", conf.Driver, err)
	}
	if conf.MaxOpen > 0 {
		db.SetMaxOpenConns(conf.MaxOpen)
	}
	if conf.MaxIdle > 0 {
		db.SetMaxIdleConns(conf.MaxIdle)
	}

	s := NewSQLStore(conn, dialect)
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	logx.WithContext(ctx).Infof("coinstore: opened driver=%s rows=%d", conf.Driver, rows)
	return s, nil
}
