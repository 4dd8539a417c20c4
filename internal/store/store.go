// 包 store 提供持久存储实现：默认 SQLite（modernc，纯 Go），可选 PostgreSQL。
// 表结构由内嵌迁移文件管理；文档以 JSON 文本保存，联赛/赛季为键做 upsert。
package store

import (
	"context"
	"database/sql"
	"embed"

	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

func init() {
	// modernc 注册的驱动名是 "sqlite"，sqlx 默认不认识
	sqlx.BindDriver(TypeSQLite, sqlx.QUESTION)
}

// Store 封装 *sqlx.DB；语句统一用 ? 占位，执行前按驱动 Rebind。
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open 打开数据库并执行迁移。typ 为 sqlite 或 postgres。
func Open(ctx context.Context, typ, dsn string) (*Store, error) {
	if typ == "" {
		typ = TypeSQLite
	}
	if typ != TypeSQLite && typ != TypePostgres {
		return nil, errors.Newf("unsupported database type: %s", typ)
	}
	db, err := sqlx.ConnectContext(ctx, typ, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s %s", typ, dsn)
	}
	if typ == TypeSQLite {
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, driver: typ}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// migrate 执行内嵌迁移，已是最新时视为成功。
func (s *Store) migrate() error {
	var (
		driver database.Driver
		err    error
	)
	switch s.driver {
	case TypePostgres:
		driver, err = pgmigrate.WithInstance(s.db.DB, &pgmigrate.Config{})
	default:
		driver, err = sqlitemigrate.WithInstance(s.db.DB, &sqlitemigrate.Config{})
	}
	if err != nil {
		return errors.Wrap(err, "could not create database driver")
	}
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "could not create iofs source")
	}
	m, err := migrate.NewWithInstance("iofs", src, s.driver, driver)
	if err != nil {
		return errors.Wrap(err, "could not create migrate instance")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "could not run up migrations")
	}
	return nil
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.db.Rebind(q), args...)
}

func (s *Store) get(ctx context.Context, dest any, q string, args ...any) error {
	return s.db.GetContext(ctx, dest, s.db.Rebind(q), args...)
}
