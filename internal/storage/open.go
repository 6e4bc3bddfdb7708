package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"bank_reviews/internal/domain"
	"bank_reviews/internal/shared"
	"bank_reviews/internal/storage/postgres"
	"bank_reviews/internal/storage/sqldb"
)

// Store is a ReviewRepository bound to an open connection pool.
type Store struct {
	domain.ReviewRepository
	closeFn func() error
}

func (s *Store) Close() error { return s.closeFn() }

type schemaRepo interface {
	domain.ReviewRepository
	EnsureSchema(ctx context.Context) error
}

// Open connects to the backend selected by cfg.Driver and makes sure the
// banks and reviews tables exist.
func Open(ctx context.Context, cfg shared.DBConfig) (*Store, error) {
	var (
		repo    schemaRepo
		closeFn func() error
	)
	switch cfg.Driver {
	case "postgres", "":
		db, err := postgres.InitDB(postgres.DSN(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name), logger.Warn)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		repo, closeFn = postgres.NewRepo(db), sqlDB.Close

	case "mysql":
		db, err := sql.Open("mysql", MySQLDSN(cfg))
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("mysql ping: %w", err)
		}
		repo, closeFn = sqldb.New(db, sqldb.MySQL), db.Close

	case "sqlite":
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		repo, closeFn = sqldb.New(db, sqldb.SQLite), db.Close

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		_ = closeFn()
		return nil, err
	}
	return &Store{ReviewRepository: repo, closeFn: closeFn}, nil
}

// MySQLDSN builds a parseTime/UTC DSN from the connection parameters.
func MySQLDSN(cfg shared.DBConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}
