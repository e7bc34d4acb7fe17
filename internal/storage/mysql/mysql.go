package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"

	"elevcalc/internal/config"
)

type Storage struct {
	db *sql.DB
}

// New opens the database and waits for it to answer, retrying with
// exponential backoff.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Storage, error) {
	const op = "storage.mysql.New"

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=%v&multiStatements=true",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.ParseTime,
	)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open db: %w", op, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute
	policy.MaxInterval = 10 * time.Second

	err = backoff.RetryNotify(
		func() error {
			return db.PingContext(ctx)
		},
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			log.Warn("database is not reachable, retrying",
				slog.String("error", err.Error()), slog.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping failed: %w", op, err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Storage{db: db}, nil
}

func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) Close() error {
	return s.db.Close()
}
