package database

import (
	"context"
	"fmt"
	"time"

	"queryly/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/sijms/go-ora/v2" // registers the "oracle" driver
	"go.uber.org/zap"
)

// NewSQLXOracleDB opens and pings an Oracle connection pool.
func NewSQLXOracleDB(ctx context.Context, dsn string) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "oracle", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Oracle database: %w", err)
	}
	const (
		maxOpen     = 10
		maxIdle     = 5
		maxLifetime = 30 * time.Minute
	)
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	logger.Get().Info("Connected to Oracle database",
		zap.Int("maxOpenConns", maxOpen),
		zap.Int("maxIdleConns", maxIdle),
		zap.Duration("connMaxLifetime", maxLifetime))
	return db, nil
}
