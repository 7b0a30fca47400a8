package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "rental"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

// ConnectDB opens the pool, retrying while the database comes up.
func ConnectDB(ctx context.Context, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolConfig.MaxConns = int32(getEnvAsInt("DB_MAX_CONNS", 20))
	poolConfig.MinConns = int32(getEnvAsInt("DB_MIN_CONNS", 2))
	poolConfig.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	poolConfig.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute)
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	logger.Info("connecting to database",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("db", poolConfig.ConnConfig.Database),
		zap.Int32("max_conns", poolConfig.MaxConns))

	attempts := getEnvAsInt("DB_CONNECT_ATTEMPTS", 5)
	var lastErr error
	for i := 1; i <= attempts; i++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				logger.Info("database connected", zap.Int("attempt", i))
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		logger.Warn("database not ready", zap.Int("attempt", i), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i) * time.Second):
		}
	}
	return nil, fmt.Errorf("connect db after %d attempts: %w", attempts, lastErr)
}
