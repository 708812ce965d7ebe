package config

import (
	"os"
	"strconv"
)

const (
	databaseURLEnv      = "DATABASE_URL"
	databaseMaxConnsEnv = "DATABASE_MAX_CONNS"

	defaultDatabaseMaxConns = 10
)

type PostgresConfig struct {
	URL      string
	MaxConns int32
}

func LoadPostgresConfig() (*PostgresConfig, error) {
	maxConns := int32(defaultDatabaseMaxConns)
	if raw := os.Getenv(databaseMaxConnsEnv); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidMaxConns
		}
		maxConns = int32(parsed)
	}

	return &PostgresConfig{
		URL:      os.Getenv(databaseURLEnv),
		MaxConns: maxConns,
	}, nil
}

func (c *PostgresConfig) Validate() error {
	if c == nil || c.URL == "" {
		return ErrDatabaseURLMissing
	}
	return nil
}
