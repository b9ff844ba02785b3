package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     5433,
		User:     "shop",
		Password: "p@ss",
		DBName:   "storefront",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://shop:p%40ss@db:5433/storefront?sslmode=disable", cfg.DSN())
}
