package app

import (
	"strings"

	"github.com/eanlabs/bioplast/internal/store"
	"github.com/eanlabs/bioplast/internal/store/postgres"
	"github.com/eanlabs/bioplast/internal/store/sqlite"
)

func NewStore(dsn, migrationsDir string) (store.KV, error) {
	if strings.HasPrefix(dsn, "postgres") {
		return postgres.NewPostgresStore(dsn, migrationsDir)
	}
	return sqlite.NewSQLiteStore(dsn, migrationsDir)
}
