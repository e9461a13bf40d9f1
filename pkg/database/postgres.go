package database

import (
	"context"
	"time"

	"github.com/Abraxas-365/bastion/pkg/config"
	"github.com/Abraxas-365/craftable/errx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// pingTimeout tope para la verificación inicial de conexión
const pingTimeout = 5 * time.Second

// NewPostgresDB abre el pool de PostgreSQL con los límites configurados y
// verifica la conexión antes de entregarlo.
func NewPostgresDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, errx.Wrap(err, "failed to open postgres pool", errx.TypeInternal).
			WithDetail("host", cfg.Host).
			WithDetail("database", cfg.DBName)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errx.Wrap(err, "failed to ping postgres", errx.TypeInternal).
			WithDetail("host", cfg.Host).
			WithDetail("database", cfg.DBName)
	}

	return db, nil
}

// CloseDB cierra el pool si fue creado
func CloseDB(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
