package opinfra

import (
	"context"

	"github.com/Abraxas-365/bastion/operatelog"
	"github.com/Abraxas-365/craftable/errx"
	"github.com/jmoiron/sqlx"
)

// PostgresErrorLogRepository persistencia de error logs en PostgreSQL
type PostgresErrorLogRepository struct {
	db *sqlx.DB
}

var _ operatelog.ErrorLogRepository = (*PostgresErrorLogRepository)(nil)

// NewPostgresErrorLogRepository crea el repositorio
func NewPostgresErrorLogRepository(db *sqlx.DB) *PostgresErrorLogRepository {
	return &PostgresErrorLogRepository{db: db}
}

// SaveBatch inserta un lote de registros
func (r *PostgresErrorLogRepository) SaveBatch(ctx context.Context, logs []operatelog.ErrorLog) error {
	if len(logs) == 0 {
		return nil
	}

	query := `
		INSERT INTO error_logs (id, trace_id, user_id, tenant_id, method, path, msg, created_at)
		VALUES (:id, :trace_id, :user_id, :tenant_id, :method, :path, :msg, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, logs); err != nil {
		return errx.Wrap(err, "failed to save error logs", errx.TypeInternal).
			WithDetail("count", len(logs))
	}
	return nil
}
