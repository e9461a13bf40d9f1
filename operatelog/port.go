package operatelog

import "context"

// ErrorLogQueue cola transitoria de registros pendientes de persistir
type ErrorLogQueue interface {
	Enqueue(ctx context.Context, log ErrorLog) error
	Drain(ctx context.Context, max int) ([]ErrorLog, error)
}

// ErrorLogRepository persistencia definitiva de registros
type ErrorLogRepository interface {
	SaveBatch(ctx context.Context, logs []ErrorLog) error
}
