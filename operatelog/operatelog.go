// Package operatelog persiste registros de auditoría de fallos no
// clasificados. La escritura es en dos fases para que nunca bloquee un
// request: encolado fire-and-forget en Redis y un flush periódico hacia
// PostgreSQL.
package operatelog

import (
	"time"

	"github.com/Abraxas-365/bastion/pkg/kernel"
)

// ErrorLog registro persistente de un fallo no clasificado
type ErrorLog struct {
	ID        kernel.LogID `db:"id" json:"id"`
	TraceID   string       `db:"trace_id" json:"trace_id"`
	UserID    string       `db:"user_id" json:"user_id"`
	TenantID  string       `db:"tenant_id" json:"tenant_id"`
	Method    string       `db:"method" json:"method"`
	Path      string       `db:"path" json:"path"`
	Msg       string       `db:"msg" json:"msg"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
