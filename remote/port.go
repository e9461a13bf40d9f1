// Package remote wraps every outbound dependency call so that transport
// failures of non-critical dependencies degrade to benign defaults while
// critical dependencies surface an explicit upstream-fault error. A
// well-formed business error returned by a dependency always passes
// through unchanged.
package remote

import (
	"context"
	"time"

	"github.com/Abraxas-365/bastion/pkg/kernel"
)

// OperateLogEntry registro de auditoría enviado al servicio de logs
type OperateLogEntry struct {
	TraceID     string          `json:"trace_id"`
	TenantID    kernel.TenantID `json:"tenant_id"`
	UserID      kernel.UserID   `json:"user_id"`
	UserType    kernel.UserType `json:"user_type"`
	Method      string          `json:"method"`
	Path        string          `json:"path"`
	IP          string          `json:"ip"`
	UserAgent   string          `json:"user_agent"`
	Code        string          `json:"code"`
	Status      int             `json:"status"`
	LatencyMs   int64           `json:"latency_ms"`
	RequestBody string          `json:"request_body,omitempty"`
	ErrorMsg    string          `json:"error_msg,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OperateLogClient canal de escritura de auditoría (best-effort: su
// indisponibilidad nunca afecta el request primario)
type OperateLogClient interface {
	Record(ctx context.Context, entry OperateLogEntry) (bool, error)
}

// PermissionClient dependencia crítica: su indisponibilidad debe
// bloquear la acción primaria con un error explícito
type PermissionClient interface {
	HasPermission(ctx context.Context, userID kernel.UserID, permission string) (bool, error)
}
