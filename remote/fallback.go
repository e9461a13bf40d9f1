package remote

import (
	"context"
	"errors"
	"time"

	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/Abraxas-365/craftable/logx"
)

// Criticality es la política declarada al cablear cada dependencia.
type Criticality int

const (
	// BestEffort: fallo de transporte → warn + default benigno, el flujo
	// primario no se entera.
	BestEffort Criticality = iota

	// Critical: fallo de transporte → error + envelope C de upstream,
	// visible para el llamador.
	Critical
)

// isBusinessError distingue un error de negocio bien formado del
// dependiente (pasa intacto) de un fallo de transporte (aplica política).
func isBusinessError(err error) bool {
	var be *result.Error
	return errors.As(err, &be)
}

// ============================================================================
// Decoradores por dependencia
// ============================================================================

type operateLogFallback struct {
	next OperateLogClient
}

// NewOperateLogFallback decora el cliente de logs con política
// best-effort.
func NewOperateLogFallback(next OperateLogClient) OperateLogClient {
	return &operateLogFallback{next: next}
}

func (f *operateLogFallback) Record(ctx context.Context, entry OperateLogEntry) (bool, error) {
	recorded, err := f.next.Record(ctx, entry)
	if err == nil || isBusinessError(err) {
		return recorded, err
	}

	logx.Warn("operate log service unreachable, dropping record (trace_id=%s): %v", entry.TraceID, err)
	return false, nil
}

type permissionFallback struct {
	next PermissionClient
}

// NewPermissionFallback decora el cliente de permisos con política
// crítica.
func NewPermissionFallback(next PermissionClient) PermissionClient {
	return &permissionFallback{next: next}
}

func (f *permissionFallback) HasPermission(ctx context.Context, userID kernel.UserID, permission string) (bool, error) {
	allowed, err := f.next.HasPermission(ctx, userID, permission)
	if err == nil || isBusinessError(err) {
		return allowed, err
	}

	logx.Error("permission service unreachable (user_id=%s permission=%s): %v", userID.String(), permission, err)
	return false, result.NewCodeError(result.CodeUpstreamError)
}

// ============================================================================
// Fire-and-forget
// ============================================================================

// Submit despacha una llamada de efecto secundario en su propia goroutine
// con timeout propio. Un fallo jamás se propaga al worker del request:
// se loguea y se descarta aquí. La llamada tampoco se cancela si el
// request primario termina antes.
func Submit(name string, timeout time.Duration, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logx.Error("fire-and-forget %s panicked: %v", name, r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logx.Warn("fire-and-forget %s failed: %v", name, err)
		}
	}()
}
