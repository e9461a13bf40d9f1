package pipeline

import (
	"context"
	"time"

	"github.com/Abraxas-365/bastion/remote"
	"github.com/gofiber/fiber/v2"
)

// maxLoggedBodyBytes límite del body incluido en el registro de acceso
const maxLoggedBodyBytes = 2048

// NewAccessLogFilter registra cada request en el canal de auditoría.
// Corre después de body-cache y de la resolución de contexto; el envío es
// fire-and-forget con política best-effort, así que la indisponibilidad
// del servicio de logs nunca afecta el request primario.
//
// Recibe el dispatcher porque en los requests fallidos el ErrorHandler de
// Fiber todavía no corrió cuando este filtro arma el registro: el código
// del envelope sale de clasificar el error aquí (ClassifyOnce memoriza,
// así que el ErrorHandler reutiliza esta clasificación).
func NewAccessLogFilter(sink remote.OperateLogClient, timeout time.Duration, dispatcher *Dispatcher) Filter {
	return Filter{
		Name:  FilterAccessLog,
		Order: OrderAccessLog,
		Handler: func(c *fiber.Ctx) error {
			err := c.Next()

			entry := remote.OperateLogEntry{
				Method:    c.Method(),
				Path:      c.Path(),
				IP:        c.IP(),
				UserAgent: c.Get(fiber.HeaderUserAgent),
				Status:    c.Response().StatusCode(),
				CreatedAt: time.Now(),
			}

			if info, ok := RequestInfo(c); ok {
				entry.TraceID = info.TraceID
				entry.LatencyMs = time.Since(info.StartedAt).Milliseconds()
			}

			// Identidad resuelta por el filtro de autenticación; al loguear
			// en el camino de respuesta ya está disponible.
			if auth, ok := CurrentAuth(c); ok {
				entry.UserID = auth.UserID
				entry.TenantID = auth.TenantID
				entry.UserType = auth.UserType
			}

			if cb, ok := BodyCache(c); ok {
				snippet := cb.Bytes()
				if len(snippet) > maxLoggedBodyBytes {
					snippet = snippet[:maxLoggedBodyBytes]
				}
				entry.RequestBody = string(snippet)
			}

			if err != nil {
				status, res := dispatcher.ClassifyOnce(c, err)
				entry.Status = status
				entry.Code = res.Code
				entry.ErrorMsg = err.Error()
			} else if res, ok := ResponseResult(c); ok {
				entry.Code = res.Code
			}

			remote.Submit("operate-log", timeout, func(ctx context.Context) error {
				_, recordErr := sink.Record(ctx, entry)
				return recordErr
			})

			return err
		},
	}
}
