package pipeline

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
)

// logxLogger adapta logx al Logger del dispatcher
type logxLogger struct{}

func (logxLogger) Warn(format string, args ...any)  { logx.Warn(format, args...) }
func (logxLogger) Error(format string, args ...any) { logx.Error(format, args...) }

// maxCauseUnwrapDepth acota cuántos niveles de causa se inspeccionan
// buscando un fallo de negocio envuelto por una capa genérica (cache
// loaders, ejecución async). Exactamente uno: anidamientos más profundos
// se clasifican como fallo interno.
const maxCauseUnwrapDepth = 1

// ErrorLogEntry registro persistente de un fallo no clasificado
type ErrorLogEntry struct {
	TraceID  string
	Method   string
	Path     string
	UserID   string
	TenantID string
	Msg      string
	At       time.Time
}

// ErrorSink recibe registros de fallos no clasificados. Submit debe ser
// no bloqueante y nunca fallar hacia el llamador.
type ErrorSink interface {
	SubmitErrorLog(entry ErrorLogEntry)
}

// Logger subconjunto de logx usado por el dispatcher, inyectable en tests
type Logger interface {
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// DispatcherOptions dependencias del dispatcher de excepciones
type DispatcherOptions struct {
	// NoisyMessages mensajes de negocio esperados y frecuentes que no se
	// loguean (p.ej. "invalid refresh token") para no inundar el log.
	NoisyMessages []string

	// Sink auditoría persistente de fallos no clasificados; opcional.
	Sink ErrorSink

	// Log destino de logging; nil usa logx.
	Log Logger
}

// Dispatcher clasifica cualquier fallo del procesamiento en exactamente
// una categoría y produce exactamente un envelope. Nunca lanza: un fallo
// secundario durante el render degrada al envelope genérico interno.
type Dispatcher struct {
	opts DispatcherOptions
}

// NewDispatcher crea el dispatcher de excepciones
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Log == nil {
		opts.Log = logxLogger{}
	}
	return &Dispatcher{opts: opts}
}

// ErrorHandler retorna el manejador que se instala como ErrorHandler de
// Fiber; los panics llegan aquí convertidos en error por el middleware de
// recover.
func (d *Dispatcher) ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		defer func() {
			if r := recover(); r != nil {
				d.opts.Log.Error("dispatcher: secondary failure while rendering: %v", r)
				_ = c.Status(fiber.StatusInternalServerError).JSON(result.ErrorCode(result.CodeInternalError))
			}
		}()

		status, res := d.ClassifyOnce(c, err)
		c.Locals(resultLocalsKey, res)
		return c.Status(status).JSON(res)
	}
}

// classifiedLocalsKey memoriza la clasificación de un fallo dentro del
// request. Fiber invoca el ErrorHandler recién cuando el stack de
// middleware terminó de desenrollarse, así que los filtros de logging que
// corren durante ese unwind necesitan clasificar antes; la memo evita que
// el mismo fallo se clasifique (y audite) dos veces.
const classifiedLocalsKey = "classified_failure"

type classifiedFailure struct {
	err    error
	status int
	res    result.Result
}

// ClassifyOnce clasifica el fallo una única vez por request: la primera
// llamada delega en Classify y memoriza; las siguientes con el mismo
// fallo devuelven lo memorizado. La usan el ErrorHandler y el filtro de
// access-log, en cualquier orden.
func (d *Dispatcher) ClassifyOnce(c *fiber.Ctx, err error) (int, result.Result) {
	if cf, ok := c.Locals(classifiedLocalsKey).(*classifiedFailure); ok && errors.Is(err, cf.err) {
		return cf.status, cf.res
	}

	status, res := d.Classify(c, err)
	c.Locals(classifiedLocalsKey, &classifiedFailure{err: err, status: status, res: res})
	return status, res
}

// Classify selecciona la categoría del fallo, de la más específica a la
// más genérica; la primera que matchea gana. Categorías:
//
//	business fault (result.Error)        → código declarado por quien lanzó
//	field type mismatch (json)           → A0421, campo + valor ofensivo
//	malformed / absent body (json, EOF)  → A0400
//	query/form type mismatch (strconv)   → A0421
//	framework status (fiber.Error)       → A0404/A0405/A0413/A0415/...
//	validation (errx TypeValidation)     → A0430
//	authorization (errx TypeAuthorization) → A0403, auditado
//	not found (errx TypeNotFound)        → A0404
//	upstream (errx TypeExternal)         → C0001
//	missing relation (pq 42P01)          → B0101, nombra el módulo
//	wrapped business fault (1 nivel)     → re-clasifica la causa
//	todo lo demás                        → B0001 genérico + auditoría
func (d *Dispatcher) Classify(c *fiber.Ctx, err error) (int, result.Result) {
	// Fallo de negocio lanzado explícitamente: código y mensaje del
	// que lo lanzó. Aserción directa, no errors.As: los fallos envueltos
	// se tratan aparte con profundidad acotada.
	if be, ok := err.(*result.Error); ok {
		return d.businessResult(be)
	}

	// Campo con tipo incorrecto en el body JSON.
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		raw := d.rawValueFor(c, typeErr)
		return result.StatusOf(result.CodeParamType),
			result.ErrorCode(result.CodeParamType, typeErr.Field, raw)
	}

	// Body imparseable o directamente ausente.
	var synErr *json.SyntaxError
	if errors.As(err, &synErr) {
		if synErr.Offset == 0 {
			return result.StatusOf(result.CodeBadRequest),
				result.Errorf(result.CodeBadRequest, "request body is required")
		}
		return result.StatusOf(result.CodeBadRequest),
			result.ErrorCode(result.CodeBadRequest, result.Format("invalid JSON at offset {}", synErr.Offset))
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return result.StatusOf(result.CodeBadRequest),
			result.Errorf(result.CodeBadRequest, "request body is required")
	}

	// Parámetro de query/form con tipo incorrecto.
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return result.StatusOf(result.CodeParamType),
			result.Errorf(result.CodeParamType, "parameter has invalid value: {}", numErr.Num)
	}

	// Estados del framework: ruta inexistente, verbo no permitido,
	// payload demasiado grande, content-type no soportado.
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return d.frameworkResult(c, fe)
	}

	// Errores tipados del registro errx.
	var xe *errx.Error
	if errors.As(err, &xe) {
		switch {
		case errx.IsType(err, errx.TypeValidation):
			return result.StatusOf(result.CodeValidation), result.Failure(result.CodeValidation, xe.Error())
		case errx.IsType(err, errx.TypeAuthorization):
			d.auditDenial(c, xe)
			return result.StatusOf(result.CodeForbidden), result.Failure(result.CodeForbidden, xe.Error())
		case errx.IsType(err, errx.TypeNotFound):
			return result.StatusOf(result.CodeNotFound), result.ErrorCode(result.CodeNotFound, c.Path())
		case errx.IsType(err, errx.TypeExternal):
			return result.StatusOf(result.CodeUpstreamError), result.ErrorCode(result.CodeUpstreamError)
		case errx.IsType(err, errx.TypeBusiness), errx.IsType(err, errx.TypeConflict):
			return result.StatusOf(result.CodeBadRequest), result.Failure(result.CodeBadRequest, xe.Error())
		}
	}

	// Esquema sin provisionar: la relación no existe. Se nombra el
	// módulo opcional para ayudar al operador.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable {
		if module, ok := moduleForRelation(pqErr.Message); ok {
			return result.StatusOf(result.CodeModuleMissing),
				result.ErrorCode(result.CodeModuleMissing, module)
		}
	}

	// Fallo de negocio envuelto una capa por un wrapper genérico.
	cause := err
	for i := 0; i < maxCauseUnwrapDepth; i++ {
		cause = errors.Unwrap(cause)
		if cause == nil {
			break
		}
		if wrapped, ok := cause.(*result.Error); ok {
			return d.businessResult(wrapped)
		}
	}

	// Default: nunca filtrar detalles internos al caller.
	d.recordUnhandled(c, err)
	return result.StatusOf(result.CodeInternalError), result.ErrorCode(result.CodeInternalError)
}

func (d *Dispatcher) businessResult(be *result.Error) (int, result.Result) {
	if !d.isNoisy(be.Msg) {
		d.opts.Log.Warn("business fault %s: %s", be.Code, be.Msg)
	}

	// Códigos registrados usan su status; códigos de dominio desconocidos
	// se responden envelope-first con HTTP 200.
	status := fiber.StatusOK
	if info, ok := result.Registered(be.Code); ok {
		status = info.HTTPStatus
	}
	return status, be.Envelope()
}

func (d *Dispatcher) frameworkResult(c *fiber.Ctx, fe *fiber.Error) (int, result.Result) {
	switch fe.Code {
	case fiber.StatusNotFound:
		return result.StatusOf(result.CodeNotFound), result.ErrorCode(result.CodeNotFound, c.Path())
	case fiber.StatusMethodNotAllowed:
		allowed := string(c.Response().Header.Peek(fiber.HeaderAllow))
		if allowed == "" {
			return result.StatusOf(result.CodeMethodNotAllowed), result.ErrorCode(result.CodeMethodNotAllowed, c.Method())
		}
		return result.StatusOf(result.CodeMethodNotAllowed),
			result.Errorf(result.CodeMethodNotAllowed, "method {} not allowed, allowed: {}", c.Method(), allowed)
	case fiber.StatusRequestEntityTooLarge:
		return result.StatusOf(result.CodePayloadTooLarge), result.ErrorCode(result.CodePayloadTooLarge)
	case fiber.StatusUnsupportedMediaType:
		return result.StatusOf(result.CodeUnsupportedMedia), result.ErrorCode(result.CodeUnsupportedMedia)
	case fiber.StatusUnauthorized:
		return result.StatusOf(result.CodeUnauthorized), result.ErrorCode(result.CodeUnauthorized)
	case fiber.StatusForbidden:
		return result.StatusOf(result.CodeForbidden), result.Failure(result.CodeForbidden, fe.Message)
	}

	if fe.Code >= fiber.StatusInternalServerError {
		d.recordUnhandled(c, fe)
		return result.StatusOf(result.CodeInternalError), result.ErrorCode(result.CodeInternalError)
	}
	return fe.Code, result.Failure(result.CodeBadRequest, fe.Message)
}

// rawValueFor extrae el valor ofensivo del body cacheado usando el
// offset del error de tipo; sin cache se degrada a la descripción del
// tipo JSON.
func (d *Dispatcher) rawValueFor(c *fiber.Ctx, typeErr *json.UnmarshalTypeError) string {
	cb, ok := BodyCache(c)
	if !ok || typeErr.Offset <= 0 || typeErr.Offset > int64(cb.Len()) {
		return typeErr.Value
	}

	body := cb.Bytes()[:typeErr.Offset]
	start := len(body) - 1
	for start >= 0 {
		switch body[start] {
		case ':', ',', '[', '{':
			return trimJSONToken(string(body[start+1:]))
		}
		start--
	}
	return typeErr.Value
}

func trimJSONToken(tok string) string {
	tok = strings.TrimSpace(tok)
	return strings.Trim(tok, `"`)
}

func (d *Dispatcher) auditDenial(c *fiber.Ctx, xe *errx.Error) {
	userID, tenantID := identityFor(c)
	d.opts.Log.Warn("authorization denied user_id=%s tenant_id=%s path=%s: %v", userID, tenantID, c.Path(), xe)
}

func (d *Dispatcher) recordUnhandled(c *fiber.Ctx, err error) {
	traceID := ""
	if info, ok := RequestInfo(c); ok {
		traceID = info.TraceID
	}
	userID, tenantID := identityFor(c)

	d.opts.Log.Error("unhandled error trace_id=%s method=%s path=%s: %v", traceID, c.Method(), c.Path(), err)

	if d.opts.Sink != nil {
		d.opts.Sink.SubmitErrorLog(ErrorLogEntry{
			TraceID:  traceID,
			Method:   c.Method(),
			Path:     c.Path(),
			UserID:   userID,
			TenantID: tenantID,
			Msg:      err.Error(),
			At:       time.Now(),
		})
	}
}

func (d *Dispatcher) isNoisy(msg string) bool {
	for _, noisy := range d.opts.NoisyMessages {
		if msg == noisy {
			return true
		}
	}
	return false
}

func identityFor(c *fiber.Ctx) (string, string) {
	if auth, ok := CurrentAuth(c); ok {
		return auth.UserID.String(), auth.TenantID.String()
	}
	return "", ""
}

// pqUndefinedTable código SQLSTATE "relation does not exist"
const pqUndefinedTable = pq.ErrorCode("42P01")

// relationModules fragmentos de nombre de tabla → módulo opcional
var relationModules = []struct {
	fragment string
	module   string
}{
	{"operate_log", "operate-log"},
	{"error_log", "error-log"},
	{"users", "user"},
	{"sessions", "session"},
}

func moduleForRelation(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, rm := range relationModules {
		if strings.Contains(lower, rm.fragment) {
			return rm.module, true
		}
	}
	return "", false
}
