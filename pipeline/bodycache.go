package pipeline

import (
	"bytes"
	"io"
	"strings"

	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/gofiber/fiber/v2"
)

// CachedBody es la copia en memoria, de una sola escritura, del body de
// un request. Cada OpenReader entrega un lector independiente desde el
// offset 0; el buffer nunca se modifica después de la construcción.
type CachedBody struct {
	buf []byte
}

// NewCachedBody drena el stream completo. Si la lectura falla no se
// conserva ninguna cache parcial.
func NewCachedBody(r io.Reader) (*CachedBody, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &CachedBody{buf: buf}, nil
}

// CachedBodyFromBytes construye la cache sobre bytes ya drenados.
func CachedBodyFromBytes(b []byte) *CachedBody {
	return &CachedBody{buf: b}
}

// OpenReader retorna un lector nuevo e independiente desde el offset 0.
// Puede llamarse cualquier número de veces, concurrente o secuencial.
func (cb *CachedBody) OpenReader() io.Reader {
	return bytes.NewReader(cb.buf)
}

// Len retorna el tamaño exacto cacheado (no el Content-Length declarado).
func (cb *CachedBody) Len() int {
	return len(cb.buf)
}

// Bytes expone el buffer cacheado; los llamadores no deben modificarlo.
func (cb *CachedBody) Bytes() []byte {
	return cb.buf
}

const bodyCacheLocalsKey = "body_cache"

// BodyCache lee la cache instalada por el filtro, si existe.
func BodyCache(c *fiber.Ctx) (*CachedBody, bool) {
	cb, ok := c.Locals(bodyCacheLocalsKey).(*CachedBody)
	return cb, ok && cb != nil
}

// NewBodyCacheFilter instala la cache del body para requests JSON,
// excluyendo los prefijos configurados (endpoints de streaming, health).
// Corre una sola vez por request aunque haya forwards internos.
func NewBodyCacheFilter(excludedPrefixes []string) Filter {
	return Filter{
		Name:  FilterBodyCache,
		Order: OrderBodyCache,
		Skip: func(c *fiber.Ctx) bool {
			path := c.Path()
			for _, prefix := range excludedPrefixes {
				if strings.HasPrefix(path, prefix) {
					return true
				}
			}
			return !isJSONContent(c.Get(fiber.HeaderContentType))
		},
		Handler: func(c *fiber.Ctx) error {
			if _, done := BodyCache(c); done {
				return c.Next()
			}

			var cb *CachedBody
			if c.Request().IsBodyStream() {
				// El stream del transporte se agota exactamente una vez;
				// un fallo de drenado es fatal para el request.
				drained, err := NewCachedBody(c.Context().RequestBodyStream())
				if err != nil {
					return result.NewError(result.CodeBadRequest, "failed to read request body: {}", err)
				}
				cb = drained
			} else {
				cb = CachedBodyFromBytes(c.Body())
			}

			c.Locals(bodyCacheLocalsKey, cb)
			// Todas las etapas posteriores leen desde la cache.
			c.Request().SetBodyRaw(cb.Bytes())
			return c.Next()
		},
	}
}

func isJSONContent(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(ct, fiber.MIMEApplicationJSON)
}
