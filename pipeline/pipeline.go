// Package pipeline is the request-processing backbone: an ordered chain
// of filters installed on a Fiber app, plus the exception dispatcher that
// renders every failure as the uniform response envelope.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/gofiber/fiber/v2"
)

// Filter es una unidad del pipeline: puede inspeccionar, cortocircuitar o
// dejar pasar el request. Handler es middleware estilo Fiber: debe llamar
// c.Next() para continuar la cadena.
type Filter struct {
	Name  string
	Order int

	// Skip decide por request si el filtro aplica; nil = aplica siempre.
	// true = saltar este filtro.
	Skip func(c *fiber.Ctx) bool

	Handler fiber.Handler
}

// Pipeline mantiene el orden total de los filtros registrados. Se puebla
// una vez al inicio y es de solo lectura después de Apply.
type Pipeline struct {
	filters []Filter
	applied bool
}

// New crea un pipeline vacío
func New() *Pipeline {
	return &Pipeline{}
}

// Register agrega un filtro. Empates de Order conservan el orden de
// registro.
func (p *Pipeline) Register(f Filter) *Pipeline {
	if p.applied {
		panic("pipeline: register after apply")
	}
	p.filters = append(p.filters, f)
	return p
}

// Filters retorna los filtros en orden de ejecución.
func (p *Pipeline) Filters() []Filter {
	out := make([]Filter, len(p.filters))
	copy(out, p.filters)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Validate verifica que el orden registrado respete las dependencias
// documentadas en order.go. Se invoca al arrancar el servidor.
func (p *Pipeline) Validate() error {
	pos := make(map[string]int)
	for i, f := range p.Filters() {
		if _, dup := pos[f.Name]; dup {
			return fmt.Errorf("pipeline: duplicate filter %q", f.Name)
		}
		pos[f.Name] = i
	}

	for _, dep := range orderDependencies {
		before, after := dep[0], dep[1]
		bi, bok := pos[before]
		ai, aok := pos[after]
		if bok && aok && bi >= ai {
			return fmt.Errorf("pipeline: filter %q must run before %q", before, after)
		}
	}
	return nil
}

// Apply instala los filtros sobre la app en orden ascendente.
func (p *Pipeline) Apply(app *fiber.App) {
	for _, f := range p.Filters() {
		f := f
		app.Use(func(c *fiber.Ctx) error {
			if f.Skip != nil && f.Skip(c) {
				return c.Next()
			}
			return f.Handler(c)
		})
	}
	p.applied = true
}

// ============================================================================
// Response envelope slot & helpers
// ============================================================================

const resultLocalsKey = "response_result"

// JSON serializa el envelope y lo deja en el slot del request para que
// los filtros de logging que corren después puedan leerlo.
func JSON(c *fiber.Ctx, r result.Result) error {
	c.Locals(resultLocalsKey, r)
	return c.Status(statusFor(r)).JSON(r)
}

// ResponseResult lee el envelope ya serializado, si existe.
func ResponseResult(c *fiber.Ctx) (result.Result, bool) {
	r, ok := c.Locals(resultLocalsKey).(result.Result)
	return r, ok
}

func statusFor(r result.Result) int {
	if r.IsSuccess() {
		return fiber.StatusOK
	}
	return result.StatusOf(r.Code)
}

// CurrentAuth lee la identidad autenticada del request, si el filtro de
// autenticación ya corrió.
func CurrentAuth(c *fiber.Ctx) (*kernel.AuthContext, bool) {
	auth, ok := c.Locals(kernel.AuthLocalsKey).(*kernel.AuthContext)
	return auth, ok && auth != nil && auth.IsValid()
}
