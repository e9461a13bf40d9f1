package authinfra

import (
	"github.com/Abraxas-365/bastion/iam/auth"
	"github.com/Abraxas-365/craftable/errx"
	"golang.org/x/crypto/bcrypt"
)

// bcryptPasswords hashea y verifica credenciales con bcrypt
type bcryptPasswords struct {
	cost int
}

// NewBcryptPasswordService crea el servicio de contraseñas con el costo
// configurado. Costos fuera del rango soportado por bcrypt caen al costo
// por defecto de la librería.
func NewBcryptPasswordService(cost int) auth.PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptPasswords{cost: cost}
}

// HashPassword deriva el hash almacenable de la contraseña
func (s *bcryptPasswords) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}
	return string(hashed), nil
}

// VerifyPassword compara la contraseña contra el hash almacenado
func (s *bcryptPasswords) VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
