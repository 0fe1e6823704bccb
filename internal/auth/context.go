package auth

import (
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Context: contexto de autenticación explícito de una petición.
// Antes cada handler leía la sesión por su cuenta; concentrarlo aquí
// permite probar los servicios (sincronizador, reportes) sin sesión viva.
type Context struct {
	UserID   uint
	Email    string
	Role     models.UserRole
	AgencyID *uint
}

// FromRequest arma el Context desde los locals que dejó el JWTMiddleware.
func FromRequest(c *fiber.Ctx) (Context, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok || userID == 0 {
		return Context{}, fiber.NewError(fiber.StatusUnauthorized, "No autenticado")
	}

	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return Context{}, fiber.NewError(fiber.StatusForbidden, "No se pudo obtener el rol")
	}

	actx := Context{UserID: userID, Role: role}

	if email, ok := c.Locals(CtxUserEmail).(string); ok {
		actx.Email = email
	}
	if aPtr, ok := c.Locals(CtxAgencyIDKey).(*uint); ok && aPtr != nil {
		actx.AgencyID = aPtr
	}

	return actx, nil
}

// RequireAgency devuelve el agency id del contexto o un error 403.
// Todos los roles de este sistema pertenecen a una agencia.
func (a Context) RequireAgency() (uint, error) {
	if a.AgencyID == nil {
		return 0, fiber.NewError(fiber.StatusForbidden, "No se encontró la agencia del usuario")
	}
	return *a.AgencyID, nil
}

// IsMasterAdmin: el correo configurado como administrador maestro puede
// operar sobre todas las agencias.
func (a Context) IsMasterAdmin(masterEmail string) bool {
	return masterEmail != "" && a.Email == masterEmail
}
