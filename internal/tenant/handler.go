package tenant

import (
	"strings"

	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateTenantRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Cedula string `json:"cedula"`
	Notes  string `json:"notes"`
}

type UpdateTenantRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Cedula *string `json:"cedula"`
	Notes  *string `json:"notes"`
}

type TenantResponse struct {
	ID        uint   `json:"id"`
	AgencyID  uint   `json:"agency_id"`
	UserID    *uint  `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Cedula    string `json:"cedula"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

func toResponse(t models.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID,
		AgencyID:  t.AgencyID,
		UserID:    t.UserID,
		Name:      t.Name,
		Email:     t.Email,
		Phone:     t.Phone,
		Cedula:    t.Cedula,
		Notes:     t.Notes,
		CreatedAt: t.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/tenants
func CreateTenantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede registrar inquilinos")
		}

		var body CreateTenantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre no puede estar vacío")
		}

		tenant := models.Tenant{
			AgencyID: agencyID,
			Name:     strings.TrimSpace(body.Name),
			Email:    strings.TrimSpace(body.Email),
			Phone:    strings.TrimSpace(body.Phone),
			Cedula:   strings.TrimSpace(body.Cedula),
			Notes:    strings.TrimSpace(body.Notes),
		}

		if err := database.DB.Create(&tenant).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el inquilino")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(tenant))
	}
}

// GET /api/tenants
func ListTenantsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede listar inquilinos")
		}

		var tenants []models.Tenant
		if err := database.DB.Where("agency_id = ?", agencyID).Order("name ASC").Find(&tenants).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los inquilinos")
		}

		resp := make([]TenantResponse, 0, len(tenants))
		for _, t := range tenants {
			resp = append(resp, toResponse(t))
		}
		return c.JSON(resp)
	}
}

// GET /api/tenants/:id
// Un usuario con rol "tenant" solo ve su propia ficha.
func GetTenantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenant, actx, err := loadTenantForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role == models.RoleOwner {
			return fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta ficha")
		}
		return c.JSON(toResponse(*tenant))
	}
}

// PUT /api/tenants/:id
func UpdateTenantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenant, actx, err := loadTenantForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede editar inquilinos")
		}

		var body UpdateTenantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		updates := map[string]interface{}{}
		if body.Name != nil {
			if strings.TrimSpace(*body.Name) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "El nombre no puede estar vacío")
			}
			updates["name"] = strings.TrimSpace(*body.Name)
		}
		if body.Email != nil {
			updates["email"] = strings.TrimSpace(*body.Email)
		}
		if body.Phone != nil {
			updates["phone"] = strings.TrimSpace(*body.Phone)
		}
		if body.Cedula != nil {
			updates["cedula"] = strings.TrimSpace(*body.Cedula)
		}
		if body.Notes != nil {
			updates["notes"] = strings.TrimSpace(*body.Notes)
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No hay campos para actualizar")
		}

		if err := database.DB.Model(tenant).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el inquilino")
		}

		var updated models.Tenant
		if err := database.DB.First(&updated, tenant.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el inquilino actualizado")
		}
		return c.JSON(toResponse(updated))
	}
}

// DELETE /api/tenants/:id
func DeleteTenantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenant, actx, err := loadTenantForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar inquilinos")
		}

		var activeLeases int64
		database.DB.Model(&models.Lease{}).
			Where("tenant_id = ? AND status = ?", tenant.ID, models.LeaseStatusActive).
			Count(&activeLeases)
		if activeLeases > 0 {
			return fiber.NewError(fiber.StatusConflict, "El inquilino tiene contratos vigentes")
		}

		if err := database.DB.Delete(&models.Tenant{}, tenant.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el inquilino")
		}
		return c.JSON(fiber.Map{"deleted": tenant.ID})
	}
}

func loadTenantForRequest(c *fiber.Ctx) (*models.Tenant, auth.Context, error) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return nil, actx, err
	}
	agencyID, err := actx.RequireAgency()
	if err != nil {
		return nil, actx, err
	}

	id := c.Params("id")

	var tenant models.Tenant
	if err := database.DB.First(&tenant, "id = ?", id).Error; err != nil {
		return nil, actx, fiber.NewError(fiber.StatusNotFound, "Inquilino no encontrado")
	}
	if tenant.AgencyID != agencyID {
		return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta ficha")
	}

	if actx.Role == models.RoleTenant {
		if tenant.UserID == nil || *tenant.UserID != actx.UserID {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta ficha")
		}
	}

	return &tenant, actx, nil
}
