package owner

import (
	"strings"

	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateOwnerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Cedula string `json:"cedula"`
	Notes  string `json:"notes"`
}

type UpdateOwnerRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Cedula *string `json:"cedula"`
	Notes  *string `json:"notes"`
}

type OwnerResponse struct {
	ID         uint   `json:"id"`
	AgencyID   uint   `json:"agency_id"`
	UserID     *uint  `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Cedula     string `json:"cedula"`
	Notes      string `json:"notes"`
	Properties int    `json:"properties"`
	CreatedAt  string `json:"created_at"`
}

func toResponse(o models.Owner) OwnerResponse {
	return OwnerResponse{
		ID:         o.ID,
		AgencyID:   o.AgencyID,
		UserID:     o.UserID,
		Name:       o.Name,
		Email:      o.Email,
		Phone:      o.Phone,
		Cedula:     o.Cedula,
		Notes:      o.Notes,
		Properties: len(o.Properties),
		CreatedAt:  o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/owners
func CreateOwnerHandler() fiber.Handler {
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
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede registrar propietarios")
		}

		var body CreateOwnerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre no puede estar vacío")
		}

		owner := models.Owner{
			AgencyID: agencyID,
			Name:     strings.TrimSpace(body.Name),
			Email:    strings.TrimSpace(body.Email),
			Phone:    strings.TrimSpace(body.Phone),
			Cedula:   strings.TrimSpace(body.Cedula),
			Notes:    strings.TrimSpace(body.Notes),
		}

		if err := database.DB.Create(&owner).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el propietario")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(owner))
	}
}

// GET /api/owners
func ListOwnersHandler() fiber.Handler {
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
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede listar propietarios")
		}

		var owners []models.Owner
		if err := database.DB.Preload("Properties").
			Where("agency_id = ?", agencyID).
			Order("name ASC").
			Find(&owners).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los propietarios")
		}

		resp := make([]OwnerResponse, 0, len(owners))
		for _, o := range owners {
			resp = append(resp, toResponse(o))
		}
		return c.JSON(resp)
	}
}

// GET /api/owners/:id
// Un usuario con rol "owner" solo puede consultar su propia ficha.
func GetOwnerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, actx, err := loadOwnerForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role == models.RoleTenant {
			return fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta ficha")
		}
		return c.JSON(toResponse(*owner))
	}
}

// PUT /api/owners/:id
func UpdateOwnerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, actx, err := loadOwnerForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede editar propietarios")
		}

		var body UpdateOwnerRequest
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

		if err := database.DB.Model(owner).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el propietario")
		}

		var updated models.Owner
		if err := database.DB.Preload("Properties").First(&updated, owner.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el propietario actualizado")
		}
		return c.JSON(toResponse(updated))
	}
}

// DELETE /api/owners/:id
func DeleteOwnerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, actx, err := loadOwnerForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar propietarios")
		}

		var propertyCount int64
		database.DB.Model(&models.Property{}).Where("owner_id = ?", owner.ID).Count(&propertyCount)
		if propertyCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "El propietario tiene inmuebles asociados")
		}

		if err := database.DB.Delete(&models.Owner{}, owner.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el propietario")
		}
		return c.JSON(fiber.Map{"deleted": owner.ID})
	}
}

func loadOwnerForRequest(c *fiber.Ctx) (*models.Owner, auth.Context, error) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return nil, actx, err
	}
	agencyID, err := actx.RequireAgency()
	if err != nil {
		return nil, actx, err
	}

	id := c.Params("id")

	var owner models.Owner
	if err := database.DB.Preload("Properties").First(&owner, "id = ?", id).Error; err != nil {
		return nil, actx, fiber.NewError(fiber.StatusNotFound, "Propietario no encontrado")
	}
	if owner.AgencyID != agencyID {
		return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta ficha")
	}

	if actx.Role == models.RoleOwner {
		if owner.UserID == nil || *owner.UserID != actx.UserID {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta ficha")
		}
	}

	return &owner, actx, nil
}
