package property

import (
	"strings"

	"inmogest-backend/internal/audit"
	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreatePropertyRequest struct {
	OwnerID     uint   `json:"owner_id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Type        string `json:"type"`
	Bedrooms    int    `json:"bedrooms"`
	Bathrooms   int    `json:"bathrooms"`
	Description string `json:"description"`
}

type UpdatePropertyRequest struct {
	OwnerID     *uint   `json:"owner_id"`
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Type        *string `json:"type"`
	Bedrooms    *int    `json:"bedrooms"`
	Bathrooms   *int    `json:"bathrooms"`
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

type PropertyResponse struct {
	ID          uint   `json:"id"`
	AgencyID    uint   `json:"agency_id"`
	OwnerID     uint   `json:"owner_id"`
	OwnerName   string `json:"owner_name,omitempty"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Type        string `json:"type"`
	Bedrooms    int    `json:"bedrooms"`
	Bathrooms   int    `json:"bathrooms"`
	Status      string `json:"status"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toResponse(p models.Property) PropertyResponse {
	return PropertyResponse{
		ID:          p.ID,
		AgencyID:    p.AgencyID,
		OwnerID:     p.OwnerID,
		OwnerName:   p.Owner.Name,
		Name:        p.Name,
		Address:     p.Address,
		City:        p.City,
		Type:        p.Type,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		Status:      string(p.Status),
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:   p.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// snapshot limpia las asociaciones para que el jsonb de auditoría
// guarde solo las columnas propias y el undo pueda restaurarlas.
func snapshot(p models.Property) models.Property {
	p.Agency = models.Agency{}
	p.Owner = models.Owner{}
	return p
}

func writeAudit(actx auth.Context, p models.Property, action models.AuditAction, desc string, before any) {
	var user models.User
	userName := ""
	if err := database.DB.First(&user, actx.UserID).Error; err == nil {
		userName = user.Name
	}

	agencyID := p.AgencyID
	var after any
	if action != models.AuditActionDelete {
		after = snapshot(p)
	}

	_ = audit.WriteLog(audit.LogOptions{
		AgencyID:    &agencyID,
		UserID:      actx.UserID,
		UserName:    userName,
		EntityType:  "property",
		EntityID:    p.ID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// -------------------------
// Property CRUD
// -------------------------

// POST /api/properties
func CreatePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		var body CreatePropertyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre no puede estar vacío")
		}
		if body.OwnerID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "owner_id es obligatorio")
		}

		// El propietario debe pertenecer a la misma agencia
		var owner models.Owner
		if err := database.DB.First(&owner, "id = ? AND agency_id = ?", body.OwnerID, agencyID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Propietario no encontrado en la agencia")
		}

		property := models.Property{
			AgencyID:    agencyID,
			OwnerID:     body.OwnerID,
			Name:        strings.TrimSpace(body.Name),
			Address:     strings.TrimSpace(body.Address),
			City:        strings.TrimSpace(body.City),
			Type:        body.Type,
			Bedrooms:    body.Bedrooms,
			Bathrooms:   body.Bathrooms,
			Status:      models.PropertyStatusAvailable,
			Description: strings.TrimSpace(body.Description),
		}

		if err := database.DB.Create(&property).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el inmueble")
		}

		property.Owner = owner
		writeAudit(actx, property, models.AuditActionCreate, "Inmueble creado: "+property.Name, nil)

		return c.Status(fiber.StatusCreated).JSON(toResponse(property))
	}
}

// GET /api/properties
// agency_admin ve todos los de su agencia; un propietario solo los suyos;
// un inquilino los inmuebles de sus contratos.
func ListPropertiesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		q := database.DB.Preload("Owner").Where("properties.agency_id = ?", agencyID).Order("properties.id ASC")

		switch actx.Role {
		case models.RoleOwner:
			q = q.Joins("JOIN owners ON owners.id = properties.owner_id").
				Where("owners.user_id = ?", actx.UserID)
		case models.RoleTenant:
			q = q.Joins("JOIN leases ON leases.property_id = properties.id").
				Joins("JOIN tenants ON tenants.id = leases.tenant_id").
				Where("tenants.user_id = ?", actx.UserID).
				Distinct()
		}

		var properties []models.Property
		if err := q.Find(&properties).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los inmuebles")
		}

		resp := make([]PropertyResponse, 0, len(properties))
		for _, p := range properties {
			resp = append(resp, toResponse(p))
		}
		return c.JSON(resp)
	}
}

// GET /api/properties/:id
func GetPropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		property, _, err := loadPropertyForRequest(c)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*property))
	}
}

// PUT /api/properties/:id
func UpdatePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		property, actx, err := loadPropertyForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede editar inmuebles")
		}

		var body UpdatePropertyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		before := snapshot(*property)
		updates := map[string]interface{}{}

		if body.OwnerID != nil {
			var owner models.Owner
			if err := database.DB.First(&owner, "id = ? AND agency_id = ?", *body.OwnerID, property.AgencyID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Propietario no encontrado en la agencia")
			}
			updates["owner_id"] = *body.OwnerID
		}
		if body.Name != nil {
			if strings.TrimSpace(*body.Name) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "El nombre no puede estar vacío")
			}
			updates["name"] = strings.TrimSpace(*body.Name)
		}
		if body.Address != nil {
			updates["address"] = strings.TrimSpace(*body.Address)
		}
		if body.City != nil {
			updates["city"] = strings.TrimSpace(*body.City)
		}
		if body.Type != nil {
			updates["type"] = *body.Type
		}
		if body.Bedrooms != nil {
			updates["bedrooms"] = *body.Bedrooms
		}
		if body.Bathrooms != nil {
			updates["bathrooms"] = *body.Bathrooms
		}
		if body.Status != nil {
			switch models.PropertyStatus(*body.Status) {
			case models.PropertyStatusAvailable, models.PropertyStatusRented, models.PropertyStatusMaintenance:
				updates["status"] = *body.Status
			default:
				return fiber.NewError(fiber.StatusBadRequest, "Estado inválido (available|rented|maintenance)")
			}
		}
		if body.Description != nil {
			updates["description"] = strings.TrimSpace(*body.Description)
		}

		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No hay campos para actualizar")
		}

		if err := database.DB.Model(property).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el inmueble")
		}

		var updated models.Property
		if err := database.DB.Preload("Owner").First(&updated, property.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el inmueble actualizado")
		}

		writeAudit(actx, updated, models.AuditActionUpdate, "Inmueble editado: "+updated.Name, before)

		return c.JSON(toResponse(updated))
	}
}

// DELETE /api/properties/:id
func DeletePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		property, actx, err := loadPropertyForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar inmuebles")
		}

		// No se elimina un inmueble con contratos vigentes
		var activeLeases int64
		database.DB.Model(&models.Lease{}).
			Where("property_id = ? AND status = ?", property.ID, models.LeaseStatusActive).
			Count(&activeLeases)
		if activeLeases > 0 {
			return fiber.NewError(fiber.StatusConflict, "El inmueble tiene contratos vigentes")
		}

		before := snapshot(*property)

		if err := database.DB.Delete(&models.Property{}, property.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el inmueble")
		}

		writeAudit(actx, *property, models.AuditActionDelete, "Inmueble eliminado: "+property.Name, before)

		return c.JSON(fiber.Map{"deleted": property.ID})
	}
}

// loadPropertyForRequest carga el inmueble validando agencia y rol.
func loadPropertyForRequest(c *fiber.Ctx) (*models.Property, auth.Context, error) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return nil, actx, err
	}
	agencyID, err := actx.RequireAgency()
	if err != nil {
		return nil, actx, err
	}

	id := c.Params("id")

	var property models.Property
	if err := database.DB.Preload("Owner").First(&property, "id = ?", id).Error; err != nil {
		return nil, actx, fiber.NewError(fiber.StatusNotFound, "Inmueble no encontrado")
	}
	if property.AgencyID != agencyID {
		return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este inmueble")
	}

	if actx.Role == models.RoleOwner {
		var owner models.Owner
		if err := database.DB.Where("user_id = ?", actx.UserID).First(&owner).Error; err != nil || owner.ID != property.OwnerID {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este inmueble")
		}
	}
	if actx.Role == models.RoleTenant {
		var count int64
		database.DB.Model(&models.Lease{}).
			Joins("JOIN tenants ON tenants.id = leases.tenant_id").
			Where("leases.property_id = ? AND tenants.user_id = ?", property.ID, actx.UserID).
			Count(&count)
		if count == 0 {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este inmueble")
		}
	}

	return &property, actx, nil
}
