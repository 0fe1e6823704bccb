package maintenance

import (
	"strings"
	"time"

	"inmogest-backend/internal/audit"
	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateRequestRequest struct {
	PropertyID  uint   `json:"property_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"` // low | medium | high
}

type UpdateRequestRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Priority    *string  `json:"priority"`
	Status      *string  `json:"status"`
	Cost        *float64 `json:"cost"`
}

type RequestResponse struct {
	ID           uint    `json:"id"`
	AgencyID     uint    `json:"agency_id"`
	PropertyID   uint    `json:"property_id"`
	PropertyName string  `json:"property_name,omitempty"`
	TenantID     *uint   `json:"tenant_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Priority     string  `json:"priority"`
	Status       string  `json:"status"`
	Cost         float64 `json:"cost"`
	ResolvedAt   *string `json:"resolved_at"`
	CreatedAt    string  `json:"created_at"`
}

func toResponse(r models.MaintenanceRequest) RequestResponse {
	var resolvedAt *string
	if r.ResolvedAt != nil {
		s := r.ResolvedAt.Format("2006-01-02 15:04:05")
		resolvedAt = &s
	}
	return RequestResponse{
		ID:           r.ID,
		AgencyID:     r.AgencyID,
		PropertyID:   r.PropertyID,
		PropertyName: r.Property.Name,
		TenantID:     r.TenantID,
		Title:        r.Title,
		Description:  r.Description,
		Priority:     string(r.Priority),
		Status:       string(r.Status),
		Cost:         r.Cost,
		ResolvedAt:   resolvedAt,
		CreatedAt:    r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// snapshot limpia las asociaciones para que el jsonb de auditoría
// guarde solo las columnas propias y el undo pueda restaurarlas.
func snapshot(r models.MaintenanceRequest) models.MaintenanceRequest {
	r.Agency = models.Agency{}
	r.Property = models.Property{}
	r.Tenant = nil
	return r
}

func writeAudit(actx auth.Context, r models.MaintenanceRequest, action models.AuditAction, desc string, before any) {
	var user models.User
	userName := ""
	if err := database.DB.First(&user, actx.UserID).Error; err == nil {
		userName = user.Name
	}

	agencyID := r.AgencyID
	var after any
	if action != models.AuditActionDelete {
		after = snapshot(r)
	}

	_ = audit.WriteLog(audit.LogOptions{
		AgencyID:    &agencyID,
		UserID:      actx.UserID,
		UserName:    userName,
		EntityType:  "maintenance_request",
		EntityID:    r.ID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

func parsePriority(s string) (models.MaintenancePriority, bool) {
	switch models.MaintenancePriority(s) {
	case models.MaintenancePriorityLow, models.MaintenancePriorityMedium, models.MaintenancePriorityHigh:
		return models.MaintenancePriority(s), true
	}
	return "", false
}

// POST /api/maintenance-requests
// Puede crearla la agencia o un inquilino (sobre un inmueble de sus contratos).
func CreateRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}
		if actx.Role == models.RoleOwner {
			return fiber.NewError(fiber.StatusForbidden, "Los propietarios no crean solicitudes de mantenimiento")
		}

		var body CreateRequestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		if strings.TrimSpace(body.Title) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El título no puede estar vacío")
		}

		var property models.Property
		if err := database.DB.First(&property, "id = ? AND agency_id = ?", body.PropertyID, agencyID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Inmueble no encontrado en la agencia")
		}

		var tenantID *uint
		if actx.Role == models.RoleTenant {
			var tenant models.Tenant
			if err := database.DB.Where("user_id = ?", actx.UserID).First(&tenant).Error; err != nil {
				return fiber.NewError(fiber.StatusForbidden, "No tienes una ficha de inquilino")
			}
			var count int64
			database.DB.Model(&models.Lease{}).
				Where("property_id = ? AND tenant_id = ?", property.ID, tenant.ID).
				Count(&count)
			if count == 0 {
				return fiber.NewError(fiber.StatusForbidden, "No tienes contratos sobre este inmueble")
			}
			tenantID = &tenant.ID
		}

		priority := models.MaintenancePriorityMedium
		if body.Priority != "" {
			p, ok := parsePriority(body.Priority)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Prioridad inválida (low|medium|high)")
			}
			priority = p
		}

		req := models.MaintenanceRequest{
			AgencyID:    agencyID,
			PropertyID:  property.ID,
			TenantID:    tenantID,
			Title:       strings.TrimSpace(body.Title),
			Description: strings.TrimSpace(body.Description),
			Priority:    priority,
			Status:      models.MaintenanceStatusOpen,
		}

		if err := database.DB.Create(&req).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar la solicitud")
		}

		req.Property = property
		writeAudit(actx, req, models.AuditActionCreate, "Solicitud creada: "+req.Title, nil)

		return c.Status(fiber.StatusCreated).JSON(toResponse(req))
	}
}

// GET /api/maintenance-requests?status=open&property_id=
func ListRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		q := database.DB.Preload("Property").
			Where("maintenance_requests.agency_id = ?", agencyID).
			Order("maintenance_requests.created_at DESC")

		switch actx.Role {
		case models.RoleOwner:
			q = q.Joins("JOIN properties ON properties.id = maintenance_requests.property_id").
				Joins("JOIN owners ON owners.id = properties.owner_id").
				Where("owners.user_id = ?", actx.UserID)
		case models.RoleTenant:
			q = q.Joins("JOIN tenants ON tenants.id = maintenance_requests.tenant_id").
				Where("tenants.user_id = ?", actx.UserID)
		}

		if status := c.Query("status"); status != "" {
			q = q.Where("maintenance_requests.status = ?", status)
		}
		if propertyID := c.Query("property_id"); propertyID != "" {
			q = q.Where("maintenance_requests.property_id = ?", propertyID)
		}

		var requests []models.MaintenanceRequest
		if err := q.Find(&requests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las solicitudes")
		}

		resp := make([]RequestResponse, 0, len(requests))
		for _, r := range requests {
			resp = append(resp, toResponse(r))
		}
		return c.JSON(resp)
	}
}

// GET /api/maintenance-requests/:id
func GetRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, _, err := loadRequestForRequest(c)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*req))
	}
}

// PUT /api/maintenance-requests/:id
// Transiciones de estado: open -> in_progress -> resolved; open/in_progress -> cancelled.
func UpdateRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, actx, err := loadRequestForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede gestionar solicitudes")
		}

		var body UpdateRequestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		before := snapshot(*req)
		updates := map[string]interface{}{}

		if body.Title != nil {
			if strings.TrimSpace(*body.Title) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "El título no puede estar vacío")
			}
			updates["title"] = strings.TrimSpace(*body.Title)
		}
		if body.Description != nil {
			updates["description"] = strings.TrimSpace(*body.Description)
		}
		if body.Priority != nil {
			p, ok := parsePriority(*body.Priority)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Prioridad inválida (low|medium|high)")
			}
			updates["priority"] = p
		}
		if body.Cost != nil {
			if *body.Cost < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "El costo no puede ser negativo")
			}
			updates["cost"] = *body.Cost
		}
		if body.Status != nil {
			next := models.MaintenanceStatus(*body.Status)
			if !validTransition(req.Status, next) {
				return fiber.NewError(fiber.StatusConflict, "Transición de estado inválida")
			}
			updates["status"] = next
			if next == models.MaintenanceStatusResolved {
				now := time.Now()
				updates["resolved_at"] = &now
			}
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No hay campos para actualizar")
		}

		if err := database.DB.Model(req).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la solicitud")
		}

		var updated models.MaintenanceRequest
		if err := database.DB.Preload("Property").First(&updated, req.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer la solicitud actualizada")
		}

		writeAudit(actx, updated, models.AuditActionUpdate, "Solicitud editada: "+updated.Title, before)

		return c.JSON(toResponse(updated))
	}
}

func validTransition(from, to models.MaintenanceStatus) bool {
	switch from {
	case models.MaintenanceStatusOpen:
		return to == models.MaintenanceStatusInProgress || to == models.MaintenanceStatusResolved || to == models.MaintenanceStatusCancelled
	case models.MaintenanceStatusInProgress:
		return to == models.MaintenanceStatusResolved || to == models.MaintenanceStatusCancelled
	}
	return false
}

// DELETE /api/maintenance-requests/:id
func DeleteRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, actx, err := loadRequestForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar solicitudes")
		}

		before := snapshot(*req)

		if err := database.DB.Delete(&models.MaintenanceRequest{}, req.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la solicitud")
		}

		writeAudit(actx, *req, models.AuditActionDelete, "Solicitud eliminada: "+req.Title, before)

		return c.JSON(fiber.Map{"deleted": req.ID})
	}
}

func loadRequestForRequest(c *fiber.Ctx) (*models.MaintenanceRequest, auth.Context, error) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return nil, actx, err
	}
	agencyID, err := actx.RequireAgency()
	if err != nil {
		return nil, actx, err
	}

	id := c.Params("id")

	var req models.MaintenanceRequest
	if err := database.DB.Preload("Property").First(&req, "id = ?", id).Error; err != nil {
		return nil, actx, fiber.NewError(fiber.StatusNotFound, "Solicitud no encontrada")
	}
	if req.AgencyID != agencyID {
		return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta solicitud")
	}

	switch actx.Role {
	case models.RoleOwner:
		var owner models.Owner
		if err := database.DB.Where("user_id = ?", actx.UserID).First(&owner).Error; err != nil || owner.ID != req.Property.OwnerID {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta solicitud")
		}
	case models.RoleTenant:
		var tenant models.Tenant
		if err := database.DB.Where("user_id = ?", actx.UserID).First(&tenant).Error; err != nil || req.TenantID == nil || *req.TenantID != tenant.ID {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta solicitud")
		}
	}

	return &req, actx, nil
}
