package lease

import (
	"time"

	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateLeaseRequest struct {
	PropertyID  uint    `json:"property_id"`
	TenantID    uint    `json:"tenant_id"`
	StartDate   string  `json:"start_date"` // "2025-01-01"
	EndDate     string  `json:"end_date"`
	MonthlyRent float64 `json:"monthly_rent"`
	Currency    string  `json:"currency"`
	Deposit     float64 `json:"deposit"`
	Notes       string  `json:"notes"`
}

type UpdateLeaseRequest struct {
	StartDate   *string  `json:"start_date"`
	EndDate     *string  `json:"end_date"`
	MonthlyRent *float64 `json:"monthly_rent"`
	Currency    *string  `json:"currency"`
	Deposit     *float64 `json:"deposit"`
	Notes       *string  `json:"notes"`
}

type LeaseResponse struct {
	ID           uint    `json:"id"`
	AgencyID     uint    `json:"agency_id"`
	PropertyID   uint    `json:"property_id"`
	PropertyName string  `json:"property_name,omitempty"`
	TenantID     uint    `json:"tenant_id"`
	TenantName   string  `json:"tenant_name,omitempty"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	MonthlyRent  float64 `json:"monthly_rent"`
	Currency     string  `json:"currency"`
	Deposit      float64 `json:"deposit"`
	Status       string  `json:"status"`
	Notes        string  `json:"notes"`
	CreatedAt    string  `json:"created_at"`
}

func toResponse(l models.Lease) LeaseResponse {
	return LeaseResponse{
		ID:           l.ID,
		AgencyID:     l.AgencyID,
		PropertyID:   l.PropertyID,
		PropertyName: l.Property.Name,
		TenantID:     l.TenantID,
		TenantName:   l.Tenant.Name,
		StartDate:    l.StartDate.Format("2006-01-02"),
		EndDate:      l.EndDate.Format("2006-01-02"),
		MonthlyRent:  l.MonthlyRent,
		Currency:     string(l.Currency),
		Deposit:      l.Deposit,
		Status:       string(l.Status),
		Notes:        l.Notes,
		CreatedAt:    l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

func parseCurrency(s string) (models.Currency, bool) {
	switch models.Currency(s) {
	case models.CurrencyUSD, models.CurrencyDOP:
		return models.Currency(s), true
	}
	return "", false
}

// POST /api/leases
func CreateLeaseHandler() fiber.Handler {
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
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede crear contratos")
		}

		var body CreateLeaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		var property models.Property
		if err := database.DB.First(&property, "id = ? AND agency_id = ?", body.PropertyID, agencyID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Inmueble no encontrado en la agencia")
		}
		var tenant models.Tenant
		if err := database.DB.First(&tenant, "id = ? AND agency_id = ?", body.TenantID, agencyID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Inquilino no encontrado en la agencia")
		}

		start, err := parseDate(body.StartDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "start_date inválida (formato: 2006-01-02)")
		}
		end, err := parseDate(body.EndDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "end_date inválida (formato: 2006-01-02)")
		}
		if !end.After(start) {
			return fiber.NewError(fiber.StatusBadRequest, "end_date debe ser posterior a start_date")
		}
		if body.MonthlyRent <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El alquiler mensual debe ser mayor a cero")
		}
		currency, ok := parseCurrency(body.Currency)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Moneda inválida (USD|DOP)")
		}

		// No puede haber dos contratos vigentes sobre el mismo inmueble
		var active int64
		database.DB.Model(&models.Lease{}).
			Where("property_id = ? AND status = ?", property.ID, models.LeaseStatusActive).
			Count(&active)
		if active > 0 {
			return fiber.NewError(fiber.StatusConflict, "El inmueble ya tiene un contrato vigente")
		}

		lease := models.Lease{
			AgencyID:    agencyID,
			PropertyID:  property.ID,
			TenantID:    tenant.ID,
			StartDate:   start,
			EndDate:     end,
			MonthlyRent: body.MonthlyRent,
			Currency:    currency,
			Deposit:     body.Deposit,
			Status:      models.LeaseStatusActive,
			Notes:       body.Notes,
		}

		if err := database.DB.Create(&lease).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el contrato")
		}

		database.DB.Model(&property).Update("status", models.PropertyStatusRented)

		lease.Property = property
		lease.Tenant = tenant
		return c.Status(fiber.StatusCreated).JSON(toResponse(lease))
	}
}

// GET /api/leases?status=active
// agency_admin ve todos; propietario los de sus inmuebles; inquilino los suyos.
func ListLeasesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		q := database.DB.Preload("Property").Preload("Tenant").
			Where("leases.agency_id = ?", agencyID).
			Order("leases.end_date ASC")

		switch actx.Role {
		case models.RoleOwner:
			q = q.Joins("JOIN properties ON properties.id = leases.property_id").
				Joins("JOIN owners ON owners.id = properties.owner_id").
				Where("owners.user_id = ?", actx.UserID)
		case models.RoleTenant:
			q = q.Joins("JOIN tenants ON tenants.id = leases.tenant_id").
				Where("tenants.user_id = ?", actx.UserID)
		}

		if status := c.Query("status"); status != "" {
			q = q.Where("leases.status = ?", status)
		}

		var leases []models.Lease
		if err := q.Find(&leases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los contratos")
		}

		resp := make([]LeaseResponse, 0, len(leases))
		for _, l := range leases {
			resp = append(resp, toResponse(l))
		}
		return c.JSON(resp)
	}
}

// GET /api/leases/:id
func GetLeaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lease, _, err := loadLeaseForRequest(c)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*lease))
	}
}

// PUT /api/leases/:id
func UpdateLeaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lease, actx, err := loadLeaseForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede editar contratos")
		}
		if lease.Status == models.LeaseStatusTerminated {
			return fiber.NewError(fiber.StatusConflict, "No se puede editar un contrato rescindido")
		}

		var body UpdateLeaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		updates := map[string]interface{}{}
		start := lease.StartDate
		end := lease.EndDate

		if body.StartDate != nil {
			d, err := parseDate(*body.StartDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "start_date inválida (formato: 2006-01-02)")
			}
			start = d
			updates["start_date"] = d
		}
		if body.EndDate != nil {
			d, err := parseDate(*body.EndDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "end_date inválida (formato: 2006-01-02)")
			}
			end = d
			updates["end_date"] = d
		}
		if !end.After(start) {
			return fiber.NewError(fiber.StatusBadRequest, "end_date debe ser posterior a start_date")
		}
		if body.MonthlyRent != nil {
			if *body.MonthlyRent <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "El alquiler mensual debe ser mayor a cero")
			}
			updates["monthly_rent"] = *body.MonthlyRent
		}
		if body.Currency != nil {
			currency, ok := parseCurrency(*body.Currency)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Moneda inválida (USD|DOP)")
			}
			updates["currency"] = currency
		}
		if body.Deposit != nil {
			updates["deposit"] = *body.Deposit
		}
		if body.Notes != nil {
			updates["notes"] = *body.Notes
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No hay campos para actualizar")
		}

		if err := database.DB.Model(lease).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el contrato")
		}

		var updated models.Lease
		if err := database.DB.Preload("Property").Preload("Tenant").First(&updated, lease.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el contrato actualizado")
		}
		return c.JSON(toResponse(updated))
	}
}

// PUT /api/leases/:id/terminate
// Marca el contrato como rescindido y libera el inmueble. Los eventos de
// vencimiento asociados se limpian en la próxima sincronización del calendario.
func TerminateLeaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lease, actx, err := loadLeaseForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede rescindir contratos")
		}
		if lease.Status == models.LeaseStatusTerminated {
			return fiber.NewError(fiber.StatusConflict, "El contrato ya está rescindido")
		}

		if err := database.DB.Model(lease).Update("status", models.LeaseStatusTerminated).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo rescindir el contrato")
		}

		database.DB.Model(&models.Property{}).
			Where("id = ?", lease.PropertyID).
			Update("status", models.PropertyStatusAvailable)

		var updated models.Lease
		if err := database.DB.Preload("Property").Preload("Tenant").First(&updated, lease.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el contrato")
		}
		return c.JSON(toResponse(updated))
	}
}

// DELETE /api/leases/:id
func DeleteLeaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lease, actx, err := loadLeaseForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar contratos")
		}
		if lease.Status == models.LeaseStatusActive {
			return fiber.NewError(fiber.StatusConflict, "Primero rescinde el contrato")
		}

		if err := database.DB.Delete(&models.Lease{}, lease.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el contrato")
		}
		return c.JSON(fiber.Map{"deleted": lease.ID})
	}
}

func loadLeaseForRequest(c *fiber.Ctx) (*models.Lease, auth.Context, error) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return nil, actx, err
	}
	agencyID, err := actx.RequireAgency()
	if err != nil {
		return nil, actx, err
	}

	id := c.Params("id")

	var lease models.Lease
	if err := database.DB.Preload("Property").Preload("Tenant").First(&lease, "id = ?", id).Error; err != nil {
		return nil, actx, fiber.NewError(fiber.StatusNotFound, "Contrato no encontrado")
	}
	if lease.AgencyID != agencyID {
		return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este contrato")
	}

	switch actx.Role {
	case models.RoleOwner:
		var owner models.Owner
		if err := database.DB.Where("user_id = ?", actx.UserID).First(&owner).Error; err != nil || owner.ID != lease.Property.OwnerID {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este contrato")
		}
	case models.RoleTenant:
		var tenant models.Tenant
		if err := database.DB.Where("user_id = ?", actx.UserID).First(&tenant).Error; err != nil || tenant.ID != lease.TenantID {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este contrato")
		}
	}

	return &lease, actx, nil
}
