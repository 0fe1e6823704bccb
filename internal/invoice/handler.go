package invoice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"inmogest-backend/internal/audit"
	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/logger"
	"inmogest-backend/internal/mailer"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateInvoiceRequest struct {
	LeaseID  uint    `json:"lease_id"`
	Concept  string  `json:"concept"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	DueDate  string  `json:"due_date"` // "2025-08-31"
}

type UpdateInvoiceRequest struct {
	Concept *string  `json:"concept"`
	Amount  *float64 `json:"amount"`
	DueDate *string  `json:"due_date"`
	Status  *string  `json:"status"`
}

type InvoiceResponse struct {
	ID         uint    `json:"id"`
	AgencyID   uint    `json:"agency_id"`
	LeaseID    uint    `json:"lease_id"`
	Number     string  `json:"number"`
	Concept    string  `json:"concept"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	DueDate    string  `json:"due_date"`
	Status     string  `json:"status"`
	PaidAt     *string `json:"paid_at"`
	TenantName string  `json:"tenant_name,omitempty"`
	Property   string  `json:"property,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func toResponse(inv models.Invoice) InvoiceResponse {
	var paidAt *string
	if inv.PaidAt != nil {
		s := inv.PaidAt.Format("2006-01-02 15:04:05")
		paidAt = &s
	}
	return InvoiceResponse{
		ID:         inv.ID,
		AgencyID:   inv.AgencyID,
		LeaseID:    inv.LeaseID,
		Number:     inv.Number,
		Concept:    inv.Concept,
		Amount:     inv.Amount,
		Currency:   string(inv.Currency),
		DueDate:    inv.DueDate.Format("2006-01-02"),
		Status:     string(inv.Status),
		PaidAt:     paidAt,
		TenantName: inv.Lease.Tenant.Name,
		Property:   inv.Lease.Property.Name,
		CreatedAt:  inv.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// snapshot limpia las asociaciones para que el jsonb de auditoría
// guarde solo las columnas propias y el undo pueda restaurarlas.
func snapshot(inv models.Invoice) models.Invoice {
	inv.Agency = models.Agency{}
	inv.Lease = models.Lease{}
	return inv
}

func writeAudit(actx auth.Context, inv models.Invoice, action models.AuditAction, desc string, before any) {
	var user models.User
	userName := ""
	if err := database.DB.First(&user, actx.UserID).Error; err == nil {
		userName = user.Name
	}

	agencyID := inv.AgencyID
	var after any
	if action != models.AuditActionDelete {
		after = snapshot(inv)
	}

	_ = audit.WriteLog(audit.LogOptions{
		AgencyID:    &agencyID,
		UserID:      actx.UserID,
		UserName:    userName,
		EntityType:  "invoice",
		EntityID:    inv.ID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// nextInvoiceNumber genera "INV-<año>-<secuencia>" por agencia.
func nextInvoiceNumber(agencyID uint) string {
	year := time.Now().Year()
	var count int64
	database.DB.Model(&models.Invoice{}).
		Where("agency_id = ? AND number LIKE ?", agencyID, fmt.Sprintf("INV-%d-%%", year)).
		Count(&count)
	return fmt.Sprintf("INV-%d-%04d", year, count+1)
}

// POST /api/invoices
func CreateInvoiceHandler() fiber.Handler {
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
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede emitir facturas")
		}

		var body CreateInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		var lease models.Lease
		if err := database.DB.Preload("Tenant").Preload("Property").
			First(&lease, "id = ? AND agency_id = ?", body.LeaseID, agencyID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Contrato no encontrado en la agencia")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El monto debe ser mayor a cero")
		}

		currency := lease.Currency
		if body.Currency != "" {
			switch models.Currency(body.Currency) {
			case models.CurrencyUSD, models.CurrencyDOP:
				currency = models.Currency(body.Currency)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "Moneda inválida (USD|DOP)")
			}
		}

		dueDate, err := time.ParseInLocation("2006-01-02", body.DueDate, time.Local)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "due_date inválida (formato: 2006-01-02)")
		}

		inv := models.Invoice{
			AgencyID: agencyID,
			LeaseID:  lease.ID,
			Number:   nextInvoiceNumber(agencyID),
			Concept:  strings.TrimSpace(body.Concept),
			Amount:   body.Amount,
			Currency: currency,
			DueDate:  dueDate,
			Status:   models.InvoiceStatusPending,
		}

		if err := database.DB.Create(&inv).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar la factura")
		}

		inv.Lease = lease
		writeAudit(actx, inv, models.AuditActionCreate, "Factura emitida: "+inv.Number, nil)

		return c.Status(fiber.StatusCreated).JSON(toResponse(inv))
	}
}

// GET /api/invoices?status=pending&lease_id=3
func ListInvoicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		markOverdue(agencyID)

		q := database.DB.Preload("Lease.Tenant").Preload("Lease.Property").
			Where("invoices.agency_id = ?", agencyID).
			Order("invoices.due_date DESC")

		switch actx.Role {
		case models.RoleOwner:
			q = q.Joins("JOIN leases ON leases.id = invoices.lease_id").
				Joins("JOIN properties ON properties.id = leases.property_id").
				Joins("JOIN owners ON owners.id = properties.owner_id").
				Where("owners.user_id = ?", actx.UserID)
		case models.RoleTenant:
			q = q.Joins("JOIN leases ON leases.id = invoices.lease_id").
				Joins("JOIN tenants ON tenants.id = leases.tenant_id").
				Where("tenants.user_id = ?", actx.UserID)
		}

		if status := c.Query("status"); status != "" {
			q = q.Where("invoices.status = ?", status)
		}
		if leaseID := c.Query("lease_id"); leaseID != "" {
			q = q.Where("invoices.lease_id = ?", leaseID)
		}

		var invoices []models.Invoice
		if err := q.Find(&invoices).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las facturas")
		}

		resp := make([]InvoiceResponse, 0, len(invoices))
		for _, inv := range invoices {
			resp = append(resp, toResponse(inv))
		}
		return c.JSON(resp)
	}
}

// markOverdue pasa a "overdue" las facturas pendientes ya vencidas.
func markOverdue(agencyID uint) {
	today := time.Now().Truncate(24 * time.Hour)
	database.DB.Model(&models.Invoice{}).
		Where("agency_id = ? AND status = ? AND due_date < ?", agencyID, models.InvoiceStatusPending, today).
		Update("status", models.InvoiceStatusOverdue)
}

// GET /api/invoices/:id
func GetInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		inv, _, err := loadInvoiceForRequest(c)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*inv))
	}
}

// PUT /api/invoices/:id
func UpdateInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		inv, actx, err := loadInvoiceForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede editar facturas")
		}
		if inv.Status == models.InvoiceStatusPaid {
			return fiber.NewError(fiber.StatusConflict, "No se puede editar una factura pagada")
		}

		var body UpdateInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		before := snapshot(*inv)
		updates := map[string]interface{}{}

		if body.Concept != nil {
			updates["concept"] = strings.TrimSpace(*body.Concept)
		}
		if body.Amount != nil {
			if *body.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "El monto debe ser mayor a cero")
			}
			updates["amount"] = *body.Amount
		}
		if body.DueDate != nil {
			d, err := time.ParseInLocation("2006-01-02", *body.DueDate, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "due_date inválida (formato: 2006-01-02)")
			}
			updates["due_date"] = d
		}
		if body.Status != nil {
			switch models.InvoiceStatus(*body.Status) {
			case models.InvoiceStatusPending, models.InvoiceStatusOverdue:
				updates["status"] = *body.Status
			case models.InvoiceStatusPaid:
				now := time.Now()
				updates["status"] = *body.Status
				updates["paid_at"] = &now
			default:
				return fiber.NewError(fiber.StatusBadRequest, "Estado inválido (pending|paid|overdue)")
			}
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No hay campos para actualizar")
		}

		if err := database.DB.Model(inv).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la factura")
		}

		var updated models.Invoice
		if err := database.DB.Preload("Lease.Tenant").Preload("Lease.Property").First(&updated, inv.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer la factura actualizada")
		}

		writeAudit(actx, updated, models.AuditActionUpdate, "Factura editada: "+updated.Number, before)

		return c.JSON(toResponse(updated))
	}
}

// DELETE /api/invoices/:id
func DeleteInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		inv, actx, err := loadInvoiceForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar facturas")
		}
		if inv.Status == models.InvoiceStatusPaid {
			return fiber.NewError(fiber.StatusConflict, "No se puede eliminar una factura pagada")
		}

		before := snapshot(*inv)

		if err := database.DB.Delete(&models.Invoice{}, inv.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la factura")
		}

		writeAudit(actx, *inv, models.AuditActionDelete, "Factura eliminada: "+inv.Number, before)

		return c.JSON(fiber.Map{"deleted": inv.ID})
	}
}

// POST /api/invoices/:id/remind
// Envía un recordatorio de pago al correo del inquilino.
func RemindInvoiceHandler(m *mailer.Mailer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		inv, actx, err := loadInvoiceForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede enviar recordatorios")
		}
		if inv.Status == models.InvoiceStatusPaid {
			return fiber.NewError(fiber.StatusConflict, "La factura ya está pagada")
		}
		if inv.Lease.Tenant.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El inquilino no tiene correo registrado")
		}

		subject := fmt.Sprintf("Recordatorio de pago — factura %s", inv.Number)
		html := fmt.Sprintf(
			"<p>Estimado/a %s:</p><p>Le recordamos que la factura <b>%s</b> (%s) por <b>%.2f %s</b> vence el <b>%s</b>.</p><p>Inmueble: %s</p>",
			inv.Lease.Tenant.Name, inv.Number, inv.Concept, inv.Amount, inv.Currency, inv.DueDate.Format("02/01/2006"), inv.Lease.Property.Name,
		)

		if err := m.Send(inv.Lease.Tenant.Email, subject, html); err != nil {
			if errors.Is(err, mailer.ErrDisabled) {
				return fiber.NewError(fiber.StatusServiceUnavailable, "El envío de correos está deshabilitado")
			}
			logger.LogError("invoice", "RemindInvoiceHandler", "enviando recordatorio", err)
			return fiber.NewError(fiber.StatusBadGateway, "No se pudo enviar el recordatorio")
		}

		return c.JSON(fiber.Map{"message": "Recordatorio enviado a " + inv.Lease.Tenant.Email})
	}
}

func loadInvoiceForRequest(c *fiber.Ctx) (*models.Invoice, auth.Context, error) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return nil, actx, err
	}
	agencyID, err := actx.RequireAgency()
	if err != nil {
		return nil, actx, err
	}

	id := c.Params("id")

	var inv models.Invoice
	if err := database.DB.Preload("Lease.Tenant").Preload("Lease.Property").First(&inv, "id = ?", id).Error; err != nil {
		return nil, actx, fiber.NewError(fiber.StatusNotFound, "Factura no encontrada")
	}
	if inv.AgencyID != agencyID {
		return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta factura")
	}

	switch actx.Role {
	case models.RoleOwner:
		var owner models.Owner
		if err := database.DB.Where("user_id = ?", actx.UserID).First(&owner).Error; err != nil || owner.ID != inv.Lease.Property.OwnerID {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta factura")
		}
	case models.RoleTenant:
		var tenant models.Tenant
		if err := database.DB.Where("user_id = ?", actx.UserID).First(&tenant).Error; err != nil || tenant.ID != inv.Lease.TenantID {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta factura")
		}
	}

	return &inv, actx, nil
}
