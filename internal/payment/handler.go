package payment

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

type CreatePaymentRequest struct {
	PropertyID uint    `json:"property_id"`
	LeaseID    *uint   `json:"lease_id"`
	InvoiceID  *uint   `json:"invoice_id"`
	Date       string  `json:"date"` // "2025-08-15"
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Method     string  `json:"method"` // cash | transfer
	Reference  string  `json:"reference"`
	Notes      string  `json:"notes"`
}

type UpdatePaymentRequest struct {
	Date      *string  `json:"date"`
	Amount    *float64 `json:"amount"`
	Currency  *string  `json:"currency"`
	Method    *string  `json:"method"`
	Reference *string  `json:"reference"`
	Notes     *string  `json:"notes"`
}

type PaymentResponse struct {
	ID           uint    `json:"id"`
	AgencyID     uint    `json:"agency_id"`
	PropertyID   uint    `json:"property_id"`
	PropertyName string  `json:"property_name,omitempty"`
	OwnerID      uint    `json:"owner_id"`
	LeaseID      *uint   `json:"lease_id"`
	InvoiceID    *uint   `json:"invoice_id"`
	Date         string  `json:"date"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	Method       string  `json:"method"`
	Reference    string  `json:"reference"`
	Notes        string  `json:"notes"`
	CreatedAt    string  `json:"created_at"`
}

func toResponse(p models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		AgencyID:     p.AgencyID,
		PropertyID:   p.PropertyID,
		PropertyName: p.Property.Name,
		OwnerID:      p.OwnerID,
		LeaseID:      p.LeaseID,
		InvoiceID:    p.InvoiceID,
		Date:         p.Date.Format("2006-01-02"),
		Amount:       p.Amount,
		Currency:     string(p.Currency),
		Method:       string(p.Method),
		Reference:    p.Reference,
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// snapshot limpia las asociaciones para que el jsonb de auditoría
// guarde solo las columnas propias y el undo pueda restaurarlas.
func snapshot(p models.Payment) models.Payment {
	p.Agency = models.Agency{}
	p.Property = models.Property{}
	p.Owner = models.Owner{}
	p.Lease = nil
	p.Invoice = nil
	return p
}

func writeAudit(actx auth.Context, p models.Payment, action models.AuditAction, desc string, before any) {
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
		EntityType:  "payment",
		EntityID:    p.ID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

func parseMethod(s string) (models.PaymentMethod, bool) {
	switch models.PaymentMethod(s) {
	case models.PaymentMethodCash, models.PaymentMethodTransfer:
		return models.PaymentMethod(s), true
	}
	return "", false
}

func parseCurrency(s string) (models.Currency, bool) {
	switch models.Currency(s) {
	case models.CurrencyUSD, models.CurrencyDOP:
		return models.Currency(s), true
	}
	return "", false
}

// POST /api/payments
func CreatePaymentHandler() fiber.Handler {
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
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede registrar pagos")
		}

		var body CreatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		var property models.Property
		if err := database.DB.First(&property, "id = ? AND agency_id = ?", body.PropertyID, agencyID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Inmueble no encontrado en la agencia")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El monto debe ser mayor a cero")
		}
		currency, ok := parseCurrency(body.Currency)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Moneda inválida (USD|DOP)")
		}
		method, ok := parseMethod(body.Method)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Método inválido (cash|transfer)")
		}

		// La fecha se normaliza a medianoche local para que los reportes
		// mensuales (date >= primer día AND date <= último día) la incluyan.
		date, err := time.ParseInLocation("2006-01-02", body.Date, time.Local)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date inválida (formato: 2006-01-02)")
		}

		if body.LeaseID != nil {
			var lease models.Lease
			if err := database.DB.First(&lease, "id = ? AND agency_id = ?", *body.LeaseID, agencyID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Contrato no encontrado en la agencia")
			}
			if lease.PropertyID != property.ID {
				return fiber.NewError(fiber.StatusBadRequest, "El contrato no corresponde al inmueble")
			}
		}

		payment := models.Payment{
			AgencyID:   agencyID,
			PropertyID: property.ID,
			OwnerID:    property.OwnerID,
			LeaseID:    body.LeaseID,
			InvoiceID:  body.InvoiceID,
			Date:       date,
			Amount:     body.Amount,
			Currency:   currency,
			Method:     method,
			Reference:  strings.TrimSpace(body.Reference),
			Notes:      strings.TrimSpace(body.Notes),
		}

		if body.InvoiceID != nil {
			var inv models.Invoice
			if err := database.DB.First(&inv, "id = ? AND agency_id = ?", *body.InvoiceID, agencyID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Factura no encontrada en la agencia")
			}
			if inv.Status == models.InvoiceStatusPaid {
				return fiber.NewError(fiber.StatusConflict, "La factura ya está pagada")
			}
		}

		if err := database.DB.Create(&payment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el pago")
		}

		if payment.InvoiceID != nil {
			settleInvoice(*payment.InvoiceID)
		}

		payment.Property = property
		writeAudit(actx, payment, models.AuditActionCreate, "Pago registrado: "+property.Name, nil)

		return c.Status(fiber.StatusCreated).JSON(toResponse(payment))
	}
}

// settleInvoice marca la factura como pagada cuando la suma de sus pagos
// cubre el monto facturado.
func settleInvoice(invoiceID uint) {
	var inv models.Invoice
	if err := database.DB.First(&inv, invoiceID).Error; err != nil {
		return
	}

	var paid float64
	database.DB.Model(&models.Payment{}).
		Where("invoice_id = ?", invoiceID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid)

	if paid >= inv.Amount && inv.Status != models.InvoiceStatusPaid {
		now := time.Now()
		database.DB.Model(&inv).Updates(map[string]interface{}{
			"status":  models.InvoiceStatusPaid,
			"paid_at": &now,
		})
	}
}

// GET /api/payments?from=2025-08-01&to=2025-08-31&property_id=&owner_id=&method=
func ListPaymentsHandler() fiber.Handler {
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
			Where("payments.agency_id = ?", agencyID).
			Order("payments.date DESC, payments.id DESC")

		switch actx.Role {
		case models.RoleOwner:
			q = q.Joins("JOIN owners ON owners.id = payments.owner_id").
				Where("owners.user_id = ?", actx.UserID)
		case models.RoleTenant:
			q = q.Joins("JOIN leases ON leases.id = payments.lease_id").
				Joins("JOIN tenants ON tenants.id = leases.tenant_id").
				Where("tenants.user_id = ?", actx.UserID)
		}

		if from := c.Query("from"); from != "" {
			d, err := time.ParseInLocation("2006-01-02", from, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from inválida (formato: 2006-01-02)")
			}
			q = q.Where("payments.date >= ?", d)
		}
		if to := c.Query("to"); to != "" {
			d, err := time.ParseInLocation("2006-01-02", to, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to inválida (formato: 2006-01-02)")
			}
			q = q.Where("payments.date <= ?", d)
		}
		if propertyID := c.Query("property_id"); propertyID != "" {
			q = q.Where("payments.property_id = ?", propertyID)
		}
		if ownerID := c.Query("owner_id"); ownerID != "" {
			q = q.Where("payments.owner_id = ?", ownerID)
		}
		if method := c.Query("method"); method != "" {
			q = q.Where("payments.method = ?", method)
		}

		var payments []models.Payment
		if err := q.Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los pagos")
		}

		resp := make([]PaymentResponse, 0, len(payments))
		for _, p := range payments {
			resp = append(resp, toResponse(p))
		}
		return c.JSON(resp)
	}
}

// GET /api/payments/:id
func GetPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		payment, _, err := loadPaymentForRequest(c)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*payment))
	}
}

// PUT /api/payments/:id
func UpdatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		payment, actx, err := loadPaymentForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede editar pagos")
		}

		var body UpdatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		before := snapshot(*payment)
		updates := map[string]interface{}{}

		if body.Date != nil {
			d, err := time.ParseInLocation("2006-01-02", *body.Date, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date inválida (formato: 2006-01-02)")
			}
			updates["date"] = d
		}
		if body.Amount != nil {
			if *body.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "El monto debe ser mayor a cero")
			}
			updates["amount"] = *body.Amount
		}
		if body.Currency != nil {
			currency, ok := parseCurrency(*body.Currency)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Moneda inválida (USD|DOP)")
			}
			updates["currency"] = currency
		}
		if body.Method != nil {
			method, ok := parseMethod(*body.Method)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Método inválido (cash|transfer)")
			}
			updates["method"] = method
		}
		if body.Reference != nil {
			updates["reference"] = strings.TrimSpace(*body.Reference)
		}
		if body.Notes != nil {
			updates["notes"] = strings.TrimSpace(*body.Notes)
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No hay campos para actualizar")
		}

		if err := database.DB.Model(payment).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el pago")
		}

		if payment.InvoiceID != nil {
			settleInvoice(*payment.InvoiceID)
		}

		var updated models.Payment
		if err := database.DB.Preload("Property").First(&updated, payment.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el pago actualizado")
		}

		writeAudit(actx, updated, models.AuditActionUpdate, "Pago editado: "+updated.Property.Name, before)

		return c.JSON(toResponse(updated))
	}
}

// DELETE /api/payments/:id
func DeletePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		payment, actx, err := loadPaymentForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar pagos")
		}

		before := snapshot(*payment)

		if err := database.DB.Delete(&models.Payment{}, payment.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el pago")
		}

		writeAudit(actx, *payment, models.AuditActionDelete, "Pago eliminado: "+payment.Property.Name, before)

		return c.JSON(fiber.Map{"deleted": payment.ID})
	}
}

func loadPaymentForRequest(c *fiber.Ctx) (*models.Payment, auth.Context, error) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return nil, actx, err
	}
	agencyID, err := actx.RequireAgency()
	if err != nil {
		return nil, actx, err
	}

	id := c.Params("id")

	var payment models.Payment
	if err := database.DB.Preload("Property").First(&payment, "id = ?", id).Error; err != nil {
		return nil, actx, fiber.NewError(fiber.StatusNotFound, "Pago no encontrado")
	}
	if payment.AgencyID != agencyID {
		return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este pago")
	}

	if actx.Role == models.RoleOwner {
		var owner models.Owner
		if err := database.DB.Where("user_id = ?", actx.UserID).First(&owner).Error; err != nil || owner.ID != payment.OwnerID {
			return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este pago")
		}
	}
	if actx.Role == models.RoleTenant {
		return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este pago")
	}

	return &payment, actx, nil
}
