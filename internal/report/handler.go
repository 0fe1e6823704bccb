package report

import (
	"errors"
	"fmt"
	"time"

	"inmogest-backend/internal/audit"
	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/config"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type GenerateManagerReportRequest struct {
	Year       int      `json:"year"`
	Month      int      `json:"month"`
	AvgRate    *float64 `json:"avg_rate"`
	FeePercent *float64 `json:"fee_percent"` // si falta se usa el valor configurado
}

type GenerateOwnerReportRequest struct {
	Year    int      `json:"year"`
	Month   int      `json:"month"`
	OwnerID *uint    `json:"owner_id"` // obligatorio para agency_admin
	AvgRate *float64 `json:"avg_rate"`
}

type UpdateReportRequest struct {
	AvgRate    *float64 `json:"avg_rate"`
	FeePercent *float64 `json:"fee_percent"`
}

type ReportResponse struct {
	ID                uint     `json:"id"`
	AgencyID          uint     `json:"agency_id"`
	Kind              string   `json:"kind"`
	OwnerID           *uint    `json:"owner_id,omitempty"`
	Month             string   `json:"month"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	USDCashTotal      float64  `json:"usd_cash_total"`
	DOPCashTotal      float64  `json:"dop_cash_total"`
	USDTransferTotal  float64  `json:"usd_transfer_total"`
	DOPTransferTotal  float64  `json:"dop_transfer_total"`
	USDTotal          float64  `json:"usd_total"`
	DOPTotal          float64  `json:"dop_total"`
	AvgRate           *float64 `json:"avg_rate"`
	FeePercent        float64  `json:"fee_percent"`
	FeeBaseDOP        float64  `json:"fee_base_dop"`
	FeeDOP            float64  `json:"fee_dop"`
	FeeDeductedDOP    float64  `json:"fee_deducted_dop"`
	OwnersLeftoverDOP float64  `json:"owners_leftover_dop"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

func toResponse(r models.Report) ReportResponse {
	return ReportResponse{
		ID:                r.ID,
		AgencyID:          r.AgencyID,
		Kind:              string(r.Kind),
		OwnerID:           r.OwnerID,
		Month:             r.Month,
		StartDate:         r.StartDate.Format("2006-01-02"),
		EndDate:           r.EndDate.Format("2006-01-02"),
		USDCashTotal:      r.USDCashTotal,
		DOPCashTotal:      r.DOPCashTotal,
		USDTransferTotal:  r.USDTransferTotal,
		DOPTransferTotal:  r.DOPTransferTotal,
		USDTotal:          r.USDTotal,
		DOPTotal:          r.DOPTotal,
		AvgRate:           r.AvgRate,
		FeePercent:        r.FeePercent,
		FeeBaseDOP:        r.FeeBaseDOP,
		FeeDOP:            r.FeeDOP,
		FeeDeductedDOP:    r.FeeDeductedDOP,
		OwnersLeftoverDOP: r.OwnersLeftoverDOP,
		CreatedAt:         r.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:         r.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// Totales del período agregados por moneda y método (lado SQL)
type periodTotals struct {
	USDCash     float64
	DOPCash     float64
	USDTransfer float64
	DOPTransfer float64
}

func (t periodTotals) usdTotal() float64 { return t.USDCash + t.USDTransfer }
func (t periodTotals) dopTotal() float64 { return t.DOPCash + t.DOPTransfer }

func aggregateTotals(agencyID uint, ownerID *uint, from, to time.Time) (periodTotals, error) {
	type row struct {
		Currency string  `gorm:"column:currency"`
		Method   string  `gorm:"column:method"`
		Total    float64 `gorm:"column:total"`
	}
	var rows []row

	q := database.DB.Model(&models.Payment{}).
		Select("currency, method, COALESCE(SUM(amount), 0) AS total").
		Where("agency_id = ? AND date >= ? AND date <= ?", agencyID, from, to).
		Group("currency, method")
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}

	var totals periodTotals
	if err := q.Scan(&rows).Error; err != nil {
		return totals, err
	}

	for _, r := range rows {
		switch {
		case r.Currency == string(models.CurrencyUSD) && r.Method == string(models.PaymentMethodCash):
			totals.USDCash = r.Total
		case r.Currency == string(models.CurrencyDOP) && r.Method == string(models.PaymentMethodCash):
			totals.DOPCash = r.Total
		case r.Currency == string(models.CurrencyUSD) && r.Method == string(models.PaymentMethodTransfer):
			totals.USDTransfer = r.Total
		case r.Currency == string(models.CurrencyDOP) && r.Method == string(models.PaymentMethodTransfer):
			totals.DOPTransfer = r.Total
		}
	}

	return totals, nil
}

// POST /api/reports/manager
// Genera y guarda el reporte de gerencia del mes.
func GenerateManagerReportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		var body GenerateManagerReportRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.Year < 2000 || body.Month < 1 || body.Month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "Año o mes inválido")
		}

		label, first, last := monthWindow(body.Year, body.Month)

		// El almacén no impone unicidad por período: el chequeo vive aquí.
		var existing models.Report
		err = database.DB.Where(
			"agency_id = ? AND kind = ? AND month = ? AND start_date = ? AND end_date = ?",
			agencyID, models.ReportKindManager, label, first, last,
		).First(&existing).Error
		if err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ya existe un reporte de gerencia para este período")
		}

		totals, err := aggregateTotals(agencyID, nil, first, last)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron agregar los pagos del período")
		}

		feePercent := cfg.DefaultFeePercent
		if body.FeePercent != nil {
			feePercent = *body.FeePercent
		}

		calc, err := Calculate(CalcInput{
			USDTotal:     totals.usdTotal(),
			DOPTotal:     totals.dopTotal(),
			DOPCashTotal: totals.DOPCash,
			AvgRate:      body.AvgRate,
			FeePercent:   feePercent,
		})
		if err != nil {
			return calcError(err)
		}

		rep := models.Report{
			AgencyID:          agencyID,
			Kind:              models.ReportKindManager,
			Month:             label,
			StartDate:         first,
			EndDate:           last,
			USDCashTotal:      totals.USDCash,
			DOPCashTotal:      totals.DOPCash,
			USDTransferTotal:  totals.USDTransfer,
			DOPTransferTotal:  totals.DOPTransfer,
			USDTotal:          totals.usdTotal(),
			DOPTotal:          totals.dopTotal(),
			AvgRate:           body.AvgRate,
			FeePercent:        feePercent,
			FeeBaseDOP:        calc.FeeBaseDOP,
			FeeDOP:            calc.FeeDOP,
			FeeDeductedDOP:    calc.FeeDeductedDOP,
			OwnersLeftoverDOP: calc.OwnersLeftoverDOP,
		}

		if err := database.DB.Create(&rep).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el reporte")
		}

		writeReportAudit(c, rep, models.AuditActionCreate,
			fmt.Sprintf("Reporte de gerencia generado: %s", label))

		return c.Status(fiber.StatusCreated).JSON(toResponse(rep))
	}
}

// POST /api/reports/owner
// Genera el reporte de liquidación de un propietario (sin comisión).
func GenerateOwnerReportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		var body GenerateOwnerReportRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.Year < 2000 || body.Month < 1 || body.Month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "Año o mes inválido")
		}

		ownerID, err := resolveOwnerID(actx, body.OwnerID)
		if err != nil {
			return err
		}

		label, first, last := monthWindow(body.Year, body.Month)

		var existing models.Report
		err = database.DB.Where(
			"agency_id = ? AND kind = ? AND owner_id = ? AND month = ? AND start_date = ? AND end_date = ?",
			agencyID, models.ReportKindOwner, ownerID, label, first, last,
		).First(&existing).Error
		if err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ya existe un reporte para este propietario y período")
		}

		totals, err := aggregateTotals(agencyID, &ownerID, first, last)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron agregar los pagos del período")
		}

		// La validación de la tasa es la misma que en gerencia, con comisión 0
		if _, err := Calculate(CalcInput{
			USDTotal:     totals.usdTotal(),
			DOPTotal:     totals.dopTotal(),
			DOPCashTotal: totals.DOPCash,
			AvgRate:      body.AvgRate,
		}); err != nil {
			return calcError(err)
		}

		rep := models.Report{
			AgencyID:         agencyID,
			Kind:             models.ReportKindOwner,
			OwnerID:          &ownerID,
			Month:            label,
			StartDate:        first,
			EndDate:          last,
			USDCashTotal:     totals.USDCash,
			DOPCashTotal:     totals.DOPCash,
			USDTransferTotal: totals.USDTransfer,
			DOPTransferTotal: totals.DOPTransfer,
			USDTotal:         totals.usdTotal(),
			DOPTotal:         totals.dopTotal(),
			AvgRate:          body.AvgRate,
		}

		if err := database.DB.Create(&rep).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el reporte")
		}

		writeReportAudit(c, rep, models.AuditActionCreate,
			fmt.Sprintf("Reporte de propietario #%d generado: %s", ownerID, label))

		return c.Status(fiber.StatusCreated).JSON(toResponse(rep))
	}
}

// GET /api/reports?kind=manager|owner
func ListReportsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		q := database.DB.Where("agency_id = ?", agencyID).Order("start_date DESC, id DESC")

		if kind := c.Query("kind"); kind != "" {
			q = q.Where("kind = ?", kind)
		}

		// Un propietario solo ve sus propios reportes
		if actx.Role == models.RoleOwner {
			ownerID, err := ownerIDForUser(actx.UserID)
			if err != nil {
				return err
			}
			q = q.Where("kind = ? AND owner_id = ?", models.ReportKindOwner, ownerID)
		}

		var reports []models.Report
		if err := q.Find(&reports).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los reportes")
		}

		resp := make([]ReportResponse, 0, len(reports))
		for _, r := range reports {
			resp = append(resp, toResponse(r))
		}
		return c.JSON(resp)
	}
}

// GET /api/reports/:id
func GetReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := loadReportForRequest(c)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*rep))
	}
}

// PUT /api/reports/:id
// Reaplica el cálculo con una tasa o comisión nueva sobre los totales guardados.
func UpdateReportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede editar reportes")
		}

		rep, err := loadReportForRequest(c)
		if err != nil {
			return err
		}

		var body UpdateReportRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		before := toResponse(*rep)

		avgRate := rep.AvgRate
		if body.AvgRate != nil {
			avgRate = body.AvgRate
		}

		patch := map[string]interface{}{
			"avg_rate":   avgRate,
			"updated_at": time.Now(),
		}

		if rep.Kind == models.ReportKindManager {
			feePercent := rep.FeePercent
			if body.FeePercent != nil {
				feePercent = *body.FeePercent
			}

			calc, err := Calculate(CalcInput{
				USDTotal:     rep.USDTotal,
				DOPTotal:     rep.DOPTotal,
				DOPCashTotal: rep.DOPCashTotal,
				AvgRate:      avgRate,
				FeePercent:   feePercent,
			})
			if err != nil {
				return calcError(err)
			}

			patch["fee_percent"] = feePercent
			patch["fee_base_dop"] = calc.FeeBaseDOP
			patch["fee_dop"] = calc.FeeDOP
			patch["fee_deducted_dop"] = calc.FeeDeductedDOP
			patch["owners_leftover_dop"] = calc.OwnersLeftoverDOP
		} else if rep.USDTotal > 0 {
			if _, err := Calculate(CalcInput{USDTotal: rep.USDTotal, DOPTotal: rep.DOPTotal, DOPCashTotal: rep.DOPCashTotal, AvgRate: avgRate}); err != nil {
				return calcError(err)
			}
		}

		if err := database.DB.Model(&models.Report{}).Where("id = ?", rep.ID).Updates(patch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el reporte")
		}

		var updated models.Report
		if err := database.DB.First(&updated, rep.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el reporte actualizado")
		}

		writeReportAuditWithBefore(c, updated, before, models.AuditActionUpdate,
			fmt.Sprintf("Reporte %s editado: %s", updated.Kind, updated.Month))

		return c.JSON(toResponse(updated))
	}
}

// DELETE /api/reports/:id
func DeleteReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar reportes")
		}

		rep, err := loadReportForRequest(c)
		if err != nil {
			return err
		}

		if err := database.DB.Delete(&models.Report{}, rep.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el reporte")
		}

		writeReportAudit(c, *rep, models.AuditActionDelete,
			fmt.Sprintf("Reporte %s eliminado: %s", rep.Kind, rep.Month))

		return c.JSON(fiber.Map{"deleted": rep.ID})
	}
}

// DELETE /api/reports?kind=manager&month=2025-08&start_date=2025-08-01&end_date=2025-08-31[&owner_id=3]
// Coincidencia exacta de la tupla del período, no un rango.
func DeleteReportsForPeriodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar reportes")
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		month := c.Query("month")
		startStr := c.Query("start_date")
		endStr := c.Query("end_date")
		if month == "" || startStr == "" || endStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "month, start_date y end_date son obligatorios")
		}

		loc := time.Now().Location()
		start, err := time.ParseInLocation("2006-01-02", startStr, loc)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "start_date inválida, debe ser 'YYYY-MM-DD'")
		}
		end, err := time.ParseInLocation("2006-01-02", endStr, loc)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "end_date inválida, debe ser 'YYYY-MM-DD'")
		}

		q := database.DB.Where(
			"agency_id = ? AND month = ? AND start_date = ? AND end_date = ?",
			agencyID, month, start, end,
		)
		if kind := c.Query("kind"); kind != "" {
			q = q.Where("kind = ?", kind)
		}
		if oidStr := c.Query("owner_id"); oidStr != "" {
			var oid uint
			if _, err := fmt.Sscan(oidStr, &oid); err != nil || oid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "owner_id inválido")
			}
			q = q.Where("owner_id = ?", oid)
		}

		res := q.Delete(&models.Report{})
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron eliminar los reportes")
		}

		return c.JSON(fiber.Map{"deleted_count": res.RowsAffected})
	}
}

// -------------------------
// Helpers
// -------------------------

func calcError(err error) error {
	switch {
	case errors.Is(err, ErrAvgRateRequired):
		return fiber.NewError(fiber.StatusBadRequest, "Se requiere la tasa promedio: hay ingresos en USD")
	case errors.Is(err, ErrFeePercentInvalid):
		return fiber.NewError(fiber.StatusBadRequest, "Porcentaje de comisión inválido")
	case errors.Is(err, ErrTotalsInvalid):
		return fiber.NewError(fiber.StatusBadRequest, "Los totales del período son inválidos")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo calcular el reporte")
	}
}

// loadReportForRequest carga el reporte y valida el acceso según el rol.
func loadReportForRequest(c *fiber.Ctx) (*models.Report, error) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return nil, err
	}
	agencyID, err := actx.RequireAgency()
	if err != nil {
		return nil, err
	}

	id := c.Params("id")

	var rep models.Report
	if err := database.DB.First(&rep, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Reporte no encontrado")
	}
	if rep.AgencyID != agencyID {
		return nil, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este reporte")
	}

	if actx.Role == models.RoleOwner {
		ownerID, err := ownerIDForUser(actx.UserID)
		if err != nil {
			return nil, err
		}
		if rep.Kind != models.ReportKindOwner || rep.OwnerID == nil || *rep.OwnerID != ownerID {
			return nil, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este reporte")
		}
	}
	if actx.Role == models.RoleTenant {
		return nil, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a los reportes")
	}

	return &rep, nil
}

func ownerIDForUser(userID uint) (uint, error) {
	var owner models.Owner
	if err := database.DB.Where("user_id = ?", userID).First(&owner).Error; err != nil {
		return 0, fiber.NewError(fiber.StatusForbidden, "No se encontró la ficha de propietario del usuario")
	}
	return owner.ID, nil
}

// resolveOwnerID: agency_admin lo pasa en el body, un propietario usa su propia ficha.
func resolveOwnerID(actx auth.Context, bodyOwnerID *uint) (uint, error) {
	if actx.Role == models.RoleOwner {
		return ownerIDForUser(actx.UserID)
	}

	if bodyOwnerID == nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "owner_id es obligatorio")
	}
	return *bodyOwnerID, nil
}

func writeReportAudit(c *fiber.Ctx, rep models.Report, action models.AuditAction, desc string) {
	writeReportAuditWithBefore(c, rep, nil, action, desc)
}

func writeReportAuditWithBefore(c *fiber.Ctx, rep models.Report, before any, action models.AuditAction, desc string) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return
	}

	var user models.User
	userName := ""
	if err := database.DB.First(&user, actx.UserID).Error; err == nil {
		userName = user.Name
	}

	agencyID := rep.AgencyID
	var after any
	if action != models.AuditActionDelete {
		after = toResponse(rep)
	} else {
		before = toResponse(rep)
	}

	_ = audit.WriteLog(audit.LogOptions{
		AgencyID:    &agencyID,
		UserID:      actx.UserID,
		UserName:    userName,
		EntityType:  "report",
		EntityID:    rep.ID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}
