package report

import (
	"errors"
	"fmt"

	"inmogest-backend/internal/database"
	"inmogest-backend/internal/logger"
	"inmogest-backend/internal/mailer"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// POST /api/reports/:id/send
// Envía el reporte de liquidación al correo del propietario.
func SendReportHandler(m *mailer.Mailer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := loadReportForRequest(c)
		if err != nil {
			return err
		}
		if rep.Kind != models.ReportKindOwner || rep.OwnerID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Solo los reportes de propietario se envían por correo")
		}

		var owner models.Owner
		if err := database.DB.First(&owner, *rep.OwnerID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Propietario no encontrado")
		}
		if owner.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El propietario no tiene correo registrado")
		}

		subject := fmt.Sprintf("Liquidación %s", rep.Month)
		html := fmt.Sprintf(
			"<p>Estimado/a %s:</p>"+
				"<p>Resumen del período <b>%s</b> (%s a %s):</p>"+
				"<ul>"+
				"<li>Efectivo USD: %.2f</li>"+
				"<li>Efectivo DOP: %.2f</li>"+
				"<li>Transferencias USD: %.2f</li>"+
				"<li>Transferencias DOP: %.2f</li>"+
				"<li>Total USD: %.2f</li>"+
				"<li>Total DOP: %.2f</li>"+
				"</ul>",
			owner.Name, rep.Month,
			rep.StartDate.Format("02/01/2006"), rep.EndDate.Format("02/01/2006"),
			rep.USDCashTotal, rep.DOPCashTotal,
			rep.USDTransferTotal, rep.DOPTransferTotal,
			rep.USDTotal, rep.DOPTotal,
		)
		if rep.AvgRate != nil {
			html += fmt.Sprintf("<p>Tasa promedio aplicada: %.2f DOP/USD</p>", *rep.AvgRate)
		}

		if err := m.Send(owner.Email, subject, html); err != nil {
			if errors.Is(err, mailer.ErrDisabled) {
				return fiber.NewError(fiber.StatusServiceUnavailable, "El envío de correos está deshabilitado")
			}
			logger.LogError("report", "SendReportHandler", "enviando liquidación", err)
			return fiber.NewError(fiber.StatusBadGateway, "No se pudo enviar el reporte")
		}

		return c.JSON(fiber.Map{"message": "Reporte enviado a " + owner.Email})
	}
}
