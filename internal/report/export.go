package report

import (
	"fmt"

	"inmogest-backend/internal/logger"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/reports/:id/export
// Exporta el reporte guardado como hoja de cálculo XLSX.
func ExportReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := loadReportForRequest(c)
		if err != nil {
			return err
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Reporte"
		f.SetSheetName("Sheet1", sheet)

		title := "Reporte de gerencia"
		if rep.Kind == models.ReportKindOwner {
			title = "Reporte de propietario"
		}

		rows := [][]interface{}{
			{title, rep.Month},
			{"Período", rep.StartDate.Format("2006-01-02") + " a " + rep.EndDate.Format("2006-01-02")},
			{},
			{"Concepto", "Monto"},
			{"Efectivo USD", rep.USDCashTotal},
			{"Efectivo DOP", rep.DOPCashTotal},
			{"Transferencias USD", rep.USDTransferTotal},
			{"Transferencias DOP", rep.DOPTransferTotal},
			{"Total USD", rep.USDTotal},
			{"Total DOP", rep.DOPTotal},
		}

		if rep.AvgRate != nil {
			rows = append(rows, []interface{}{"Tasa promedio USD→DOP", *rep.AvgRate})
		}

		if rep.Kind == models.ReportKindManager {
			rows = append(rows,
				[]interface{}{},
				[]interface{}{"Comisión %", rep.FeePercent},
				[]interface{}{"Base de comisión DOP", rep.FeeBaseDOP},
				[]interface{}{"Comisión DOP", rep.FeeDOP},
				[]interface{}{"Comisión descontada DOP", rep.FeeDeductedDOP},
				[]interface{}{"Restante para propietarios DOP", rep.OwnersLeftoverDOP},
			)
		}

		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				logger.LogError("report", "ExportReportHandler", "escribiendo fila", err)
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el archivo")
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			logger.LogError("report", "ExportReportHandler", "serializando xlsx", err)
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el archivo")
		}

		filename := fmt.Sprintf("reporte-%s-%s.xlsx", rep.Kind, rep.Month)
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		return c.Send(buf.Bytes())
	}
}
