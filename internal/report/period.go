package report

import (
	"fmt"
	"time"
)

// monthWindow arma el período de un reporte mensual: etiqueta "YYYY-MM",
// primer día y último día del mes (ambos a medianoche local).
func monthWindow(year, month int) (string, time.Time, time.Time) {
	loc := time.Now().Location()
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	label := fmt.Sprintf("%04d-%02d", year, month)
	return label, first, last
}
