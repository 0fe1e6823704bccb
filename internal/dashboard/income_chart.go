package dashboard

import (
	"fmt"
	"sort"
	"time"

	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type IncomeChartPoint struct {
	Label       string  `json:"label"` // fecha / inicio de semana / inicio de mes
	USD         float64 `json:"usd"`
	DOP         float64 `json:"dop"`
	DOPCash     float64 `json:"dop_cash"`
	DOPTransfer float64 `json:"dop_transfer"`
}

type IncomeChartGrandTotals struct {
	USD         float64 `json:"usd"`
	DOP         float64 `json:"dop"`
	DOPCash     float64 `json:"dop_cash"`
	DOPTransfer float64 `json:"dop_transfer"`
}

type IncomeChartResponse struct {
	AgencyID    uint                   `json:"agency_id"`
	Period      string                 `json:"period"` // daily | weekly | monthly
	From        string                 `json:"from"`
	To          string                 `json:"to"`
	Points      []IncomeChartPoint     `json:"points"`
	GrandTotals IncomeChartGrandTotals `json:"grand_totals"`
}

// GET /api/dashboard/income-chart?period=monthly&count=12
func IncomeChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede consultar el panel")
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		period := c.Query("period", "monthly") // daily | weekly | monthly
		countStr := c.Query("count", "")

		var count int
		if countStr == "" {
			switch period {
			case "daily":
				count = 30
			case "weekly":
				count = 8
			default:
				period = "monthly"
				count = 12
			}
		} else {
			if _, err := fmt.Sscan(countStr, &count); err != nil || count <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "count inválido")
			}
		}

		now := time.Now()
		loc := now.Location()
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		var start time.Time

		switch period {
		case "daily":
			start = end.AddDate(0, 0, -(count - 1))
		case "weekly":
			start = end.AddDate(0, 0, -7*(count-1))
		default: // monthly
			period = "monthly"
			start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(count - 1), 0)
			end = start.AddDate(0, count, 0).AddDate(0, 0, -1)
		}

		type row struct {
			Bucket   time.Time `gorm:"column:bucket"`
			Currency string    `gorm:"column:currency"`
			Method   string    `gorm:"column:method"`
			Total    float64   `gorm:"column:total"`
		}
		var rows []row

		var sql string
		switch period {
		case "weekly":
			sql = `
				SELECT date_trunc('week', date)::date AS bucket,
					   currency,
					   method,
					   SUM(amount) AS total
				FROM payments
				WHERE agency_id = ? AND date >= ? AND date <= ?
				GROUP BY bucket, currency, method
				ORDER BY bucket ASC;
			`
		case "monthly":
			sql = `
				SELECT date_trunc('month', date)::date AS bucket,
					   currency,
					   method,
					   SUM(amount) AS total
				FROM payments
				WHERE agency_id = ? AND date >= ? AND date <= ?
				GROUP BY bucket, currency, method
				ORDER BY bucket ASC;
			`
		default: // daily
			sql = `
				SELECT date::date AS bucket,
					   currency,
					   method,
					   SUM(amount) AS total
				FROM payments
				WHERE agency_id = ? AND date >= ? AND date <= ?
				GROUP BY bucket, currency, method
				ORDER BY bucket ASC;
			`
		}

		if err := database.DB.Raw(sql, agencyID, start, end).Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron agrupar los ingresos")
		}

		type bucketAgg struct {
			Bucket      time.Time
			USD         float64
			DOP         float64
			DOPCash     float64
			DOPTransfer float64
		}

		buckets := make(map[time.Time]*bucketAgg)
		for _, r := range rows {
			agg, ok := buckets[r.Bucket]
			if !ok {
				agg = &bucketAgg{Bucket: r.Bucket}
				buckets[r.Bucket] = agg
			}

			switch models.Currency(r.Currency) {
			case models.CurrencyUSD:
				agg.USD += r.Total
			case models.CurrencyDOP:
				agg.DOP += r.Total
				if r.Method == string(models.PaymentMethodCash) {
					agg.DOPCash += r.Total
				} else {
					agg.DOPTransfer += r.Total
				}
			}
		}

		ordered := make([]bucketAgg, 0, len(buckets))
		for _, v := range buckets {
			ordered = append(ordered, *v)
		}
		sort.Slice(ordered, func(i, j int) bool {
			return ordered[i].Bucket.Before(ordered[j].Bucket)
		})

		points := make([]IncomeChartPoint, 0, len(ordered))
		var totals IncomeChartGrandTotals
		for _, b := range ordered {
			points = append(points, IncomeChartPoint{
				Label:       b.Bucket.Format("2006-01-02"),
				USD:         b.USD,
				DOP:         b.DOP,
				DOPCash:     b.DOPCash,
				DOPTransfer: b.DOPTransfer,
			})
			totals.USD += b.USD
			totals.DOP += b.DOP
			totals.DOPCash += b.DOPCash
			totals.DOPTransfer += b.DOPTransfer
		}

		return c.JSON(IncomeChartResponse{
			AgencyID:    agencyID,
			Period:      period,
			From:        start.Format("2006-01-02"),
			To:          end.Format("2006-01-02"),
			Points:      points,
			GrandTotals: totals,
		})
	}
}
