package models

import "time"

type ReportKind string

const (
	ReportKindManager ReportKind = "manager" // reporte de gerencia (con comisión)
	ReportKindOwner   ReportKind = "owner"   // reporte de propietario
)

// Report: foto guardada de los totales de un período.
// Los totales crudos vienen agregados por moneda y método desde los pagos;
// los campos de comisión solo aplican a los reportes de gerencia.
type Report struct {
	ID       uint       `gorm:"primaryKey"`
	AgencyID uint       `gorm:"index;not null"`
	Agency   Agency
	Kind     ReportKind `gorm:"size:10;not null"`
	OwnerID  *uint      `gorm:"index"` // solo para reportes de propietario
	Owner    *Owner

	// Período
	Month     string    `gorm:"size:7;index;not null"` // etiqueta "YYYY-MM"
	StartDate time.Time `gorm:"index;not null"`
	EndDate   time.Time `gorm:"index;not null"`

	// Totales crudos por moneda y método
	USDCashTotal     float64 `gorm:"default:0"`
	DOPCashTotal     float64 `gorm:"default:0"`
	USDTransferTotal float64 `gorm:"default:0"`
	DOPTransferTotal float64 `gorm:"default:0"`
	USDTotal         float64 `gorm:"default:0"`
	DOPTotal         float64 `gorm:"default:0"`

	// Tasa promedio USD→DOP aplicada (nil si no hubo ingresos en USD)
	AvgRate *float64

	// Comisión (solo kind = manager)
	FeePercent        float64 `gorm:"default:0"`
	FeeBaseDOP        float64 `gorm:"default:0"`
	FeeDOP            float64 `gorm:"default:0"`
	FeeDeductedDOP    float64 `gorm:"default:0"` // nunca mayor que DOPCashTotal
	OwnersLeftoverDOP float64 `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
