package models

import "time"

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// Invoice: factura mensual de alquiler (u otro cargo) asociada a un contrato
type Invoice struct {
	ID        uint `gorm:"primaryKey"`
	AgencyID  uint `gorm:"index;not null"`
	Agency    Agency
	LeaseID   uint `gorm:"index;not null"`
	Lease     Lease
	Number    string        `gorm:"size:30;index"` // número de factura (ej: "INV-2025-0042")
	Concept   string        `gorm:"size:255"`      // concepto (ej: "Alquiler agosto 2025")
	Amount    float64       `gorm:"not null"`
	Currency  Currency      `gorm:"size:3;not null;default:'DOP'"`
	DueDate   time.Time     `gorm:"index;not null"`
	Status    InvoiceStatus `gorm:"size:20;not null;default:'pending'"`
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
