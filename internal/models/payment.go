package models

import "time"

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"     // efectivo
	PaymentMethodTransfer PaymentMethod = "transfer" // transferencia bancaria
)

// Payment: pago recibido. Es la fuente de los totales por moneda/método
// que alimentan los reportes de gerencia y de propietario.
type Payment struct {
	ID         uint `gorm:"primaryKey"`
	AgencyID   uint `gorm:"index;not null"`
	Agency     Agency
	PropertyID uint `gorm:"index;not null"`
	Property   Property
	OwnerID    uint `gorm:"index;not null"`
	Owner      Owner
	LeaseID    *uint `gorm:"index"`
	Lease      *Lease
	InvoiceID  *uint `gorm:"index"` // factura que salda (opcional)
	Invoice    *Invoice
	Date       time.Time     `gorm:"index;not null"`
	Amount     float64       `gorm:"not null"`
	Currency   Currency      `gorm:"size:3;not null"`
	Method     PaymentMethod `gorm:"size:20;not null"`
	Reference  string        `gorm:"size:100"` // número de referencia bancaria
	Notes      string        `gorm:"size:255"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
