package models

import "time"

type LeaseStatus string

const (
	LeaseStatusActive     LeaseStatus = "active"     // vigente
	LeaseStatusTerminated LeaseStatus = "terminated" // rescindido
	LeaseStatusExpired    LeaseStatus = "expired"    // vencido
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyDOP Currency = "DOP"
)

// Lease: contrato de alquiler entre la agencia y un inquilino
type Lease struct {
	ID          uint `gorm:"primaryKey"`
	AgencyID    uint `gorm:"index;not null"`
	Agency      Agency
	PropertyID  uint `gorm:"index;not null"`
	Property    Property
	TenantID    uint `gorm:"index;not null"`
	Tenant      Tenant
	StartDate   time.Time   `gorm:"index;not null"`
	EndDate     time.Time   `gorm:"index;not null"`
	MonthlyRent float64     `gorm:"not null"`
	Currency    Currency    `gorm:"size:3;not null;default:'DOP'"`
	Deposit     float64     `gorm:"default:0"` // depósito de garantía
	Status      LeaseStatus `gorm:"size:20;not null;default:'active'"`
	Notes       string      `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
