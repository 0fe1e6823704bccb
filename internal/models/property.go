package models

import "time"

type PropertyStatus string

const (
	PropertyStatusAvailable   PropertyStatus = "available"   // disponible
	PropertyStatusRented      PropertyStatus = "rented"      // alquilada
	PropertyStatusMaintenance PropertyStatus = "maintenance" // en mantenimiento
)

// Property: un inmueble administrado por la agencia
type Property struct {
	ID          uint   `gorm:"primaryKey"`
	AgencyID    uint   `gorm:"index;not null"`
	Agency      Agency
	OwnerID     uint `gorm:"index;not null"`
	Owner       Owner
	Name        string         `gorm:"size:200;not null"` // nombre corto (ej: "Apto 3B Torre Caoba")
	Address     string         `gorm:"size:255"`
	City        string         `gorm:"size:100"`
	Type        string         `gorm:"size:50"` // apartamento / casa / local / solar
	Bedrooms    int            `gorm:"default:0"`
	Bathrooms   int            `gorm:"default:0"`
	Status      PropertyStatus `gorm:"size:20;default:'available'"`
	Description string         `gorm:"size:1000"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
