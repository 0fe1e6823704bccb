package models

import "time"

// Tenant: inquilino. Igual que Owner, la cuenta de usuario es opcional.
type Tenant struct {
	ID        uint `gorm:"primaryKey"`
	AgencyID  uint `gorm:"index;not null"`
	Agency    Agency
	UserID    *uint `gorm:"index"`
	User      *User
	Name      string `gorm:"size:150;not null"`
	Email     string `gorm:"size:100"`
	Phone     string `gorm:"size:50"`
	Cedula    string `gorm:"size:20"`
	Notes     string `gorm:"size:500"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
