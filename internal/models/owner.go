package models

import "time"

// Owner: propietario de uno o más inmuebles.
// Puede tener una cuenta de usuario asociada (rol "owner") o existir solo como ficha.
type Owner struct {
	ID        uint `gorm:"primaryKey"`
	AgencyID  uint `gorm:"index;not null"`
	Agency    Agency
	UserID    *uint `gorm:"index"` // cuenta de acceso (opcional)
	User      *User
	Name      string `gorm:"size:150;not null"`
	Email     string `gorm:"size:100"`
	Phone     string `gorm:"size:50"`
	Cedula    string `gorm:"size:20"` // cédula o pasaporte
	Notes     string `gorm:"size:500"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Properties []Property
}
