package models

import "time"

// Agency: inmobiliaria. Todo el resto de los datos cuelga de una agencia.
type Agency struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null"`
	RNC       string `gorm:"size:20"` // registro nacional del contribuyente
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:50"`
	Email     string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
