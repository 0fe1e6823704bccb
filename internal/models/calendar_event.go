package models

import "time"

type CalendarEventType string

const (
	CalendarEventLeaseExpiry CalendarEventType = "lease_expiry"
)

// CalendarEvent: evento de calendario de un usuario.
// Para el tipo lease_expiry la invariante es: como máximo un evento por
// contrato y por usuario; la sincronización poda cualquier duplicado.
type CalendarEvent struct {
	ID         uint `gorm:"primaryKey"`
	UserID     uint `gorm:"index;not null"`
	AgencyID   *uint
	Type       CalendarEventType `gorm:"size:30;index;not null"`
	LeaseID    *uint             `gorm:"index"`
	PropertyID *uint
	Title      string    `gorm:"size:255;not null"`
	Start      time.Time `gorm:"not null"`
	End        time.Time `gorm:"not null"`
	AllDay     bool      `gorm:"default:false"`
	// Minutos de antelación del recordatorio (días de alerta + hora del día configurada)
	AlertMinutesBefore int `gorm:"default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
