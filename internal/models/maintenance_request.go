package models

import "time"

type MaintenanceStatus string

const (
	MaintenanceStatusOpen       MaintenanceStatus = "open"
	MaintenanceStatusInProgress MaintenanceStatus = "in_progress"
	MaintenanceStatusResolved   MaintenanceStatus = "resolved"
	MaintenanceStatusCancelled  MaintenanceStatus = "cancelled"
)

type MaintenancePriority string

const (
	MaintenancePriorityLow    MaintenancePriority = "low"
	MaintenancePriorityMedium MaintenancePriority = "medium"
	MaintenancePriorityHigh   MaintenancePriority = "high"
)

// MaintenanceRequest: solicitud de mantenimiento reportada por un inquilino o la agencia
type MaintenanceRequest struct {
	ID          uint `gorm:"primaryKey"`
	AgencyID    uint `gorm:"index;not null"`
	Agency      Agency
	PropertyID  uint `gorm:"index;not null"`
	Property    Property
	TenantID    *uint `gorm:"index"` // quién la reportó (opcional)
	Tenant      *Tenant
	Title       string              `gorm:"size:200;not null"`
	Description string              `gorm:"size:2000"`
	Priority    MaintenancePriority `gorm:"size:10;default:'medium'"`
	Status      MaintenanceStatus   `gorm:"size:20;not null;default:'open'"`
	Cost        float64             `gorm:"default:0"` // costo final (al resolver)
	ResolvedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
