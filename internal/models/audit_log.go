package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionUndo   AuditAction = "undo"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// ¿Qué agencia?
	AgencyID *uint `json:"agency_id"`

	// ¿Qué usuario?
	UserID   uint   `json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"` // nombre denormalizado

	// ¿Qué entidad? (ej: "payment", "invoice", "lease", "report")
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	// Tipo de operación: create/update/delete/undo
	Action AuditAction `gorm:"size:20" json:"action"`

	// Resumen corto opcional
	Description string `gorm:"size:255" json:"description"`

	// Estado anterior y posterior (JSON)
	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`

	// ¿Este log nació de un undo?
	Undone bool `json:"undone"`

	// ¿Fue revertido este log?
	IsUndone bool `gorm:"default:false" json:"is_undone"`

	UndoneBy *uint      `json:"undone_by"`
	UndoneAt *time.Time `json:"undone_at"`
}
