package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"
)

type LogOptions struct {
	AgencyID    *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// Para jsonb de PostgreSQL usamos el JSON "null" en vez de cadena vacía
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		AgencyID:    opts.AgencyID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		Undone:      false,
		IsUndone:    false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("no se pudo guardar el log de auditoría: %w", err)
	}

	return nil
}

// UndoLog revierte la operación registrada en un log de auditoría.
// Solo se soportan las entidades con undo seguro: pagos, facturas,
// solicitudes de mantenimiento e inmuebles. Los reportes se regeneran,
// no se revierten.
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log no encontrado: %w", err)
	}

	if log.IsUndone {
		return fmt.Errorf("esta operación ya fue revertida")
	}

	switch log.Action {
	case models.AuditActionCreate:
		// Un create se revierte eliminando la entidad
		if err := deleteEntity(log.EntityType, log.EntityID); err != nil {
			return fmt.Errorf("no se pudo eliminar la entidad: %w", err)
		}

	case models.AuditActionUpdate:
		// Un update se revierte restaurando el estado anterior
		if err := restoreEntity(log.EntityType, log.EntityID, log.BeforeData); err != nil {
			return fmt.Errorf("no se pudo restaurar la entidad: %w", err)
		}

	case models.AuditActionDelete:
		// Un delete se revierte recreando la entidad
		if err := recreateEntity(log.EntityType, log.AfterData, log.BeforeData); err != nil {
			return fmt.Errorf("no se pudo recrear la entidad: %w", err)
		}

	default:
		return fmt.Errorf("este tipo de operación no se puede revertir")
	}

	now := time.Now()
	log.IsUndone = true
	log.UndoneBy = &userID
	log.UndoneAt = &now

	if err := database.DB.Save(&log).Error; err != nil {
		return fmt.Errorf("no se pudo actualizar el log: %w", err)
	}

	undoLog := models.AuditLog{
		AgencyID:    log.AgencyID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      models.AuditActionUndo,
		Description: fmt.Sprintf("Revertido: %s", log.Description),
		BeforeData:  log.AfterData,
		AfterData:   log.BeforeData,
		Undone:      true,
		IsUndone:    false,
	}

	if err := database.DB.Create(&undoLog).Error; err != nil {
		return fmt.Errorf("no se pudo guardar el log de reversión: %w", err)
	}

	return nil
}

func deleteEntity(entityType string, entityID uint) error {
	switch entityType {
	case "payment":
		return database.DB.Delete(&models.Payment{}, "id = ?", entityID).Error
	case "invoice":
		return database.DB.Delete(&models.Invoice{}, "id = ?", entityID).Error
	case "maintenance_request":
		return database.DB.Delete(&models.MaintenanceRequest{}, "id = ?", entityID).Error
	case "property":
		return database.DB.Delete(&models.Property{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("tipo de entidad sin soporte de reversión: %s", entityType)
	}
}

func recreateEntity(entityType string, afterJSON string, beforeJSON string) error {
	// Para un delete el estado a recrear quedó en before_data
	dataJSON := beforeJSON
	if dataJSON == "" || dataJSON == "null" {
		dataJSON = afterJSON
	}

	switch entityType {
	case "payment":
		var payment models.Payment
		if err := json.Unmarshal([]byte(dataJSON), &payment); err != nil {
			return err
		}
		payment.ID = 0 // crear como entidad nueva
		return database.DB.Create(&payment).Error

	case "invoice":
		var invoice models.Invoice
		if err := json.Unmarshal([]byte(dataJSON), &invoice); err != nil {
			return err
		}
		invoice.ID = 0
		return database.DB.Create(&invoice).Error

	case "maintenance_request":
		var req models.MaintenanceRequest
		if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
			return err
		}
		req.ID = 0
		return database.DB.Create(&req).Error

	case "property":
		var property models.Property
		if err := json.Unmarshal([]byte(dataJSON), &property); err != nil {
			return err
		}
		property.ID = 0
		return database.DB.Create(&property).Error

	default:
		return fmt.Errorf("tipo de entidad sin soporte de reversión: %s", entityType)
	}
}

func restoreEntity(entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "payment":
		var payment models.Payment
		if err := json.Unmarshal([]byte(dataJSON), &payment); err != nil {
			return err
		}
		return database.DB.Model(&models.Payment{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"property_id": payment.PropertyID,
			"owner_id":    payment.OwnerID,
			"lease_id":    payment.LeaseID,
			"invoice_id":  payment.InvoiceID,
			"date":        payment.Date,
			"amount":      payment.Amount,
			"currency":    payment.Currency,
			"method":      payment.Method,
			"reference":   payment.Reference,
			"notes":       payment.Notes,
		}).Error

	case "invoice":
		var invoice models.Invoice
		if err := json.Unmarshal([]byte(dataJSON), &invoice); err != nil {
			return err
		}
		return database.DB.Model(&models.Invoice{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"lease_id": invoice.LeaseID,
			"number":   invoice.Number,
			"concept":  invoice.Concept,
			"amount":   invoice.Amount,
			"currency": invoice.Currency,
			"due_date": invoice.DueDate,
			"status":   invoice.Status,
			"paid_at":  invoice.PaidAt,
		}).Error

	case "maintenance_request":
		var req models.MaintenanceRequest
		if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
			return err
		}
		return database.DB.Model(&models.MaintenanceRequest{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"property_id": req.PropertyID,
			"tenant_id":   req.TenantID,
			"title":       req.Title,
			"description": req.Description,
			"priority":    req.Priority,
			"status":      req.Status,
			"cost":        req.Cost,
			"resolved_at": req.ResolvedAt,
		}).Error

	case "property":
		var property models.Property
		if err := json.Unmarshal([]byte(dataJSON), &property); err != nil {
			return err
		}
		return database.DB.Model(&models.Property{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"owner_id":    property.OwnerID,
			"name":        property.Name,
			"address":     property.Address,
			"city":        property.City,
			"type":        property.Type,
			"bedrooms":    property.Bedrooms,
			"bathrooms":   property.Bathrooms,
			"status":      property.Status,
			"description": property.Description,
		}).Error

	default:
		return fmt.Errorf("tipo de entidad sin soporte de reversión: %s", entityType)
	}
}
