package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/models"
)

// LeaseSource entrega los contratos visibles para el usuario autenticado.
type LeaseSource interface {
	FetchLeases(actx auth.Context) ([]models.Lease, error)
}

// EventStore: persistencia de eventos de calendario del usuario.
type EventStore interface {
	List(userID uint, eventType models.CalendarEventType) ([]models.CalendarEvent, error)
	InsertMany(events []models.CalendarEvent) error
	UpdateOne(id uint, patch map[string]interface{}) error
	DeleteMany(ids []uint) error
}

// Reconciler mantiene exactamente un evento de vencimiento por contrato activo.
type Reconciler struct {
	Leases    LeaseSource
	Events    EventStore
	AlertDays int    // días de antelación del recordatorio
	AlertTime string // hora del recordatorio "HH:MM" (por defecto 09:00)
}

type SyncResult struct {
	DuplicatesRemoved int `json:"duplicates_removed"`
	Inserted          int `json:"inserted"`
	Updated           int `json:"updated"`
	Deleted           int `json:"deleted"`
}

// Sync sincroniza los eventos de vencimiento del usuario con sus contratos.
//
// 1. poda duplicados (incluye huérfanos sin lease_id)
// 2. contrato rescindido -> borrar su evento
// 3. contrato vigente -> insertar o actualizar el evento con la forma objetivo
//
// Las inserciones van primero, luego las actualizaciones y al final los
// borrados, para que un contrato que pasó a rescindido en esta misma corrida
// no se reinserte antes de borrarse. No es transaccional: un fallo a mitad
// deja aplicado lo anterior, y la siguiente corrida reconverge sola.
func (r *Reconciler) Sync(actx auth.Context) (SyncResult, error) {
	var result SyncResult

	if actx.UserID == 0 {
		return result, fmt.Errorf("no autenticado")
	}

	leases, err := r.Leases.FetchLeases(actx)
	if err != nil {
		return result, fmt.Errorf("no se pudieron obtener los contratos: %w", err)
	}

	events, err := r.Events.List(actx.UserID, models.CalendarEventLeaseExpiry)
	if err != nil {
		return result, fmt.Errorf("no se pudieron obtener los eventos: %w", err)
	}

	// Poda de duplicados: se conserva el primero por lease_id (el más antiguo,
	// el store lista por id ascendente); los eventos sin lease_id son huérfanos
	// y se eliminan todos.
	byLease := make(map[uint]models.CalendarEvent)
	var duplicateIDs []uint
	for _, ev := range events {
		if ev.LeaseID == nil {
			duplicateIDs = append(duplicateIDs, ev.ID)
			continue
		}
		if _, exists := byLease[*ev.LeaseID]; exists {
			duplicateIDs = append(duplicateIDs, ev.ID)
			continue
		}
		byLease[*ev.LeaseID] = ev
	}

	if len(duplicateIDs) > 0 {
		if err := r.Events.DeleteMany(duplicateIDs); err != nil {
			return result, fmt.Errorf("no se pudieron eliminar los duplicados: %w", err)
		}
		result.DuplicatesRemoved = len(duplicateIDs)
	}

	alertMinutes := r.alertMinutesBefore()

	var inserts []models.CalendarEvent
	type update struct {
		id    uint
		patch map[string]interface{}
	}
	var updates []update
	var deleteIDs []uint

	for _, lease := range leases {
		existing, hasEvent := byLease[lease.ID]

		if lease.Status == models.LeaseStatusTerminated {
			if hasEvent {
				deleteIDs = append(deleteIDs, existing.ID)
			}
			continue
		}

		target := r.buildEvent(actx.UserID, lease, alertMinutes)

		if !hasEvent {
			inserts = append(inserts, target)
			continue
		}

		// Siempre se actualiza, aunque nada haya cambiado: recalcular la forma
		// objetivo completa es más simple que comparar campo a campo.
		updates = append(updates, update{
			id: existing.ID,
			patch: map[string]interface{}{
				"title":                target.Title,
				"start":                target.Start,
				"end":                  target.End,
				"all_day":              true,
				"alert_minutes_before": target.AlertMinutesBefore,
				"property_id":          target.PropertyID,
			},
		})
	}

	if len(inserts) > 0 {
		if err := r.Events.InsertMany(inserts); err != nil {
			return result, fmt.Errorf("no se pudieron crear los eventos: %w", err)
		}
		result.Inserted = len(inserts)
	}

	for _, u := range updates {
		if err := r.Events.UpdateOne(u.id, u.patch); err != nil {
			return result, fmt.Errorf("no se pudo actualizar el evento %d: %w", u.id, err)
		}
		result.Updated++
	}

	if len(deleteIDs) > 0 {
		if err := r.Events.DeleteMany(deleteIDs); err != nil {
			return result, fmt.Errorf("no se pudieron eliminar los eventos: %w", err)
		}
		result.Deleted = len(deleteIDs)
	}

	return result, nil
}

// buildEvent arma la forma objetivo del evento: todo el día sobre la fecha de
// vencimiento, de medianoche local a la medianoche siguiente.
func (r *Reconciler) buildEvent(userID uint, lease models.Lease, alertMinutes int) models.CalendarEvent {
	end := lease.EndDate
	start := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.Local)

	title := fmt.Sprintf("Vencimiento de contrato: %s", lease.Property.Name)
	if lease.Property.Name == "" {
		title = fmt.Sprintf("Vencimiento de contrato #%d", lease.ID)
	}

	leaseID := lease.ID
	propertyID := lease.PropertyID
	agencyID := lease.AgencyID

	return models.CalendarEvent{
		UserID:             userID,
		AgencyID:           &agencyID,
		Type:               models.CalendarEventLeaseExpiry,
		LeaseID:            &leaseID,
		PropertyID:         &propertyID,
		Title:              title,
		Start:              start,
		End:                start.AddDate(0, 0, 1),
		AllDay:             true,
		AlertMinutesBefore: alertMinutes,
	}
}

// alertMinutesBefore: días de alerta convertidos a minutos más la hora del día
// configurada. Cada componente se recorta a su rango válido.
func (r *Reconciler) alertMinutesBefore() int {
	days := r.AlertDays
	if days < 0 {
		days = 0
	}

	hh, mm := 9, 0 // por defecto 09:00
	if parts := strings.SplitN(r.AlertTime, ":", 2); len(parts) == 2 {
		if h, err := strconv.Atoi(parts[0]); err == nil {
			hh = h
		}
		if m, err := strconv.Atoi(parts[1]); err == nil {
			mm = m
		}
	}
	hh = clamp(hh, 0, 23)
	mm = clamp(mm, 0, 59)

	return days*24*60 + hh*60 + mm
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
