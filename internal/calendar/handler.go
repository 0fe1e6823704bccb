package calendar

import (
	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/config"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/logger"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type EventResponse struct {
	ID                 uint   `json:"id"`
	Type               string `json:"type"`
	LeaseID            *uint  `json:"lease_id"`
	PropertyID         *uint  `json:"property_id"`
	Title              string `json:"title"`
	Start              string `json:"start"`
	End                string `json:"end"`
	AllDay             bool   `json:"all_day"`
	AlertMinutesBefore int    `json:"alert_minutes_before"`
}

// POST /api/calendar/sync
// Reconcilia los eventos de vencimiento del usuario con sus contratos.
func SyncHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}

		r := &Reconciler{
			Leases:    NewLeaseSource(),
			Events:    NewEventStore(),
			AlertDays: cfg.AlertDays,
			AlertTime: cfg.AlertTime,
		}

		result, err := r.Sync(actx)
		if err != nil {
			logger.LogError("calendar", "SyncHandler", "sync de eventos de vencimiento", err)
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo sincronizar el calendario")
		}

		return c.JSON(result)
	}
}

// GET /api/calendar/events
func ListEventsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}

		var events []models.CalendarEvent
		if err := database.DB.
			Where("user_id = ?", actx.UserID).
			Order("start ASC").
			Find(&events).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los eventos")
		}

		resp := make([]EventResponse, 0, len(events))
		for _, ev := range events {
			resp = append(resp, EventResponse{
				ID:                 ev.ID,
				Type:               string(ev.Type),
				LeaseID:            ev.LeaseID,
				PropertyID:         ev.PropertyID,
				Title:              ev.Title,
				Start:              ev.Start.Format("2006-01-02 15:04:05"),
				End:                ev.End.Format("2006-01-02 15:04:05"),
				AllDay:             ev.AllDay,
				AlertMinutesBefore: ev.AlertMinutesBefore,
			})
		}

		return c.JSON(resp)
	}
}

// DELETE /api/calendar/events/:id
func DeleteEventHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}

		id := c.Params("id")

		var event models.CalendarEvent
		if err := database.DB.First(&event, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Evento no encontrado")
		}
		if event.UserID != actx.UserID {
			return fiber.NewError(fiber.StatusForbidden, "No tienes permiso sobre este evento")
		}

		if err := database.DB.Delete(&event).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el evento")
		}

		return c.JSON(fiber.Map{"deleted": event.ID})
	}
}
