package calendar

import (
	"errors"

	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"
)

var ErrNoAgency = errors.New("el usuario no tiene agencia asociada")

// Implementaciones GORM de LeaseSource y EventStore.

type gormLeaseSource struct{}

func NewLeaseSource() LeaseSource { return gormLeaseSource{} }

// FetchLeases aplica el alcance por rol:
// agency_admin ve todos los contratos de su agencia, un propietario los de
// sus inmuebles y un inquilino los suyos.
func (gormLeaseSource) FetchLeases(actx auth.Context) ([]models.Lease, error) {
	var leases []models.Lease

	q := database.DB.Preload("Property").Order("leases.id ASC")

	switch actx.Role {
	case models.RoleAgencyAdmin:
		if actx.AgencyID == nil {
			return nil, ErrNoAgency
		}
		q = q.Where("leases.agency_id = ?", *actx.AgencyID)
	case models.RoleOwner:
		q = q.Joins("JOIN properties ON properties.id = leases.property_id").
			Joins("JOIN owners ON owners.id = properties.owner_id").
			Where("owners.user_id = ?", actx.UserID)
	case models.RoleTenant:
		q = q.Joins("JOIN tenants ON tenants.id = leases.tenant_id").
			Where("tenants.user_id = ?", actx.UserID)
	default:
		return nil, ErrNoAgency
	}

	if err := q.Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}

type gormEventStore struct{}

func NewEventStore() EventStore { return gormEventStore{} }

// List devuelve los eventos ordenados por id ascendente: la poda de duplicados
// conserva "el primero", así que el orden estable hace el corte determinista.
func (gormEventStore) List(userID uint, eventType models.CalendarEventType) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	err := database.DB.
		Where("user_id = ? AND type = ?", userID, eventType).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (gormEventStore) InsertMany(events []models.CalendarEvent) error {
	return database.DB.Create(&events).Error
}

func (gormEventStore) UpdateOne(id uint, patch map[string]interface{}) error {
	return database.DB.Model(&models.CalendarEvent{}).Where("id = ?", id).Updates(patch).Error
}

func (gormEventStore) DeleteMany(ids []uint) error {
	return database.DB.Delete(&models.CalendarEvent{}, "id IN ?", ids).Error
}
