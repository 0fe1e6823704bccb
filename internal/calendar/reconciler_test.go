package calendar

import (
	"sort"
	"testing"
	"time"

	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLeaseSource struct {
	leases []models.Lease
}

func (f *fakeLeaseSource) FetchLeases(actx auth.Context) ([]models.Lease, error) {
	return f.leases, nil
}

type fakeEventStore struct {
	events  []models.CalendarEvent
	nextID  uint
	inserts int
	updates int
	deletes int
}

func newFakeEventStore(seed ...models.CalendarEvent) *fakeEventStore {
	s := &fakeEventStore{nextID: 1}
	for _, ev := range seed {
		ev.ID = s.nextID
		s.nextID++
		s.events = append(s.events, ev)
	}
	return s
}

func (s *fakeEventStore) List(userID uint, eventType models.CalendarEventType) ([]models.CalendarEvent, error) {
	out := make([]models.CalendarEvent, 0, len(s.events))
	for _, ev := range s.events {
		if ev.UserID == userID && ev.Type == eventType {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeEventStore) InsertMany(events []models.CalendarEvent) error {
	for _, ev := range events {
		ev.ID = s.nextID
		s.nextID++
		s.events = append(s.events, ev)
		s.inserts++
	}
	return nil
}

func (s *fakeEventStore) UpdateOne(id uint, patch map[string]interface{}) error {
	for i := range s.events {
		if s.events[i].ID != id {
			continue
		}
		if v, ok := patch["title"].(string); ok {
			s.events[i].Title = v
		}
		if v, ok := patch["start"].(time.Time); ok {
			s.events[i].Start = v
		}
		if v, ok := patch["end"].(time.Time); ok {
			s.events[i].End = v
		}
		if v, ok := patch["alert_minutes_before"].(int); ok {
			s.events[i].AlertMinutesBefore = v
		}
		if v, ok := patch["property_id"].(*uint); ok {
			s.events[i].PropertyID = v
		}
		s.updates++
		return nil
	}
	return nil
}

func (s *fakeEventStore) DeleteMany(ids []uint) error {
	keep := s.events[:0]
	for _, ev := range s.events {
		drop := false
		for _, id := range ids {
			if ev.ID == id {
				drop = true
				break
			}
		}
		if drop {
			s.deletes++
		} else {
			keep = append(keep, ev)
		}
	}
	s.events = keep
	return nil
}

func uintPtr(v uint) *uint { return &v }

func testLease(id, propertyID uint, name string, end time.Time, status models.LeaseStatus) models.Lease {
	return models.Lease{
		ID:         id,
		AgencyID:   1,
		PropertyID: propertyID,
		Property:   models.Property{ID: propertyID, Name: name},
		EndDate:    end,
		Status:     status,
	}
}

func expiryEvent(userID uint, leaseID *uint) models.CalendarEvent {
	return models.CalendarEvent{
		UserID:  userID,
		Type:    models.CalendarEventLeaseExpiry,
		LeaseID: leaseID,
		Title:   "viejo",
	}
}

func TestSyncInsertsEventForActiveLease(t *testing.T) {
	end := time.Date(2026, 3, 15, 12, 30, 0, 0, time.Local)
	leases := &fakeLeaseSource{leases: []models.Lease{
		testLease(10, 5, "Apto 3B Torre Caoba", end, models.LeaseStatusActive),
	}}
	store := newFakeEventStore()

	r := &Reconciler{Leases: leases, Events: store, AlertDays: 30, AlertTime: "09:00"}
	res, err := r.Sync(auth.Context{UserID: 7, Role: models.RoleAgencyAdmin, AgencyID: uintPtr(1)})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	require.Len(t, store.events, 1)

	ev := store.events[0]
	assert.Equal(t, uint(7), ev.UserID)
	assert.Equal(t, uint(10), *ev.LeaseID)
	assert.Contains(t, ev.Title, "Apto 3B Torre Caoba")
	assert.True(t, ev.AllDay)

	// Día completo: medianoche local a medianoche siguiente
	wantStart := time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local)
	assert.True(t, ev.Start.Equal(wantStart))
	assert.True(t, ev.End.Equal(wantStart.AddDate(0, 0, 1)))

	// 30 días + 09:00
	assert.Equal(t, 30*24*60+9*60, ev.AlertMinutesBefore)
}

func TestSyncPrunesOrphansAndDuplicates(t *testing.T) {
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local)
	leases := &fakeLeaseSource{leases: []models.Lease{
		testLease(20, 9, "Casa Gazcue", end, models.LeaseStatusActive),
	}}

	// Tres huérfanos sin lease_id y dos eventos para el mismo contrato
	store := newFakeEventStore(
		expiryEvent(7, nil),
		expiryEvent(7, nil),
		expiryEvent(7, nil),
		expiryEvent(7, uintPtr(20)),
		expiryEvent(7, uintPtr(20)),
	)

	r := &Reconciler{Leases: leases, Events: store, AlertDays: 15, AlertTime: "09:00"}
	res, err := r.Sync(auth.Context{UserID: 7, Role: models.RoleAgencyAdmin, AgencyID: uintPtr(1)})
	require.NoError(t, err)

	assert.Equal(t, 4, res.DuplicatesRemoved) // 3 huérfanos + 1 duplicado
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Updated)

	// Queda exactamente un evento y es el más antiguo (id 4)
	require.Len(t, store.events, 1)
	assert.Equal(t, uint(4), store.events[0].ID)
	assert.Contains(t, store.events[0].Title, "Casa Gazcue")
}

func TestSyncDeletesEventForTerminatedLease(t *testing.T) {
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.Local)
	leases := &fakeLeaseSource{leases: []models.Lease{
		testLease(30, 2, "Local Naco", end, models.LeaseStatusTerminated),
	}}
	store := newFakeEventStore(expiryEvent(7, uintPtr(30)))

	r := &Reconciler{Leases: leases, Events: store, AlertDays: 30, AlertTime: "09:00"}
	res, err := r.Sync(auth.Context{UserID: 7, Role: models.RoleAgencyAdmin, AgencyID: uintPtr(1)})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 0, res.Inserted)
	assert.Empty(t, store.events)

	// Rescindido sin evento previo: no pasa nada
	res, err = r.Sync(auth.Context{UserID: 7, Role: models.RoleAgencyAdmin, AgencyID: uintPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, SyncResult{}, res)
}

func TestSyncIsIdempotent(t *testing.T) {
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.Local)
	leases := &fakeLeaseSource{leases: []models.Lease{
		testLease(40, 3, "Villa Cabarete", end, models.LeaseStatusActive),
		testLease(41, 4, "Apto Piantini", end.AddDate(0, 2, 0), models.LeaseStatusActive),
	}}
	store := newFakeEventStore()

	r := &Reconciler{Leases: leases, Events: store, AlertDays: 30, AlertTime: "08:30"}
	actx := auth.Context{UserID: 7, Role: models.RoleAgencyAdmin, AgencyID: uintPtr(1)}

	res, err := r.Sync(actx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	// Segunda corrida: sin cambios de datos no hay altas, bajas ni duplicados;
	// las actualizaciones son incondicionales por diseño.
	res, err = r.Sync(actx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 0, res.Deleted)
	assert.Equal(t, 0, res.DuplicatesRemoved)
	assert.Equal(t, 2, res.Updated)
	assert.Len(t, store.events, 2)
}

func TestSyncUpdatesChangedEndDate(t *testing.T) {
	end := time.Date(2026, 5, 10, 0, 0, 0, 0, time.Local)
	src := &fakeLeaseSource{leases: []models.Lease{
		testLease(50, 6, "Penthouse Bella Vista", end, models.LeaseStatusActive),
	}}
	store := newFakeEventStore()

	r := &Reconciler{Leases: src, Events: store, AlertDays: 30, AlertTime: "09:00"}
	actx := auth.Context{UserID: 7, Role: models.RoleAgencyAdmin, AgencyID: uintPtr(1)}

	_, err := r.Sync(actx)
	require.NoError(t, err)

	// El contrato se extiende tres meses
	src.leases[0].EndDate = end.AddDate(0, 3, 0)
	res, err := r.Sync(actx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	wantStart := time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local)
	require.Len(t, store.events, 1)
	assert.True(t, store.events[0].Start.Equal(wantStart))
}

func TestAlertMinutesClamping(t *testing.T) {
	cases := []struct {
		days int
		time string
		want int
	}{
		{30, "09:00", 30*24*60 + 540},
		{0, "00:00", 0},
		{7, "", 7*24*60 + 540},        // sin hora -> 09:00
		{7, "basura", 7*24*60 + 540},  // ilegible -> 09:00
		{-5, "09:00", 540},            // días negativos -> 0
		{1, "99:99", 24*60 + 23*60 + 59}, // componentes recortados
	}

	for _, tc := range cases {
		r := &Reconciler{AlertDays: tc.days, AlertTime: tc.time}
		assert.Equal(t, tc.want, r.alertMinutesBefore(), "days=%d time=%q", tc.days, tc.time)
	}
}

func TestSyncRequiresUser(t *testing.T) {
	r := &Reconciler{Leases: &fakeLeaseSource{}, Events: newFakeEventStore()}
	_, err := r.Sync(auth.Context{})
	require.Error(t, err)
}
