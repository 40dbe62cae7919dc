package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"hostelfinder/model"
	"hostelfinder/util/database"
)

// memStore is an in-memory Repo. Atomic units hold one mutex for their whole
// run and are rolled back from a snapshot when fn fails.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]model.User
	hostels  map[int64]model.Hostel
	bookings map[int64]model.Booking
	ledger   []model.LedgerEntry
	nextID   int64

	conflicts   int // fail this many Atomic calls with ErrConflict first
	atomicCalls int
}

var _ Repo = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]model.User{},
		hostels:  map[int64]model.Hostel{},
		bookings: map[int64]model.Booking{},
		nextID:   1000,
	}
}

func (m *memStore) addUser(id int64, t model.UserType) {
	m.users[id] = model.User{ID: id, FullName: fmt.Sprintf("user %d", id), UserType: t}
}

func (m *memStore) addHostel(h model.Hostel) { m.hostels[h.ID] = h }

func (m *memStore) hostel(id int64) model.Hostel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hostels[id]
}

func (m *memStore) booking(id int64) model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memStore) ledgerEntries() []model.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.LedgerEntry(nil), m.ledger...)
}

func (m *memStore) FindUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (m *memStore) FindHostelByID(_ context.Context, id int64) (*model.Hostel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hostels[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &h, nil
}

func (m *memStore) FindBookingByID(_ context.Context, id int64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &b, nil
}

func (m *memStore) FindBookingsByUser(_ context.Context, userID int64) ([]model.Booking, error) {
	return m.filter(func(b model.Booking) bool { return b.UserID == userID }), nil
}

func (m *memStore) FindBookingsByHostel(_ context.Context, hostelID int64) ([]model.Booking, error) {
	return m.filter(func(b model.Booking) bool { return b.HostelID == hostelID }), nil
}

func (m *memStore) ListCompletable(_ context.Context, asOf time.Time, limit int) ([]int64, error) {
	var ids []int64
	for _, b := range m.filter(func(b model.Booking) bool {
		return b.Status == model.BookingConfirmed && !b.CheckOut.After(asOf)
	}) {
		ids = append(ids, b.ID)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memStore) filter(keep func(model.Booking) bool) []model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) Atomic(ctx context.Context, fn func(ctx context.Context, u Unit) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.atomicCalls++
	if m.conflicts > 0 {
		m.conflicts--
		return fmt.Errorf("%w: could not obtain lock", database.ErrConflict)
	}

	hostels := make(map[int64]model.Hostel, len(m.hostels))
	for k, v := range m.hostels {
		hostels[k] = v
	}
	bookings := make(map[int64]model.Booking, len(m.bookings))
	for k, v := range m.bookings {
		bookings[k] = v
	}
	ledger := append([]model.LedgerEntry(nil), m.ledger...)
	nextID := m.nextID

	if err := fn(ctx, &memUnit{m: m}); err != nil {
		m.hostels, m.bookings, m.ledger, m.nextID = hostels, bookings, ledger, nextID
		return err
	}
	return nil
}

// memUnit runs with memStore.mu already held.
type memUnit struct{ m *memStore }

func (u *memUnit) LockHostel(_ context.Context, id int64) (*model.Hostel, error) {
	h, ok := u.m.hostels[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &h, nil
}

func (u *memUnit) LockBooking(_ context.Context, id int64) (*model.Booking, error) {
	b, ok := u.m.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &b, nil
}

func (u *memUnit) FindOverlappingBookings(_ context.Context, hostelID int64, checkIn, checkOut time.Time) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range u.m.bookings {
		if b.HostelID == hostelID && b.Status.HoldsInventory() && b.Overlaps(checkIn, checkOut) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (u *memUnit) InsertBooking(_ context.Context, b *model.Booking) error {
	u.m.nextID++
	b.ID = u.m.nextID
	u.m.bookings[b.ID] = *b
	return nil
}

func (u *memUnit) UpdateBookingStatus(_ context.Context, b *model.Booking) error {
	cur, ok := u.m.bookings[b.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cur.Status = b.Status
	cur.UpdatedAt = b.UpdatedAt
	u.m.bookings[b.ID] = cur
	return nil
}

func (u *memUnit) SaveAvailableRooms(_ context.Context, hostelID int64, available int) error {
	h, ok := u.m.hostels[hostelID]
	if !ok {
		return pgx.ErrNoRows
	}
	// mirrors hostels_available_rooms_check
	if available < 0 || available > h.TotalRooms {
		return fmt.Errorf("check constraint violated: available_rooms=%d", available)
	}
	h.AvailableRooms = available
	u.m.hostels[hostelID] = h
	return nil
}

func (u *memUnit) InsertLedger(_ context.Context, e *model.LedgerEntry) error {
	u.m.nextID++
	e.ID = u.m.nextID
	u.m.ledger = append(u.m.ledger, *e)
	return nil
}
