package bookingrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"hostelfinder/model"
	hostelrepo "hostelfinder/repository/hostel"
	ledgerrepo "hostelfinder/repository/ledger"
	"hostelfinder/util/database"
)

// Unit is the storage surface of one atomic booking transition. Every
// method runs inside the same transaction.
type Unit interface {
	// LockHostel reads the hostel and holds its row lock until the unit ends.
	// All transitions lock the hostel first, which serialises them per hostel.
	LockHostel(ctx context.Context, hostelID int64) (*model.Hostel, error)
	LockBooking(ctx context.Context, bookingID int64) (*model.Booking, error)
	FindOverlappingBookings(ctx context.Context, hostelID int64, checkIn, checkOut time.Time) ([]model.Booking, error)

	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBookingStatus(ctx context.Context, b *model.Booking) error
	SaveAvailableRooms(ctx context.Context, hostelID int64, available int) error
	InsertLedger(ctx context.Context, e *model.LedgerEntry) error
}

type Repo interface {
	FindUserByID(ctx context.Context, id int64) (*model.User, error)
	FindHostelByID(ctx context.Context, id int64) (*model.Hostel, error)
	FindBookingByID(ctx context.Context, id int64) (*model.Booking, error)
	FindBookingsByUser(ctx context.Context, userID int64) ([]model.Booking, error)
	FindBookingsByHostel(ctx context.Context, hostelID int64) ([]model.Booking, error)

	// ListCompletable returns Confirmed bookings whose checkout is on or before asOf.
	ListCompletable(ctx context.Context, asOf time.Time, limit int) ([]int64, error)

	// Atomic runs fn as one transaction; it commits only if fn returns nil.
	Atomic(ctx context.Context, fn func(ctx context.Context, u Unit) error) error
}

const bookingCols = `id, user_id, hostel_id, check_in, check_out, number_of_rooms, total_price, status, created_at, updated_at`

type repo struct {
	db          *database.DB
	lockTimeout time.Duration
}

func New(db *database.DB, lockTimeout time.Duration) Repo {
	return &repo{db: db, lockTimeout: lockTimeout}
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	if err := row.Scan(
		&b.ID, &b.UserID, &b.HostelID, &b.CheckIn, &b.CheckOut,
		&b.NumberOfRooms, &b.TotalPrice, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows, err error) ([]model.Booking, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Reads

func (r *repo) FindUserByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `
		SELECT id, full_name, email, phone, user_type, created_at
		FROM users
		WHERE id = $1`
	u := &model.User{}
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.UserType, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) FindHostelByID(ctx context.Context, id int64) (*model.Hostel, error) {
	return hostelrepo.Scan(r.db.Pool.QueryRow(ctx, `SELECT `+hostelrepo.Columns+` FROM hostels WHERE id = $1`, id))
}

func (r *repo) FindBookingByID(ctx context.Context, id int64) (*model.Booking, error) {
	return scanBooking(r.db.Pool.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = $1`, id))
}

func (r *repo) FindBookingsByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	return collectBookings(r.db.Pool.Query(ctx, q, userID))
}

func (r *repo) FindBookingsByHostel(ctx context.Context, hostelID int64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + `
		FROM bookings
		WHERE hostel_id = $1
		ORDER BY check_in, id`
	return collectBookings(r.db.Pool.Query(ctx, q, hostelID))
}

func (r *repo) ListCompletable(ctx context.Context, asOf time.Time, limit int) ([]int64, error) {
	const q = `
		SELECT id
		FROM bookings
		WHERE status = 'CONFIRMED'
		AND check_out <= $1
		ORDER BY check_out, id
		LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, asOf, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// Atomic unit

func (r *repo) Atomic(ctx context.Context, fn func(ctx context.Context, u Unit) error) error {
	return r.db.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if r.lockTimeout > 0 {
			// SET does not take bind parameters
			q := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
			if _, err := tx.Exec(ctx, q); err != nil {
				return err
			}
		}
		return fn(ctx, &unit{tx: tx})
	})
}

type unit struct{ tx pgx.Tx }

func (u *unit) LockHostel(ctx context.Context, hostelID int64) (*model.Hostel, error) {
	return hostelrepo.Scan(u.tx.QueryRow(ctx, `SELECT `+hostelrepo.Columns+` FROM hostels WHERE id = $1 FOR UPDATE`, hostelID))
}

func (u *unit) LockBooking(ctx context.Context, bookingID int64) (*model.Booking, error) {
	return scanBooking(u.tx.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = $1 FOR UPDATE`, bookingID))
}

func (u *unit) FindOverlappingBookings(ctx context.Context, hostelID int64, checkIn, checkOut time.Time) ([]model.Booking, error) {
	// half-open [check_in, check_out): back-to-back stays do not overlap
	const q = `SELECT ` + bookingCols + `
		FROM bookings
		WHERE hostel_id = $1
		AND status IN ('PENDING', 'CONFIRMED')
		AND check_in < $3
		AND $2 < check_out
		ORDER BY check_in, id`
	return collectBookings(u.tx.Query(ctx, q, hostelID, checkIn, checkOut))
}

func (u *unit) InsertBooking(ctx context.Context, b *model.Booking) error {
	const q = `
		INSERT INTO bookings (user_id, hostel_id, check_in, check_out, number_of_rooms, total_price, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`
	return u.tx.QueryRow(ctx, q,
		b.UserID, b.HostelID, b.CheckIn, b.CheckOut, b.NumberOfRooms, b.TotalPrice, b.Status, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
}

func (u *unit) UpdateBookingStatus(ctx context.Context, b *model.Booking) error {
	const q = `
		UPDATE bookings
		SET status = $2,
			updated_at = $3
		WHERE id = $1`
	tag, err := u.tx.Exec(ctx, q, b.ID, b.Status, b.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (u *unit) SaveAvailableRooms(ctx context.Context, hostelID int64, available int) error {
	const q = `
		UPDATE hostels
		SET available_rooms = $2,
			updated_at = NOW()
		WHERE id = $1`
	_, err := u.tx.Exec(ctx, q, hostelID, available)
	return err
}

func (u *unit) InsertLedger(ctx context.Context, e *model.LedgerEntry) error {
	return ledgerrepo.Insert(ctx, u.tx, e)
}
