package ledgerrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"hostelfinder/model"
	"hostelfinder/util/database"
)

type Repo interface {
	ListByHostel(ctx context.Context, hostelID int64, limit int) ([]model.LedgerEntry, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

// Insert appends an entry inside the caller's transaction, next to the
// hostels.available_rooms write it records. A zero BookingID is stored as NULL.
func Insert(ctx context.Context, tx pgx.Tx, e *model.LedgerEntry) error {
	const q = `
INSERT INTO hostel_room_ledger (hostel_id, booking_id, entry_type, delta, available_after)
VALUES ($1,NULLIF($2,0),$3,$4,$5)
RETURNING id, created_at`
	return tx.QueryRow(ctx, q, e.HostelID, e.BookingID, e.EntryType, e.Delta, e.AvailableAfter).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *repo) ListByHostel(ctx context.Context, hostelID int64, limit int) ([]model.LedgerEntry, error) {
	const q = `
SELECT id, hostel_id, COALESCE(booking_id, 0), entry_type, delta, available_after, created_at
FROM hostel_room_ledger
WHERE hostel_id=$1
ORDER BY id DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, hostelID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LedgerEntry
	for rows.Next() {
		var l model.LedgerEntry
		if err := rows.Scan(&l.ID, &l.HostelID, &l.BookingID, &l.EntryType, &l.Delta, &l.AvailableAfter, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
