package hostelrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"hostelfinder/model"
	ledgerrepo "hostelfinder/repository/ledger"
	"hostelfinder/util/database"
)

// Columns is the select list understood by Scan.
const Columns = `id, owner_id, name, description, address, pincode, price_per_night,
	total_rooms, available_rooms, facilities, images, rating, total_reviews, created_at, updated_at`

type Repo interface {
	Create(ctx context.Context, h *model.Hostel) error
	List(ctx context.Context) ([]model.Hostel, error)
	Detail(ctx context.Context, id int64) (*model.Hostel, error)
	Search(ctx context.Context, f model.HostelFilter) ([]model.Hostel, error)

	// UpdateLocked loads the hostel under a row lock, lets fn mutate it and
	// writes it back in the same transaction. A ledger entry returned by fn is
	// appended before commit. An error from fn aborts the write.
	UpdateLocked(ctx context.Context, id int64, fn func(h *model.Hostel) (*model.LedgerEntry, error)) (*model.Hostel, error)
	// DeleteLocked loads the hostel under a row lock together with its number
	// of Pending/Confirmed bookings and deletes it unless fn objects.
	DeleteLocked(ctx context.Context, id int64, fn func(h *model.Hostel, active int) error) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func Scan(row pgx.Row) (*model.Hostel, error) {
	var h model.Hostel
	if err := row.Scan(
		&h.ID, &h.OwnerID, &h.Name, &h.Description, &h.Address, &h.Pincode, &h.PricePerNight,
		&h.TotalRooms, &h.AvailableRooms, &h.Facilities, &h.Images, &h.Rating, &h.TotalReviews,
		&h.CreatedAt, &h.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &h, nil
}

func collect(rows pgx.Rows) ([]model.Hostel, error) {
	defer rows.Close()
	var out []model.Hostel
	for rows.Next() {
		h, err := Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func (r *repo) Create(ctx context.Context, h *model.Hostel) error {
	const q = `
		INSERT INTO hostels (owner_id, name, description, address, pincode, price_per_night,
			total_rooms, available_rooms, facilities, images)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, rating, total_reviews, created_at, updated_at`
	return r.db.Pool.QueryRow(ctx, q,
		h.OwnerID, h.Name, h.Description, h.Address, h.Pincode, h.PricePerNight,
		h.TotalRooms, h.AvailableRooms, nonNil(h.Facilities), nonNil(h.Images),
	).Scan(&h.ID, &h.Rating, &h.TotalReviews, &h.CreatedAt, &h.UpdatedAt)
}

func (r *repo) List(ctx context.Context) ([]model.Hostel, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+Columns+` FROM hostels ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Hostel, error) {
	return Scan(r.db.Pool.QueryRow(ctx, `SELECT `+Columns+` FROM hostels WHERE id = $1`, id))
}

func (r *repo) Search(ctx context.Context, f model.HostelFilter) ([]model.Hostel, error) {
	// a price ceiling also hides fully booked hostels
	const q = `
		SELECT ` + Columns + `
		FROM hostels
		WHERE ($1::text = '' OR pincode = $1)
		AND ($2::numeric IS NULL OR (price_per_night <= $2 AND available_rooms > 0))
		AND facilities @> $3::text[]
		ORDER BY price_per_night, id`
	rows, err := r.db.Pool.Query(ctx, q, f.Pincode, f.MaxPrice, nonNil(f.Facilities))
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repo) UpdateLocked(ctx context.Context, id int64, fn func(h *model.Hostel) (*model.LedgerEntry, error)) (*model.Hostel, error) {
	var out *model.Hostel
	err := r.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		h, err := Scan(tx.QueryRow(ctx, `SELECT `+Columns+` FROM hostels WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		entry, err := fn(h)
		if err != nil {
			return err
		}
		const q = `
			UPDATE hostels
			SET name = $2, description = $3, address = $4, pincode = $5, price_per_night = $6,
				total_rooms = $7, available_rooms = $8, facilities = $9, images = $10, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`
		if err := tx.QueryRow(ctx, q,
			h.ID, h.Name, h.Description, h.Address, h.Pincode, h.PricePerNight,
			h.TotalRooms, h.AvailableRooms, nonNil(h.Facilities), nonNil(h.Images),
		).Scan(&h.UpdatedAt); err != nil {
			return err
		}
		if entry != nil {
			if err := ledgerrepo.Insert(ctx, tx, entry); err != nil {
				return err
			}
		}
		out = h
		return nil
	})
	return out, err
}

func (r *repo) DeleteLocked(ctx context.Context, id int64, fn func(h *model.Hostel, active int) error) error {
	return r.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		h, err := Scan(tx.QueryRow(ctx, `SELECT `+Columns+` FROM hostels WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		var active int
		const q = `
			SELECT COUNT(*)
			FROM bookings
			WHERE hostel_id = $1
			AND status IN ('PENDING', 'CONFIRMED')`
		if err := tx.QueryRow(ctx, q, id).Scan(&active); err != nil {
			return err
		}
		if err := fn(h, active); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM hostels WHERE id = $1`, id)
		return err
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
