package reviewrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"hostelfinder/model"
	"hostelfinder/util/database"
)

type Repo interface {
	// Create inserts the review and refreshes the hostel's rating and
	// review count in one transaction.
	Create(ctx context.Context, rv *model.Review) error
	ListByHostel(ctx context.Context, hostelID int64, limit, offset int) ([]model.Review, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, rv *model.Review) error {
	return r.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, `SELECT id FROM hostels WHERE id = $1 FOR UPDATE`, rv.HostelID).Scan(&id); err != nil {
			return err
		}

		const ins = `
			INSERT INTO reviews (hostel_id, user_id, rating, comment)
			VALUES ($1,$2,$3,$4)
			RETURNING id, created_at`
		if err := tx.QueryRow(ctx, ins, rv.HostelID, rv.UserID, rv.Rating, rv.Comment).Scan(&rv.ID, &rv.CreatedAt); err != nil {
			return err
		}

		const agg = `
			UPDATE hostels h
			SET rating = s.avg_rating,
				total_reviews = s.cnt,
				updated_at = NOW()
			FROM (
				SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS cnt
				FROM reviews
				WHERE hostel_id = $1
			) s
			WHERE h.id = $1`
		_, err := tx.Exec(ctx, agg, rv.HostelID)
		return err
	})
}

func (r *repo) ListByHostel(ctx context.Context, hostelID int64, limit, offset int) ([]model.Review, error) {
	const q = `
		SELECT id, hostel_id, user_id, rating, comment, created_at
		FROM reviews
		WHERE hostel_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Pool.Query(ctx, q, hostelID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.HostelID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
