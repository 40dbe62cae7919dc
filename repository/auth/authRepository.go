package auth

import (
	"context"

	"hostelfinder/model"
	"hostelfinder/util/database"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO users(full_name, email, password_hash, phone, user_type)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		u.FullName, u.Email, u.PasswordHash, u.Phone, u.UserType,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := r.db.Pool.QueryRow(ctx, `
        SELECT id, full_name, email, password_hash, phone, user_type, created_at
        FROM users
        WHERE lower(email) = lower($1)`,
		email,
	).Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Phone, &u.UserType, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
