package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"hostelfinder/model"
	authrepo "hostelfinder/repository/auth"
	"hostelfinder/util/database"
	"hostelfinder/util/hash"
	jwtutil "hostelfinder/util/jwt"
)

type ErrCode string

const (
	ErrBadInput     ErrCode = "BAD_INPUT"
	ErrEmailTaken   ErrCode = "EMAIL_TAKEN"
	ErrInvalidCreds ErrCode = "INVALID_CREDENTIALS"
)

type codedError struct {
	code   ErrCode
	detail string
}

func (e codedError) Error() string {
	if e.detail == "" {
		return string(e.code)
	}
	return string(e.code) + ": " + e.detail
}
func (e codedError) Code() ErrCode   { return e.code }
func (e codedError) Detail() string  { return e.detail }
func wrap(c ErrCode, d string) error { return codedError{code: c, detail: d} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
}

type service struct {
	r        authrepo.Repo
	secret   string
	ttlHours int
}

func New(r authrepo.Repo, secret string, ttlHours ...int) Service {
	ttl := 24
	if len(ttlHours) > 0 && ttlHours[0] > 0 {
		ttl = ttlHours[0]
	}
	return &service{r: r, secret: secret, ttlHours: ttl}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.FullName)
	if email == "" || len(req.Password) < 6 {
		return nil, "", wrap(ErrBadInput, "email and a password of at least 6 characters are required")
	}
	userType := model.UserType(req.UserType)
	switch userType {
	case "":
		userType = model.UserSeeker
	case model.UserSeeker, model.UserOwner:
	default:
		return nil, "", wrap(ErrBadInput, "user_type must be seeker or owner")
	}

	existing, err := s.r.ByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", wrap(ErrEmailTaken, email)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}
	u := &model.User{
		FullName:     name,
		Email:        email,
		PasswordHash: hashed,
		Phone:        strings.TrimSpace(req.Phone),
		UserType:     userType,
	}
	if err := s.r.Create(ctx, u); err != nil {
		// lost the race against a concurrent signup
		if database.IsUniqueViolation(err, "users_email_key") {
			return nil, "", wrap(ErrEmailTaken, email)
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, string(u.UserType), s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", wrap(ErrBadInput, "email and password are required")
	}
	u, err := s.r.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", wrap(ErrInvalidCreds, "")
		}
		return nil, "", err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", wrap(ErrInvalidCreds, "")
	}
	token, err := jwtutil.Issue(s.secret, u.ID, string(u.UserType), s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
