package reviewsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"

	"hostelfinder/model"
	reviewrepo "hostelfinder/repository/review"
	"hostelfinder/util/database"
)

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrBadInput        ErrCode = "BAD_INPUT"
	ErrAlreadyReviewed ErrCode = "ALREADY_REVIEWED"
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
func wrap(c ErrCode, d string) error { return codedError{code: c, detail: d} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

const maxPageSize = 100

type Service interface {
	Create(ctx context.Context, userID int64, req model.ReviewReq) (*model.Review, error)
	ListByHostel(ctx context.Context, hostelID int64, page, size int) ([]model.Review, error)
}

type service struct{ r reviewrepo.Repo }

func New(r reviewrepo.Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, userID int64, req model.ReviewReq) (*model.Review, error) {
	comment := strings.TrimSpace(req.Comment)
	switch n := utf8.RuneCountInString(comment); {
	case req.Rating < 1 || req.Rating > 5:
		return nil, wrap(ErrBadInput, "rating must be between 1 and 5")
	case n < 10 || n > 1000:
		return nil, wrap(ErrBadInput, "comment must be 10 to 1000 characters")
	}

	rv := &model.Review{HostelID: req.HostelID, UserID: userID, Rating: req.Rating, Comment: comment}
	if err := s.r.Create(ctx, rv); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, wrap(ErrNotFound, fmt.Sprintf("hostel %d not found", req.HostelID))
		case database.IsUniqueViolation(err, "reviews_hostel_user_key"):
			return nil, wrap(ErrAlreadyReviewed, "one review per hostel")
		}
		return nil, err
	}
	return rv, nil
}

func (s *service) ListByHostel(ctx context.Context, hostelID int64, page, size int) ([]model.Review, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = 20
	}
	return s.r.ListByHostel(ctx, hostelID, size, (page-1)*size)
}
