package reviewsvc_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"hostelfinder/model"
	reviewsvc "hostelfinder/service/review"
)

type repoMock struct {
	createFn func(ctx context.Context, rv *model.Review) error
	listFn   func(ctx context.Context, hostelID int64, limit, offset int) ([]model.Review, error)
}

func (m *repoMock) Create(ctx context.Context, rv *model.Review) error { return m.createFn(ctx, rv) }
func (m *repoMock) ListByHostel(ctx context.Context, hostelID int64, limit, offset int) ([]model.Review, error) {
	return m.listFn(ctx, hostelID, limit, offset)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	m := &repoMock{createFn: func(ctx context.Context, rv *model.Review) error {
		rv.ID = 3
		return nil
	}}
	s := reviewsvc.New(m)

	rv, err := s.Create(ctx, 8, model.ReviewReq{HostelID: 1, Rating: 5, Comment: "  clean rooms, friendly staff  "})
	require.NoError(t, err)
	require.Equal(t, int64(3), rv.ID)
	require.Equal(t, int64(8), rv.UserID)
	require.Equal(t, "clean rooms, friendly staff", rv.Comment)
}

func TestCreate_Validation(t *testing.T) {
	s := reviewsvc.New(&repoMock{})
	ctx := context.Background()

	cases := []model.ReviewReq{
		{HostelID: 1, Rating: 0, Comment: "perfectly fine"},
		{HostelID: 1, Rating: 6, Comment: "perfectly fine"},
		{HostelID: 1, Rating: 3, Comment: "short"},
		{HostelID: 1, Rating: 3, Comment: strings.Repeat("a", 1001)},
	}
	for _, req := range cases {
		_, err := s.Create(ctx, 1, req)
		require.Equal(t, reviewsvc.ErrBadInput, reviewsvc.Code(err), "%+v", req.Rating)
	}
}

func TestCreate_StorageErrors(t *testing.T) {
	ctx := context.Background()
	req := model.ReviewReq{HostelID: 1, Rating: 4, Comment: "would stay again"}

	s := reviewsvc.New(&repoMock{createFn: func(ctx context.Context, rv *model.Review) error { return pgx.ErrNoRows }})
	_, err := s.Create(ctx, 1, req)
	require.Equal(t, reviewsvc.ErrNotFound, reviewsvc.Code(err))

	s = reviewsvc.New(&repoMock{createFn: func(ctx context.Context, rv *model.Review) error {
		return &pgconn.PgError{Code: "23505", ConstraintName: "reviews_hostel_user_key"}
	}})
	_, err = s.Create(ctx, 1, req)
	require.Equal(t, reviewsvc.ErrAlreadyReviewed, reviewsvc.Code(err))
}

func TestListByHostel_Paging(t *testing.T) {
	var gotLimit, gotOffset int
	m := &repoMock{listFn: func(ctx context.Context, hostelID int64, limit, offset int) ([]model.Review, error) {
		gotLimit, gotOffset = limit, offset
		return nil, nil
	}}
	s := reviewsvc.New(m)

	_, err := s.ListByHostel(context.Background(), 1, 3, 10)
	require.NoError(t, err)
	require.Equal(t, 10, gotLimit)
	require.Equal(t, 20, gotOffset)

	_, err = s.ListByHostel(context.Background(), 1, 0, 5000)
	require.NoError(t, err)
	require.Equal(t, 20, gotLimit)
	require.Equal(t, 0, gotOffset)
}
