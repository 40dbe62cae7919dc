package booking

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"hostelfinder/app/echoServer/jwtx"
	"hostelfinder/model"
	bs "hostelfinder/service/booking"
)

type svcMock struct {
	bs.Service
	createFn  func(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	cancelFn  func(ctx context.Context, actorID, id int64) (*model.Booking, error)
	confirmFn func(ctx context.Context, actorID, id int64) (*model.Booking, error)
}

func (m *svcMock) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	return m.createFn(ctx, req)
}
func (m *svcMock) CancelBooking(ctx context.Context, actorID, id int64) (*model.Booking, error) {
	return m.cancelFn(ctx, actorID, id)
}
func (m *svcMock) ConfirmBooking(ctx context.Context, actorID, id int64) (*model.Booking, error) {
	return m.confirmFn(ctx, actorID, id)
}

// codeErr stands in for the service's coded errors.
type codeErr bs.ErrCode

func (e codeErr) Error() string     { return string(e) }
func (e codeErr) Code() bs.ErrCode { return bs.ErrCode(e) }

func newCtl(m *svcMock) *Controller {
	return &Controller{Svc: m, V: validator.New(), Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func do(t *testing.T, handler echo.HandlerFunc, method, body string, uid int64, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	if uid > 0 {
		jwtx.Set(c, uid, "seeker")
	}
	require.NoError(t, handler(c))
	return rec
}

func TestCreate_Created(t *testing.T) {
	m := &svcMock{createFn: func(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
		require.Equal(t, int64(4), req.UserID)
		require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), req.CheckIn)
		return &model.Booking{
			ID: 1, UserID: req.UserID, HostelID: req.HostelID, CheckIn: req.CheckIn, CheckOut: req.CheckOut,
			NumberOfRooms: req.NumberOfRooms, TotalPrice: decimal.NewFromInt(800), Status: model.BookingPending,
		}, nil
	}}
	rec := do(t, newCtl(m).Create, http.MethodPost,
		`{"hostel_id":9,"check_in":"2024-06-01","check_out":"2024-06-03","number_of_rooms":4}`, 4, "")

	require.Equal(t, http.StatusCreated, rec.Code)
	var out BookingResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "800.00", out.TotalPrice)
	require.Equal(t, 2, out.Nights)
	require.Equal(t, "2024-06-03", out.CheckOut)
	require.Equal(t, model.BookingPending, out.Status)
}

func TestCreate_Rejections(t *testing.T) {
	body := `{"hostel_id":9,"check_in":"2024-06-01","check_out":"2024-06-03","number_of_rooms":4}`
	cases := []struct {
		code   bs.ErrCode
		status int
	}{
		{bs.ErrPastCheckInDate, http.StatusBadRequest},
		{bs.ErrInvalidDateRange, http.StatusBadRequest},
		{bs.ErrInsufficientAvailableRooms, http.StatusConflict},
		{bs.ErrInsufficientRoomsForDateRange, http.StatusConflict},
		{bs.ErrNotFound, http.StatusNotFound},
		{bs.ErrConcurrencyConflict, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			m := &svcMock{createFn: func(context.Context, model.BookingRequest) (*model.Booking, error) {
				return nil, codeErr(tc.code)
			}}
			rec := do(t, newCtl(m).Create, http.MethodPost, body, 4, "")
			require.Equal(t, tc.status, rec.Code)
			require.Contains(t, rec.Body.String(), string(tc.code))
		})
	}
}

func TestCreate_BadPayload(t *testing.T) {
	m := &svcMock{}
	ctl := newCtl(m)

	rec := do(t, ctl.Create, http.MethodPost, `{"hostel_id":9,"check_in":"06/01/2024","check_out":"2024-06-03","number_of_rooms":1}`, 4, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, ctl.Create, http.MethodPost, `{"hostel_id":9,"check_in":"2024-06-01","check_out":"2024-06-03","number_of_rooms":0}`, 4, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, ctl.Create, http.MethodPost, `{`, 4, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, ctl.Create, http.MethodPost, `{}`, 0, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCancelAndConfirm(t *testing.T) {
	m := &svcMock{
		cancelFn: func(ctx context.Context, actorID, id int64) (*model.Booking, error) {
			if id == 2 {
				return nil, codeErr(bs.ErrInvalidTransition)
			}
			return &model.Booking{ID: id, Status: model.BookingCancelled}, nil
		},
		confirmFn: func(ctx context.Context, actorID, id int64) (*model.Booking, error) {
			return nil, codeErr(bs.ErrForbidden)
		},
	}
	ctl := newCtl(m)

	rec := do(t, ctl.Cancel, http.MethodPut, "", 4, "1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"CANCELLED"`)

	rec = do(t, ctl.Cancel, http.MethodPut, "", 4, "2")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, ctl.Cancel, http.MethodPut, "", 4, "abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, ctl.Confirm, http.MethodPut, "", 4, "1")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnexpectedErrorIs500(t *testing.T) {
	m := &svcMock{cancelFn: func(context.Context, int64, int64) (*model.Booking, error) {
		return nil, errors.New("connection reset")
	}}
	rec := do(t, newCtl(m).Cancel, http.MethodPut, "", 4, "1")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "connection reset")
}
