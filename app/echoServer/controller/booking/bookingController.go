package booking

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"hostelfinder/app/echoServer/jwtx"
	"hostelfinder/model"
	bs "hostelfinder/service/booking"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

var statusByCode = map[bs.ErrCode]int{
	bs.ErrNotFound:                      http.StatusNotFound,
	bs.ErrBadInput:                      http.StatusBadRequest,
	bs.ErrForbidden:                     http.StatusForbidden,
	bs.ErrPastCheckInDate:               http.StatusBadRequest,
	bs.ErrInvalidDateRange:              http.StatusBadRequest,
	bs.ErrInsufficientAvailableRooms:    http.StatusConflict,
	bs.ErrInsufficientRoomsForDateRange: http.StatusConflict,
	bs.ErrInvalidTransition:             http.StatusConflict,
	bs.ErrConcurrencyConflict:           http.StatusServiceUnavailable,
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	code := bs.Code(err)
	if status, ok := statusByCode[code]; ok {
		body := echo.Map{"code": code, "message": err.Error()}
		var d interface{ Detail() string }
		if errors.As(err, &d) && d.Detail() != "" {
			body["message"] = d.Detail()
		}
		return c.JSON(status, body)
	}
	h.Log.Error("booking "+op,
		"err", err,
		"req_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"path", c.Path(),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// Create books rooms in a hostel
// @Summary      Create booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateBookingReq  true  "Booking payload"
// @Success      201  {object}  BookingResp
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any "not enough rooms"
// @Failure      503  {object}  map[string]any "hostel busy, retry"
// @Security     BearerAuth
// @Router       /v1/bookings [post]
func (h *Controller) Create(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req CreateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	checkIn, err := model.ParseDate(req.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "check_in must be YYYY-MM-DD"})
	}
	checkOut, err := model.ParseDate(req.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "check_out must be YYYY-MM-DD"})
	}

	b, err := h.Svc.CreateBooking(c.Request().Context(), model.BookingRequest{
		UserID:        uid,
		HostelID:      req.HostelID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		NumberOfRooms: req.NumberOfRooms,
	})
	if err != nil {
		return h.fail(c, "create", err)
	}
	return c.JSON(http.StatusCreated, toResp(b))
}

// GET /v1/bookings/:id
func (h *Controller) Detail(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Svc.GetBooking(c.Request().Context(), uid, id)
	if err != nil {
		return h.fail(c, "detail", err)
	}
	return c.JSON(http.StatusOK, toResp(b))
}

// GET /v1/bookings/my
func (h *Controller) Mine(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Svc.ListUserBookings(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, "list mine", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toResps(rows)})
}

// GET /v1/hostels/:id/bookings  (owner)
func (h *Controller) ByHostel(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rows, err := h.Svc.ListHostelBookings(c.Request().Context(), uid, id)
	if err != nil {
		return h.fail(c, "list hostel", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toResps(rows)})
}

// Cancel a booking
// @Summary      Cancel booking
// @Description  Guest or hostel owner cancels a pending or confirmed booking; rooms go back to the pool
// @Tags         bookings
// @Produce      json
// @Param        id   path  int  true  "Booking ID"
// @Success      200  {object}  BookingResp
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any "already cancelled or completed"
// @Security     BearerAuth
// @Router       /v1/bookings/{id}/cancel [put]
func (h *Controller) Cancel(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Svc.CancelBooking(c.Request().Context(), uid, id)
	if err != nil {
		return h.fail(c, "cancel", err)
	}
	return c.JSON(http.StatusOK, toResp(b))
}

// PUT /v1/bookings/:id/confirm  (owner)
func (h *Controller) Confirm(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Svc.ConfirmBooking(c.Request().Context(), uid, id)
	if err != nil {
		return h.fail(c, "confirm", err)
	}
	return c.JSON(http.StatusOK, toResp(b))
}
