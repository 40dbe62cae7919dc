package hostel

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"hostelfinder/app/echoServer/jwtx"
	"hostelfinder/model"
	hs "hostelfinder/service/hostel"
	rs "hostelfinder/service/review"
)

type Controller struct {
	Svc       hs.Service
	ReviewSvc rs.Service
	V         *validator.Validate
	Log       *slog.Logger
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch hs.Code(err) {
	case hs.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"code": hs.ErrNotFound, "message": "hostel not found"})
	case hs.ErrBadInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"code": hs.ErrBadInput, "message": err.Error()})
	case hs.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"code": hs.ErrForbidden, "message": "forbidden"})
	case hs.ErrCapacityBelowHeld, hs.ErrHasActiveBookings:
		return c.JSON(http.StatusConflict, echo.Map{"code": hs.Code(err), "message": err.Error()})
	}
	h.Log.Error("hostel "+op, "err", err, "req_id", c.Response().Header().Get(echo.HeaderXRequestID))
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// GET /v1/hostels
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return h.fail(c, "list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/hostels/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	row, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "detail", err)
	}
	return c.JSON(http.StatusOK, row)
}

// Search hostels
// @Summary      Search hostels
// @Description  Filter by pincode, price ceiling and facilities (all must match)
// @Tags         hostels
// @Produce      json
// @Param        pincode     query  string  false  "Pincode"
// @Param        maxPrice    query  number  false  "Max price per night"
// @Param        facilities  query  string  false  "Comma separated facilities"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /v1/hostels/search [get]
func (h *Controller) Search(c echo.Context) error {
	var q SearchQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid query"})
	}
	if err := h.V.Struct(q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	f := model.HostelFilter{Pincode: q.Pincode}
	if q.MaxPrice != "" {
		p, err := decimal.NewFromString(q.MaxPrice)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid maxPrice"})
		}
		f.MaxPrice = &p
	}
	for _, fac := range strings.Split(q.Facilities, ",") {
		if fac = strings.TrimSpace(fac); fac != "" {
			f.Facilities = append(f.Facilities, fac)
		}
	}

	rows, err := h.Svc.Search(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, "search", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// Create a hostel
// @Summary      Create hostel
// @Tags         hostels
// @Accept       json
// @Produce      json
// @Param        payload  body  model.HostelReq  true  "Hostel payload"
// @Success      201  {object}  model.Hostel
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any "owners only"
// @Security     BearerAuth
// @Router       /v1/hostels [post]
func (h *Controller) Create(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req model.HostelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	row, err := h.Svc.Create(c.Request().Context(), uid, jwtx.Role(c), req)
	if err != nil {
		return h.fail(c, "create", err)
	}
	return c.JSON(http.StatusCreated, row)
}

// PUT /v1/hostels/:id  (owner)
func (h *Controller) Update(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req model.HostelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	row, err := h.Svc.Update(c.Request().Context(), uid, id, req)
	if err != nil {
		return h.fail(c, "update", err)
	}
	return c.JSON(http.StatusOK, row)
}

// DELETE /v1/hostels/:id  (owner)
func (h *Controller) Delete(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), uid, id); err != nil {
		return h.fail(c, "delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /v1/hostels/:id/ledger  (owner)
func (h *Controller) Ledger(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var q PageQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid query"})
	}
	rows, err := h.Svc.Ledger(c.Request().Context(), uid, id, q.Limit)
	if err != nil {
		return h.fail(c, "ledger", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/hostels/:id/reviews
func (h *Controller) Reviews(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var q PageQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid query"})
	}
	rows, err := h.ReviewSvc.ListByHostel(c.Request().Context(), id, q.Page, q.Size)
	if err != nil {
		h.Log.Error("review list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows, "page": max(q.Page, 1)})
}
