package review

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"hostelfinder/app/echoServer/jwtx"
	"hostelfinder/model"
	rs "hostelfinder/service/review"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Create a review
// @Summary      Review a hostel
// @Description  One review per user per hostel; updates the hostel rating
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        payload  body  model.ReviewReq  true  "Review payload"
// @Success      201  {object}  model.Review
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any "already reviewed"
// @Security     BearerAuth
// @Router       /v1/reviews [post]
func (h *Controller) Create(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req model.ReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	rv, err := h.Svc.Create(c.Request().Context(), uid, req)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"code": rs.ErrBadInput, "message": err.Error()})
		case rs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"code": rs.ErrNotFound, "message": "hostel not found"})
		case rs.ErrAlreadyReviewed:
			return c.JSON(http.StatusConflict, echo.Map{"code": rs.ErrAlreadyReviewed, "message": "already reviewed"})
		default:
			h.Log.Error("review create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, rv)
}
