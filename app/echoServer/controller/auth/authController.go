package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"hostelfinder/model"
	authsvc "hostelfinder/service/auth"
)

type Controller struct {
	Svc authsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type outcome struct {
	status  int
	message string
}

// message is used when the service error carries no detail
var outcomeByCode = map[authsvc.ErrCode]outcome{
	authsvc.ErrBadInput:     {http.StatusBadRequest, "bad input"},
	authsvc.ErrEmailTaken:   {http.StatusConflict, "email already registered"},
	authsvc.ErrInvalidCreds: {http.StatusUnauthorized, "invalid email or password"},
}

func (ct *Controller) fail(c echo.Context, op string, err error) error {
	code := authsvc.Code(err)
	if o, ok := outcomeByCode[code]; ok {
		msg := o.message
		var d interface{ Detail() string }
		// credential failures never say which half was wrong
		if code != authsvc.ErrInvalidCreds && errors.As(err, &d) && d.Detail() != "" {
			msg = d.Detail()
		}
		return c.JSON(o.status, echo.Map{"code": code, "message": msg})
	}
	ct.Log.Error(op+" failed",
		"err", err,
		"req_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"path", c.Path(),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
}

func (ct *Controller) decode(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := ct.V.Struct(dst); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	return nil
}

// Register a new user
// @Summary      Register user
// @Description  Register a seeker (default) or owner account; email must be unique
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body  model.RegisterReq  true  "Register payload"
// @Success      201  {object}  AuthResp
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any "email already registered"
// @Router       /v1/users/register [post]
func (ct *Controller) Register(c echo.Context) error {
	var req model.RegisterReq
	if err := ct.decode(c, &req); err != nil || c.Response().Committed {
		return err
	}
	u, token, err := ct.Svc.Register(c.Request().Context(), req)
	if err != nil {
		return ct.fail(c, "register", err)
	}
	ct.Log.Info("user registered", "user_id", u.ID, "user_type", u.UserType)
	return c.JSON(http.StatusCreated, toResp(u, token))
}

// Login
// @Summary      Login
// @Description  Login with email + password, returns a JWT carrying the user_type role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body  model.LoginReq  true  "Login payload"
// @Success      200  {object}  AuthResp
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /v1/users/login [post]
func (ct *Controller) Login(c echo.Context) error {
	var req model.LoginReq
	if err := ct.decode(c, &req); err != nil || c.Response().Committed {
		return err
	}
	u, token, err := ct.Svc.Login(c.Request().Context(), req)
	if err != nil {
		return ct.fail(c, "login", err)
	}
	return c.JSON(http.StatusOK, toResp(u, token))
}
