package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"hostelfinder/app/echoServer/controller/auth"
	"hostelfinder/app/echoServer/controller/booking"
	"hostelfinder/app/echoServer/controller/hostel"
	"hostelfinder/app/echoServer/controller/review"
	"hostelfinder/app/echoServer/jwtx"
)

type C struct {
	Auth      *auth.Controller
	Hostel    *hostel.Controller
	Booking   *booking.Controller
	Review    *review.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	pub.GET("/hostels", c.Hostel.List)
	pub.GET("/hostels/search", c.Hostel.Search)
	pub.GET("/hostels/:id", c.Hostel.Detail)
	pub.GET("/hostels/:id/reviews", c.Hostel.Reviews)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))
	auth.Use(Identity())

	// Hostels (owner)
	auth.POST("/hostels", c.Hostel.Create)
	auth.PUT("/hostels/:id", c.Hostel.Update)
	auth.DELETE("/hostels/:id", c.Hostel.Delete)
	auth.GET("/hostels/:id/bookings", c.Booking.ByHostel)
	auth.GET("/hostels/:id/ledger", c.Hostel.Ledger)

	// Bookings
	auth.POST("/bookings", c.Booking.Create)
	auth.GET("/bookings/my", c.Booking.Mine)
	auth.GET("/bookings/:id", c.Booking.Detail)
	auth.PUT("/bookings/:id/cancel", c.Booking.Cancel)
	auth.PUT("/bookings/:id/confirm", c.Booking.Confirm)

	// Reviews
	auth.POST("/reviews", c.Review.Create)
}

// Identity copies the verified subject and role onto the request context.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if err := jwtx.FromToken(ctx); err != nil {
				reqID := ctx.Response().Header().Get(echo.HeaderXRequestID)
				ctx.Logger().Warnf("[AUTH] rejected token req_id=%s ip=%s err=%v", reqID, ctx.RealIP(), err)
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			return next(ctx)
		}
	}
}
