package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	jwtutil "hostelfinder/util/jwt"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"
)

var ErrNoToken = errors.New("no jwt token in context")

// FromToken reads the verified token echo-jwt stored under "user" and
// copies the subject and role onto the context.
func FromToken(c echo.Context) error {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return ErrNoToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("invalid jwt claims")
	}
	uid, role, err := jwtutil.Subject(claims)
	if err != nil {
		return err
	}
	Set(c, uid, role)
	return nil
}

// Set stores the caller identity; tests use it to skip token parsing.
func Set(c echo.Context, userID int64, role string) {
	c.Set(userIDKey, userID)
	c.Set(roleKey, role)
}

func UserID(c echo.Context) (int64, error) {
	uid, ok := c.Get(userIDKey).(int64)
	if !ok || uid <= 0 {
		return 0, ErrNoToken
	}
	return uid, nil
}

func Role(c echo.Context) string {
	role, _ := c.Get(roleKey).(string)
	return role
}
