package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func Issue(secret string, userID int64, role string, ttlHours int) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(time.Duration(ttlHours) * time.Hour).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// Subject pulls the user id and role out of verified claims.
func Subject(claims jwt.MapClaims) (int64, string, error) {
	var uid int64
	switch v := claims["sub"].(type) {
	case float64:
		uid = int64(v)
	case int64:
		uid = v
	default:
		return 0, "", errors.New("sub missing in claims")
	}
	if uid <= 0 {
		return 0, "", errors.New("invalid sub claim")
	}
	role, _ := claims["role"].(string)
	return uid, role, nil
}
