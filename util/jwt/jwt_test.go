package jwt

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssueRoundTrip(t *testing.T) {
	tok, err := Issue("secret", 7, "owner", 1)
	require.NoError(t, err)

	parsed, err := jwt.Parse(tok, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil },
		jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)

	uid, role, err := Subject(parsed.Claims.(jwt.MapClaims))
	require.NoError(t, err)
	require.Equal(t, int64(7), uid)
	require.Equal(t, "owner", role)
}

func TestSubjectMissing(t *testing.T) {
	_, _, err := Subject(jwt.MapClaims{"role": "seeker"})
	require.Error(t, err)

	_, _, err = Subject(jwt.MapClaims{"sub": float64(0)})
	require.Error(t, err)
}
