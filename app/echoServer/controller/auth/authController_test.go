package auth

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

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"hostelfinder/model"
	authsvc "hostelfinder/service/auth"
)

type svcMock struct {
	registerFn func(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	loginFn    func(ctx context.Context, req model.LoginReq) (*model.User, string, error)
}

func (m *svcMock) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	return m.registerFn(ctx, req)
}
func (m *svcMock) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	return m.loginFn(ctx, req)
}

// codeErr stands in for the service's coded errors.
type codeErr struct {
	code   authsvc.ErrCode
	detail string
}

func (e codeErr) Error() string        { return string(e.code) }
func (e codeErr) Code() authsvc.ErrCode { return e.code }
func (e codeErr) Detail() string        { return e.detail }

func newCtl(m *svcMock) *Controller {
	return &Controller{Svc: m, V: validator.New(), Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func do(t *testing.T, handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

func registered(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	ut := model.UserType(req.UserType)
	if ut == "" {
		ut = model.UserSeeker
	}
	return &model.User{ID: 11, FullName: req.FullName, Email: req.Email, UserType: ut}, "tok", nil
}

func TestRegister_UserType(t *testing.T) {
	cases := []struct {
		name string
		body string
		want model.UserType
	}{
		{"owner", `{"full_name":"Asha","email":"asha@example.com","password":"secret1","user_type":"owner"}`, model.UserOwner},
		{"defaults to seeker", `{"full_name":"Ravi","email":"ravi@example.com","password":"secret1"}`, model.UserSeeker},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, newCtl(&svcMock{registerFn: registered}).Register, tc.body)

			require.Equal(t, http.StatusCreated, rec.Code)
			var out AuthResp
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			require.Equal(t, tc.want, out.UserType)
			require.Equal(t, int64(11), out.UserID)
			require.Equal(t, "tok", out.Token)
		})
	}
}

func TestRegister_Rejected(t *testing.T) {
	m := &svcMock{registerFn: func(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
		return nil, "", codeErr{authsvc.ErrEmailTaken, req.Email}
	}}
	ct := newCtl(m)

	rec := do(t, ct.Register, `{"full_name":"Asha","email":"asha@example.com","password":"secret1","user_type":"admin"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, ct.Register, `{"full_name":"Asha","email":"not-an-email","password":"secret1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, ct.Register, `{"full_name":"Asha",`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, ct.Register, `{"full_name":"Asha","email":"asha@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "EMAIL_TAKEN", out["code"])
	require.Equal(t, "asha@example.com", out["message"])
}

func TestLogin(t *testing.T) {
	m := &svcMock{loginFn: func(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
		if req.Password != "secret1" {
			return nil, "", codeErr{authsvc.ErrInvalidCreds, "password mismatch"}
		}
		return &model.User{ID: 3, Email: req.Email, UserType: model.UserOwner}, "tok", nil
	}}
	ct := newCtl(m)

	rec := do(t, ct.Login, `{"email":"asha@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out AuthResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, model.UserOwner, out.UserType)

	rec = do(t, ct.Login, `{"email":"asha@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotContains(t, rec.Body.String(), "password mismatch")
}

func TestLogin_InternalError(t *testing.T) {
	m := &svcMock{loginFn: func(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
		return nil, "", errors.New("db down")
	}}
	rec := do(t, newCtl(m).Login, `{"email":"asha@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "db down")
}
