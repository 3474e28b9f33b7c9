package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/domain/profile"
	"leadcompass/internal/pkg/jwt"
	"leadcompass/internal/pkg/logger"
	"leadcompass/internal/pkg/metrics"
)

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) GetByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockProfiles) Get(ctx context.Context, id string) (*profile.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func makeProfile(t *testing.T, role access.Role, password string) *profile.Profile {
	t.Helper()
	hash, err := profile.HashPassword(password)
	require.NoError(t, err)
	return &profile.Profile{ID: "p-1", Name: "Meera", Email: "meera@example.com", Role: role, PasswordHash: hash}
}

func setup(t *testing.T) (*Service, *mockProfiles, *metrics.Metrics) {
	t.Helper()
	profiles := new(mockProfiles)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	return NewService(profiles, jwt.New("test-secret", time.Hour), m, logger.Nop()), profiles, m
}

func TestLogin_Success(t *testing.T) {
	svc, profiles, m := setup(t)
	p := makeProfile(t, access.RoleCEO, "password123")
	profiles.On("GetByEmail", mock.Anything, "meera@example.com").Return(p, nil)

	res, err := svc.Login(context.Background(), LoginRequest{Email: " Meera@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, access.RoleCEO, res.Session.Role)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")))
	profiles.AssertExpectations(t)
}

func TestLogin_Rejections(t *testing.T) {
	svc, profiles, m := setup(t)
	p := makeProfile(t, access.RoleEmployee, "password123")
	terminated := makeProfile(t, access.RoleEmployee, "password123")
	terminated.IsTerminated = true

	profiles.On("GetByEmail", mock.Anything, "meera@example.com").Return(p, nil)
	profiles.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, profile.ErrProfileNotFound)
	profiles.On("GetByEmail", mock.Anything, "gone@example.com").Return(terminated, nil)
	profiles.On("GetByEmail", mock.Anything, "down@example.com").Return(nil, errors.New("db down"))

	ctx := context.Background()
	_, err := svc.Login(ctx, LoginRequest{Email: "meera@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "gone@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrAccountTerminated)

	_, err = svc.Login(ctx, LoginRequest{Email: "down@example.com", Password: "x"})
	assert.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("invalid")))
}

func TestResolve(t *testing.T) {
	svc, profiles, _ := setup(t)
	p := makeProfile(t, access.RoleEmployee, "password123")
	profiles.On("Get", mock.Anything, "p-1").Return(p, nil).Once()

	token, err := jwt.New("test-secret", time.Hour).GenerateToken("p-1", "CEO")
	require.NoError(t, err)

	sess, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "Meera", sess.Name)
	// the stored role wins over the role in the token
	assert.Equal(t, access.RoleEmployee, sess.Role)

	_, err = svc.Resolve(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	other, err := jwt.New("other-secret", time.Hour).GenerateToken("p-1", "CEO")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), other)
	assert.ErrorIs(t, err, ErrUnauthorized)

	p.IsTerminated = true
	profiles.On("Get", mock.Anything, "p-1").Return(p, nil).Once()
	_, err = svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrAccountTerminated)
}

func TestVerifyPassword(t *testing.T) {
	svc, profiles, _ := setup(t)
	profiles.On("Get", mock.Anything, "p-1").Return(makeProfile(t, access.RoleCEO, "password123"), nil)

	ok, err := svc.VerifyPassword(context.Background(), "p-1", "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyPassword(context.Background(), "p-1", "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandler_Login(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, profiles, _ := setup(t)
	profiles.On("GetByEmail", mock.Anything, "meera@example.com").Return(makeProfile(t, access.RoleCEO, "password123"), nil)

	r := gin.New()
	h := NewHandler(svc, profiles)
	h.RegisterPublicRoutes(r.Group("/api/v1"))

	post := func(body any) *httptest.ResponseRecorder {
		b, _ := json.Marshal(body)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := post(LoginRequest{Email: "meera@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "access_token")
	assert.NotContains(t, w.Body.String(), "PasswordHash")

	w = post(LoginRequest{Email: "meera@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(LoginRequest{Email: "not-an-email", Password: "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
