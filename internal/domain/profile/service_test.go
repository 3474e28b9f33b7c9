package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/pkg/apperr"
	"leadcompass/internal/pkg/logger"
)

var (
	ceo      = &access.Session{ProfileID: "p-ceo", Name: "Meera", Role: access.RoleCEO}
	employee = &access.Session{ProfileID: "p-emp", Name: "Ravi", Role: access.RoleEmployee}
)

func setupService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:profile_test_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Profile{}))

	svc := NewService(NewRepository(db), logger.Nop())
	svc.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func newEmployee(name, email string) CreateRequest {
	salary := 40000.0
	return CreateRequest{Name: name, Email: email, Password: "password123", Role: access.RoleEmployee, Salary: &salary}
}

func TestCreate(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, ceo, newEmployee(" Ravi ", " Ravi@Example.com "))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Ravi", p.Name)
	assert.Equal(t, "ravi@example.com", p.Email)
	assert.True(t, p.CheckPassword("password123"))
	assert.False(t, p.CheckPassword("nope"))

	_, err = svc.Create(ctx, ceo, newEmployee("Other", "RAVI@example.com"))
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "already exists", verr.Fields["email"])

	_, err = svc.Create(ctx, employee, newEmployee("X", "x@example.com"))
	assert.True(t, apperr.IsPermission(err))

	bad := newEmployee("", "not-an-email")
	bad.Password = "short"
	bad.Role = "Manager"
	_, err = svc.Create(ctx, ceo, bad)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "role")
}

func TestUpdate(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, ceo, newEmployee("Ravi", "ravi@example.com"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ceo, newEmployee("Anita", "anita@example.com"))
	require.NoError(t, err)

	name := "Ravi K"
	role := access.RoleCEO
	updated, err := svc.Update(ctx, ceo, p.ID, UpdateRequest{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Ravi K", updated.Name)
	assert.Equal(t, access.RoleCEO, updated.Role)

	taken := "anita@example.com"
	_, err = svc.Update(ctx, ceo, p.ID, UpdateRequest{Email: &taken})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Update(ctx, ceo, "missing", UpdateRequest{Name: &name})
	assert.True(t, apperr.IsNotFound(err))
}

func TestTerminate_IdempotentAndRoster(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, ceo, newEmployee("Ravi", "ravi@example.com"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ceo, newEmployee("Anita", "anita@example.com"))
	require.NoError(t, err)

	got, err := svc.Terminate(ctx, ceo, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsTerminated)
	assert.Equal(t, "2026-10-15", got.TerminationDate)

	svc.now = func() time.Time { return time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC) }
	again, err := svc.Terminate(ctx, ceo, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15", again.TerminationDate)

	terminated, err := svc.TerminatedNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"Ravi": true}, terminated)

	names, err := svc.AssignableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anita"}, names)

	all, err := svc.EmployeeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anita", "Ravi"}, all)

	_, err = svc.Terminate(ctx, ceo, ceo.ProfileID)
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.Terminate(ctx, employee, p.ID)
	assert.True(t, apperr.IsPermission(err))
}

func TestListEmployees_RedactsSalaryForEmployees(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ceo, newEmployee("Ravi", "ravi@example.com"))
	require.NoError(t, err)
	boss := newEmployee("Meera", "meera@example.com")
	boss.Role = access.RoleCEO
	_, err = svc.Create(ctx, ceo, boss)
	require.NoError(t, err)

	asCEO, err := svc.ListEmployees(ctx, ceo)
	require.NoError(t, err)
	require.Len(t, asCEO, 1)
	require.NotNil(t, asCEO[0].Salary)

	asEmployee, err := svc.ListEmployees(ctx, employee)
	require.NoError(t, err)
	require.Len(t, asEmployee, 1)
	assert.Nil(t, asEmployee[0].Salary)

	_, err = svc.ListEmployees(ctx, nil)
	assert.True(t, apperr.IsPermission(err))

	_, err = svc.List(ctx, employee)
	assert.True(t, apperr.IsPermission(err))
	all, err := svc.List(ctx, ceo)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEnsureCEO(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	p, created, err := svc.EnsureCEO(ctx, "Meera", "meera@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, access.RoleCEO, p.Role)

	_, created, err = svc.EnsureCEO(ctx, "Other", "other@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, created)
}

func withSession(s *access.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(access.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

func TestHandler_CreateAndForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := setupService(t)
	h := NewHandler(svc)

	router := func(s *access.Session) *gin.Engine {
		r := gin.New()
		g := r.Group("/api/v1", withSession(s))
		RegisterRoutes(g, h)
		return r
	}

	body, _ := json.Marshal(newEmployee("Ravi", "ravi@example.com"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router(ceo).ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/profiles", bytes.NewReader(body))
	router(employee).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	router(employee).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/employees", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Employees  []Profile `json:"employees"`
			Assignable []string  `json:"assignable"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Employees, 1)
	assert.Nil(t, resp.Data.Employees[0].Salary)
	assert.Equal(t, []string{"Ravi"}, resp.Data.Assignable)
}
