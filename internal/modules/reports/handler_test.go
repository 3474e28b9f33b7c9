package reports

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/domain/lead"
	"leadcompass/internal/domain/report"
	"leadcompass/internal/pkg/apperr"
)

var (
	ceo      = &access.Session{ProfileID: "p-ceo", Name: "Meera", Role: access.RoleCEO}
	employee = &access.Session{ProfileID: "p-emp", Name: "Ravi", Role: access.RoleEmployee}
	today    = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
)

type staticLeads struct {
	leads []lead.Lead
	err   error
}

func (s staticLeads) Current(context.Context) ([]lead.Lead, error) {
	return s.leads, s.err
}

type mockStaff struct {
	mock.Mock
}

func (m *mockStaff) EmployeeNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func sample() []lead.Lead {
	return []lead.Lead{
		{ID: "1", CustomerName: "A", AssignedTo: "Ravi", PreferredArea: "Pune", DealStatus: lead.StatusClosed, InterestLevel: lead.InterestGreen, NextFollowupDate: "2026-10-15"},
		{ID: "2", CustomerName: "B", AssignedTo: "Ravi", PreferredArea: "Pune", DealStatus: lead.StatusFollowUp, InterestLevel: lead.InterestYellow, NextFollowupDate: "2026-10-15"},
		{ID: "3", CustomerName: "C", AssignedTo: "Kiran", PreferredArea: "Goa", DealStatus: lead.StatusDropped, InterestLevel: lead.InterestRed, NextFollowupDate: "2026-10-15"},
	}
}

func router(t *testing.T, src LeadSource, staff StaffDirectory, as *access.Session) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(src, staff, nil)
	h.now = func() time.Time { return today }

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(access.WithSession(c.Request.Context(), as))
		c.Next()
	})
	RegisterRoutes(v1, h)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func TestDashboard_FollowupsScopedToEmployee(t *testing.T) {
	w := get(router(t, staticLeads{leads: sample()}, nil, employee), "/api/v1/reports/dashboard")
	require.Equal(t, http.StatusOK, w.Code)

	stats := decode[report.DashboardStats](t, w)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Converted)
	assert.Equal(t, 2, stats.TodayFollowups)

	w = get(router(t, staticLeads{leads: sample()}, nil, ceo), "/api/v1/reports/dashboard")
	assert.Equal(t, 3, decode[report.DashboardStats](t, w).TodayFollowups)
}

func TestDashboard_StoreFailure(t *testing.T) {
	src := staticLeads{err: apperr.Persistence("fetch leads", errors.New("timeout"))}
	w := get(router(t, src, nil, ceo), "/api/v1/reports/dashboard")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCharts(t *testing.T) {
	w := get(router(t, staticLeads{leads: sample()}, nil, employee), "/api/v1/reports/charts")
	require.Equal(t, http.StatusOK, w.Code)

	rep := decode[report.Report](t, w)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, []report.Bucket{{Name: "Pune", Count: 2}, {Name: "Goa", Count: 1}}, rep.Areas)
}

func TestTeam(t *testing.T) {
	staff := new(mockStaff)
	staff.On("EmployeeNames", mock.Anything).Return([]string{"Kiran", "Ravi"}, nil)

	w := get(router(t, staticLeads{leads: sample()}, staff, ceo), "/api/v1/reports/team")
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[struct {
		Team []report.EmployeeStats `json:"team"`
	}](t, w)
	require.Len(t, res.Team, 2)
	assert.Equal(t, "Ravi", res.Team[0].Name)
	assert.Equal(t, 1, res.Team[0].Closed)
	assert.Equal(t, 1, res.Team[1].Dropped)
	staff.AssertExpectations(t)

	w = get(router(t, staticLeads{leads: sample()}, staff, employee), "/api/v1/reports/team")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMember(t *testing.T) {
	w := get(router(t, staticLeads{leads: sample()}, nil, employee), "/api/v1/reports/team/Ravi")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[report.EmployeeStats](t, w)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.TodayFollowups)

	w = get(router(t, staticLeads{leads: sample()}, nil, employee), "/api/v1/reports/team/Kiran")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = get(router(t, staticLeads{leads: sample()}, nil, ceo), "/api/v1/reports/team/Kiran")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExport(t *testing.T) {
	w := get(router(t, staticLeads{leads: sample()}, nil, ceo), "/api/v1/reports/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="Lead_Report_2026-10-15.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Leads", "Status Summary", "Interest Summary", "Area Summary", "Assignee Summary"}, f.GetSheetList())

	w = get(router(t, staticLeads{leads: sample()}, nil, employee), "/api/v1/reports/export")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
