package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadcompass/internal/app"
	"leadcompass/internal/config"
	"leadcompass/internal/database"
	"leadcompass/internal/domain/access"
	"leadcompass/internal/domain/profile"
	"leadcompass/internal/pkg/logger"
	"leadcompass/internal/pkg/metrics"
)

type E2ETestSuite struct {
	router *gin.Engine
	app    *app.App
}

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	db, err := database.Connect(":memory:", log, false)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		AppEnv:             "test",
		JWTSecret:          "test_secret_key_32_characters_min",
		JWTAccessTTL:       time.Hour,
		ActivityWindow:     time.Hour,
		ActivitySweepSpec:  "@every 10m",
		ImportBatchSize:    50,
		LeadFetchTimeout:   5 * time.Second,
		LoginRatePerMinute: 600,
		LoginBurst:         50,
	}
	reg := prometheus.NewRegistry()
	a, err := app.New(cfg, db, log, metrics.NewWithRegistry(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	require.NoError(t, err)

	_, created, err := a.Profiles.EnsureCEO(context.Background(), "Meera", "ceo@test.com", "ceo-password")
	require.NoError(t, err)
	require.True(t, created)

	return &E2ETestSuite{router: a.Router, app: a}
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, *TestResponse) {
	t.Helper()
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, &resp
}

func (s *E2ETestSuite) login(t *testing.T, email, password string) string {
	t.Helper()
	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func TestE2E_LeadLifecycleWithAudit(t *testing.T) {
	s := setupTestSuite(t)
	ceoToken := s.login(t, "ceo@test.com", "ceo-password")

	// staff
	w, _ := s.makeRequest(t, http.MethodPost, "/api/v1/profiles", profile.CreateRequest{
		Name:     "Ravi",
		Email:    "ravi@test.com",
		Password: "ravi-password",
		Role:     access.RoleEmployee,
	}, ceoToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	empToken := s.login(t, "ravi@test.com", "ravi-password")

	// employees cannot create leads
	newLead := map[string]any{
		"customer_name":  "Asha",
		"email":          "asha@example.com",
		"mobile_number":  "9876543210",
		"project_name":   "Riverfront",
		"budget":         4500000,
		"preferred_area": "Baner",
		"assigned_to":    "Ravi",
	}
	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/leads", newLead, empToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/leads", newLead, ceoToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))

	// the assignee edits their lead
	w, _ = s.makeRequest(t, http.MethodPatch, "/api/v1/leads/"+created.ID,
		map[string]any{"deal_status": "Site Visit", "interest_level": "Green"}, empToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the CEO sees one activity per changed field
	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/activities", nil, ceoToken)
	require.Equal(t, http.StatusOK, w.Code)
	var feed struct {
		Activities []struct {
			ID           string `json:"id"`
			EmployeeName string `json:"employee_name"`
			FieldChanged string `json:"field_changed"`
			OldValue     string `json:"old_value"`
		} `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &feed))
	require.Len(t, feed.Activities, 2)
	assert.Equal(t, "Ravi", feed.Activities[0].EmployeeName)

	w, _ = s.makeRequest(t, http.MethodGet, "/api/v1/activities", nil, empToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// revert the status change
	var statusActivity string
	for _, a := range feed.Activities {
		if a.FieldChanged == "deal_status" {
			statusActivity = a.ID
			assert.Equal(t, "Not Contacted", a.OldValue)
		}
	}
	require.NotEmpty(t, statusActivity)
	w, _ = s.makeRequest(t, http.MethodPost, "/api/v1/activities/"+statusActivity+"/revert", nil, ceoToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/leads/"+created.ID, nil, empToken)
	require.Equal(t, http.StatusOK, w.Code)
	var current struct {
		DealStatus    string `json:"deal_status"`
		InterestLevel string `json:"interest_level"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &current))
	assert.Equal(t, "Not Contacted", current.DealStatus)
	assert.Equal(t, "Green", current.InterestLevel)

	// employee dashboard counts their follow-ups only
	w, _ = s.makeRequest(t, http.MethodGet, "/api/v1/reports/dashboard", nil, empToken)
	assert.Equal(t, http.StatusOK, w.Code)

	// terminate the employee: sign-in and token are both rejected, and assignment to them fails
	var me struct {
		Profile struct {
			ID string `json:"id"`
		} `json:"profile"`
	}
	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/auth/me", nil, empToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &me))

	w, _ = s.makeRequest(t, http.MethodPost, "/api/v1/profiles/"+me.Profile.ID+"/terminate", nil, ceoToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/leads", nil, empToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCOUNT_TERMINATED", resp.Error.Code)

	newLead["email"] = "kiran@example.com"
	w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/leads", newLead, ceoToken)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	// wipe
	w, _ = s.makeRequest(t, http.MethodPost, "/api/v1/leads/delete-all", map[string]string{"password": "wrong"}, ceoToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.makeRequest(t, http.MethodPost, "/api/v1/leads/delete-all", map[string]string{"password": "ceo-password"}, ceoToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/leads", nil, ceoToken)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 0, list.Total)
}

func TestE2E_AuthRequired(t *testing.T) {
	s := setupTestSuite(t)

	w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/leads", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ceo@test.com", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
}

func TestE2E_HealthAndMetrics(t *testing.T) {
	s := setupTestSuite(t)
	ceoToken := s.login(t, "ceo@test.com", "ceo-password")

	w, _ := s.makeRequest(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)

	w, _ = s.makeRequest(t, http.MethodGet, "/api/v1/leads", nil, ceoToken)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.makeRequest(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "login_attempts_total")
	assert.Contains(t, w.Body.String(), `path="/api/v1/leads"`)
}
