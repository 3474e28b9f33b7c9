package reports

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/domain/lead"
	"leadcompass/internal/domain/report"
	"leadcompass/internal/domain/spreadsheet"
	"leadcompass/internal/pkg/metrics"
	"leadcompass/internal/pkg/response"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type LeadSource interface {
	Current(ctx context.Context) ([]lead.Lead, error)
}

type StaffDirectory interface {
	EmployeeNames(ctx context.Context) ([]string, error)
}

type Handler struct {
	leads   LeadSource
	staff   StaffDirectory
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewHandler(leads LeadSource, staff StaffDirectory, m *metrics.Metrics) *Handler {
	return &Handler{leads: leads, staff: staff, metrics: m, now: time.Now}
}

// Dashboard handles GET /api/v1/reports/dashboard
// @Summary Dashboard counters
// @Description Totals, active, converted, today's follow-ups and recent leads. Employees see their own follow-ups
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=report.DashboardStats}
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /reports/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	all, err := h.leads.Current(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report.Dashboard(all, sess, h.now()))
}

// Charts handles GET /api/v1/reports/charts
// @Summary Chart breakdowns
// @Description Counts by status, interest, area and assignee
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=report.Report}
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /reports/charts [get]
func (h *Handler) Charts(c *gin.Context) {
	all, err := h.leads.Current(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report.Build(all))
}

// Team handles GET /api/v1/reports/team
// @Summary Team performance
// @Description CEO only. Stats and score for every employee
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /reports/team [get]
func (h *Handler) Team(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())
	if err := access.Require(sess, access.CapProfileManage); err != nil {
		response.FromError(c, err)
		return
	}

	names, err := h.staff.EmployeeNames(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	all, err := h.leads.Current(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"team": report.Team(all, names, h.now())})
}

// Member handles GET /api/v1/reports/team/:name. Employees may only see their own numbers.
// @Summary Employee performance
// @Description Stats and score for one employee
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param name path string true "Employee name"
// @Success 200 {object} response.Response{data=report.EmployeeStats}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /reports/team/{name} [get]
func (h *Handler) Member(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())
	name := c.Param("name")
	if sess == nil || (!sess.IsCEO() && sess.Name != name) {
		response.FromError(c, access.Require(sess, access.CapProfileManage))
		return
	}

	all, err := h.leads.Current(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report.ForEmployee(all, name, h.now()))
}

// Export handles GET /api/v1/reports/export
// @Summary Export lead report
// @Description CEO only. Workbook with the leads sheet and one summary sheet per breakdown
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /reports/export [get]
func (h *Handler) Export(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())
	if err := access.Require(sess, access.CapReportGenerate); err != nil {
		response.FromError(c, err)
		return
	}

	all, err := h.leads.Current(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	data, err := spreadsheet.ExportReport(all, report.Build(all))
	if err != nil {
		response.FromError(c, fmt.Errorf("export report: %w", err))
		return
	}

	h.metrics.IncExport("report")
	name := spreadsheet.Filename("Lead_Report", "xlsx", h.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentTypeXLSX, data)
}
