package leads

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/domain/filter"
	"leadcompass/internal/domain/lead"
	"leadcompass/internal/domain/spreadsheet"
	"leadcompass/internal/pkg/apperr"
	"leadcompass/internal/pkg/logger"
	"leadcompass/internal/pkg/metrics"
	"leadcompass/internal/pkg/response"
)

// MaxUploadBytes caps an import upload
const MaxUploadBytes = 10 << 20

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

type Handler struct {
	repo    *lead.Repository
	metrics *metrics.Metrics
	log     logger.Logger
	now     func() time.Time
}

func NewHandler(repo *lead.Repository, m *metrics.Metrics, log logger.Logger) *Handler {
	return &Handler{repo: repo, metrics: m, log: log, now: time.Now}
}

// List handles GET /api/v1/leads
// @Summary List leads
// @Description Filtered and paginated view of the lead working set, with the distinct preferred areas
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search over customer name, email and preferred area"
// @Param budget query string false "Budget range: all, min-max or min+"
// @Param status query string false "Deal status or all"
// @Param area query string false "Preferred area or all"
// @Param page query int false "Page number, 10 leads per page"
// @Success 200 {object} response.Response{data=lead.ListResponse}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /leads [get]
func (h *Handler) List(c *gin.Context) {
	var state filter.State
	if err := c.ShouldBindQuery(&state); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_QUERY", "Invalid query parameters")
		return
	}
	if err := state.Validate(); err != nil {
		response.FromError(c, err)
		return
	}

	all, err := h.repo.Current(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	pager := filter.NewPager(all, state)
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		pager.Go(page)
	}

	response.Success(c, http.StatusOK, lead.ListResponse{
		Leads:      pager.Window(),
		Page:       pager.Page(),
		TotalPages: pager.TotalPages(),
		Total:      pager.Total(),
		Areas:      filter.UniqueAreas(all),
	})
}

// Closed handles GET /api/v1/leads/closed
// @Summary List closed deals
// @Description Leads with deal status Closed; search also matches the assignee
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /leads/closed [get]
func (h *Handler) Closed(c *gin.Context) {
	all, err := h.repo.Current(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	closed := filter.ClosedDeals(all, c.Query("search"))
	response.Success(c, http.StatusOK, gin.H{"leads": closed, "total": len(closed)})
}

// Get handles GET /api/v1/leads/:id
// @Summary Get lead by ID
// @Description Reads the stored copy of one lead
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} response.Response{data=lead.Lead}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /leads/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	l, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, l)
}

// Create handles POST /api/v1/leads
// @Summary Create lead
// @Description CEO only. Missing enum fields get defaults and the follow-up date defaults to a week out
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body lead.Fields true "Lead fields"
// @Success 201 {object} response.Response{data=lead.Lead}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /leads [post]
func (h *Handler) Create(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	var req lead.Fields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	l, err := h.repo.Create(c.Request.Context(), sess, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, l)
}

// Update handles PATCH /api/v1/leads/:id
// @Summary Update lead
// @Description CEO or the assigned employee. Each changed tracked field is written to the activity log
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body lead.Patch true "Fields to change"
// @Success 200 {object} response.Response{data=lead.Lead}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /leads/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	var req lead.Patch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	l, err := h.repo.Update(c.Request.Context(), sess, c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, l)
}

// Delete handles DELETE /api/v1/leads/:id
// @Summary Delete lead
// @Description CEO only
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /leads/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	if err := h.repo.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// DeleteAll handles POST /api/v1/leads/delete-all
// @Summary Delete all leads
// @Description CEO only. The password is checked again before anything is deleted
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body lead.DeleteAllRequest true "Current password"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /leads/delete-all [post]
func (h *Handler) DeleteAll(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	var req lead.DeleteAllRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		response.FromError(c, apperr.Validation("password", "password is required"))
		return
	}

	ok, err := h.repo.DeleteAll(c.Request.Context(), sess, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !ok {
		response.Error(c, http.StatusForbidden, "INVALID_PASSWORD", "Password is incorrect, nothing was deleted")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Import handles POST /api/v1/leads/import (multipart field "file")
// @Summary Import leads from a spreadsheet
// @Description CEO only. Rows without a customer name or email are skipped
// @Tags Leads
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "xlsx workbook"
// @Success 200 {object} response.Response{data=lead.BulkResult}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 413 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /leads/import [post]
func (h *Handler) Import(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())
	if err := access.Require(sess, access.CapLeadImport); err != nil {
		response.FromError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.FromError(c, &apperr.ParseError{Reason: "a spreadsheet file is required"})
		return
	}
	if err := spreadsheet.CheckFilename(fh.Filename); err != nil {
		response.FromError(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.FromError(c, &apperr.ParseError{Reason: "upload could not be read"})
		return
	}
	defer f.Close()

	rows, err := spreadsheet.ParseSpreadsheet(f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	fields, dropped := spreadsheet.MapRows(rows)

	res, err := h.repo.BulkCreate(c.Request.Context(), sess, fields)
	res.Skipped += dropped
	if err != nil {
		var pe *apperr.PersistenceError
		if errors.As(err, &pe) {
			_ = c.Error(err)
			response.ErrorWithDetails(c, http.StatusServiceUnavailable, "PERSISTENCE_ERROR", pe.Op+" failed, please retry",
				gin.H{"inserted": res.Inserted, "skipped": res.Skipped, "retryable": true})
			return
		}
		response.FromError(c, err)
		return
	}

	h.log.Info("lead import finished", "file", fh.Filename, "rows", len(rows), "inserted", res.Inserted, "skipped", res.Skipped)
	response.Success(c, http.StatusOK, res)
}

// Export handles GET /api/v1/leads/export. The filtered set is exported, not the current page.
// @Summary Export leads
// @Description Downloads the filtered leads as xlsx or csv
// @Tags Leads
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "xlsx (default) or csv"
// @Param human query string false "1 renders currency and Yes/No in csv"
// @Param search query string false "Search term"
// @Param budget query string false "Budget range"
// @Param status query string false "Deal status"
// @Param area query string false "Preferred area"
// @Success 200 {file} file
// @Failure 401 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /leads/export [get]
func (h *Handler) Export(c *gin.Context) {
	var state filter.State
	if err := c.ShouldBindQuery(&state); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_QUERY", "Invalid query parameters")
		return
	}
	if err := state.Validate(); err != nil {
		response.FromError(c, err)
		return
	}

	all, err := h.repo.Current(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	rows := filter.Apply(all, state)

	format := c.DefaultQuery("format", "xlsx")
	var (
		data        []byte
		contentType string
	)
	switch format {
	case "xlsx":
		data, err = spreadsheet.ExportRows(rows)
		contentType = contentTypeXLSX
	case "csv":
		human := c.Query("human") == "1" || c.Query("human") == "true"
		data, err = spreadsheet.ExportCSV(rows, human)
		contentType = contentTypeCSV
	default:
		response.FromError(c, apperr.Validation("format", "must be xlsx or csv"))
		return
	}
	if err != nil {
		response.FromError(c, fmt.Errorf("export leads: %w", err))
		return
	}

	h.metrics.IncExport(format)
	name := spreadsheet.Filename("Leads", format, h.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentType, data)
}

// Refresh handles POST /api/v1/leads/refresh
// @Summary Refetch leads
// @Description Reloads the working set from the database
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /leads/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	all, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"total": len(all)})
}

// Mutations handles GET /api/v1/leads/mutations
// @Summary List recent mutations
// @Description Lifecycle state of recent writes: pending, confirmed or failed
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /leads/mutations [get]
func (h *Handler) Mutations(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"mutations": h.repo.Mutations()})
}
