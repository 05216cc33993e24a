package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	"github.com/nss-vignan/nss-portal-api/internal/service"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
	"github.com/nss-vignan/nss-portal-api/pkg/response"
	"github.com/nss-vignan/nss-portal-api/pkg/storage"
)

// ParticipationHandler exposes participation lifecycle endpoints.
type ParticipationHandler struct {
	participations *service.ParticipationService
	storage        *storage.LocalStorage
	logger         *zap.Logger
}

// NewParticipationHandler constructs ParticipationHandler.
func NewParticipationHandler(participations *service.ParticipationService, store *storage.LocalStorage, logger *zap.Logger) *ParticipationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParticipationHandler{participations: participations, storage: store, logger: logger}
}

// List godoc
// @Summary List participations
// @Description Staff see all records, students only their own
// @Tags Participations
// @Produce json
// @Param eventId query string false "Filter by event"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /participations [get]
func (h *ParticipationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.ParticipationFilter
	filter.EventID = c.Query("eventId")
	filter.StudentID = c.Query("studentId")
	filter.Status = models.ParticipationStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}

	participations, pagination, err := h.participations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participations, pagination)
}

// My godoc
// @Summary List my participations
// @Tags Participations
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /participations/my [get]
func (h *ParticipationHandler) My(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.ParticipationFilter
	filter.StudentID = claims.UserID
	filter.Status = models.ParticipationStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	participations, pagination, err := h.participations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participations, pagination)
}

// Check godoc
// @Summary Check registration for an event
// @Tags Participations
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /participations/check/{eventId} [get]
func (h *ParticipationHandler) Check(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	participation, err := h.participations.CheckRegistration(c.Request.Context(), claims.UserID, c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if participation == nil {
		response.JSON(c, http.StatusOK, gin.H{"registered": false}, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"registered": true, "participation": participation}, nil)
}

// Register godoc
// @Summary Register for an upcoming event
// @Tags Participations
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /participations/register/{eventId} [post]
func (h *ParticipationHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	participation, err := h.participations.Register(c.Request.Context(), claims.UserID, c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, participation)
}

// MarkAttended godoc
// @Summary Record attendance for a past event
// @Tags Participations
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /participations/attend/{eventId} [post]
func (h *ParticipationHandler) MarkAttended(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	participation, err := h.participations.MarkAttended(c.Request.Context(), claims.UserID, c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, participation)
}

// Cancel godoc
// @Summary Cancel a pending registration
// @Tags Participations
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /participations/cancel/{eventId} [delete]
func (h *ParticipationHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.participations.Cancel(c.Request.Context(), claims.UserID, c.Param("eventId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SubmitReport godoc
// @Summary Submit an activity report
// @Description Accepts JSON or multipart form data with photo attachments
// @Tags Participations
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Participation ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /participations/{id}/report [put]
func (h *ParticipationHandler) SubmitReport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req, err := h.bindReport(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	participation, err := h.participations.SubmitReport(c.Request.Context(), claims.UserID, c.Param("id"), *req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participation, nil)
}

// Review godoc
// @Summary Review a submitted report
// @Description Approve or reject a report, crediting hours on approval
// @Tags Participations
// @Accept json
// @Produce json
// @Param id path string true "Participation ID"
// @Param payload body models.ReviewRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /participations/{id}/review [put]
func (h *ParticipationHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	participation, err := h.participations.Review(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participation, nil)
}

func (h *ParticipationHandler) bindReport(c *gin.Context) (*models.SubmitReportRequest, error) {
	contentType := c.ContentType()
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var req models.SubmitReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload")
		}
		return &req, nil
	}

	req := models.SubmitReportRequest{ReportText: c.PostForm("report_text")}
	if req.ReportText == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report_text is required")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload")
	}

	// A photo that fails to store is dropped from the report; the
	// submission itself still goes through.
	for _, fileHeader := range form.File["photos"] {
		if h.storage == nil {
			h.logger.Warn("photo skipped, file storage not configured", zap.String("filename", fileHeader.Filename))
			continue
		}
		src, err := fileHeader.Open()
		if err != nil {
			h.logger.Warn("photo skipped, failed to open upload", zap.String("filename", fileHeader.Filename), zap.Error(err))
			continue
		}
		stored, err := h.storage.SaveUpload("reports", fileHeader.Filename, src)
		src.Close()
		if err != nil {
			h.logger.Warn("photo skipped, failed to store upload", zap.String("filename", fileHeader.Filename), zap.Error(err))
			continue
		}
		req.Photos = append(req.Photos, h.storage.PublicURL(stored))
	}
	return &req, nil
}
