package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nss-vignan/nss-portal-api/internal/service"
	"github.com/nss-vignan/nss-portal-api/pkg/response"
)

// ReportHandler exposes report export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// EventReport godoc
// @Summary Download event report PDF
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Event ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /reports/event/{id} [get]
func (h *ReportHandler) EventReport(c *gin.Context) {
	pdf, filename, err := h.reports.EventReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.PDF(c, filename, pdf)
}

// AttendanceSheet godoc
// @Summary Download printable attendance sheet
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Event ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /reports/attendance/{id} [get]
func (h *ReportHandler) AttendanceSheet(c *gin.Context) {
	pdf, filename, err := h.reports.AttendanceSheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.PDF(c, filename, pdf)
}

// AnnualSummary godoc
// @Summary Download the yearly activity summary CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} binary
// @Router /reports/annual-summary [get]
func (h *ReportHandler) AnnualSummary(c *gin.Context) {
	csv, filename, err := h.reports.AnnualSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.CSV(c, filename, csv)
}
