package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	"github.com/nss-vignan/nss-portal-api/internal/service"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
	"github.com/nss-vignan/nss-portal-api/pkg/response"
)

// CertificateHandler exposes certificate generation endpoints.
type CertificateHandler struct {
	certificates *service.CertificateService
}

// NewCertificateHandler constructs CertificateHandler.
func NewCertificateHandler(certificates *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// Participation godoc
// @Summary Download participation certificate
// @Description Renders the certificate PDF for an approved participation
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Participation ID"
// @Success 200 {file} binary
// @Failure 412 {object} response.Envelope
// @Router /certificates/participation/{id} [get]
func (h *CertificateHandler) Participation(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pdf, filename, err := h.certificates.GenerateParticipation(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.PDF(c, filename, pdf)
}

// ListEligible godoc
// @Summary List students eligible for the year completion certificate
// @Tags Certificates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /certificates/eligible [get]
func (h *CertificateHandler) ListEligible(c *gin.Context) {
	students, err := h.certificates.ListEligible(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// MarkEligible godoc
// @Summary Approve a student for the year completion certificate
// @Tags Certificates
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body models.MarkEligibleRequest true "Eligibility decision"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /certificates/mark-eligible/{studentId} [put]
func (h *CertificateHandler) MarkEligible(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.MarkEligibleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid eligibility payload"))
		return
	}

	student, err := h.certificates.MarkEligible(c.Request.Context(), claims.UserID, c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// YearCompletion godoc
// @Summary Download year completion certificate
// @Description Renders the annual service certificate for a student past the hour threshold
// @Tags Certificates
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Success 200 {file} binary
// @Failure 412 {object} response.Envelope
// @Router /certificates/year-completion/{studentId} [get]
func (h *CertificateHandler) YearCompletion(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pdf, filename, err := h.certificates.GenerateCompletion(c.Request.Context(), claims, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.PDF(c, filename, pdf)
}

// Final godoc
// @Summary Issue the final service certificate
// @Description Renders the final certificate for a student marked eligible by an admin
// @Tags Certificates
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Success 200 {file} binary
// @Failure 412 {object} response.Envelope
// @Router /certificates/final/{studentId} [get]
func (h *CertificateHandler) Final(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pdf, filename, err := h.certificates.GenerateFinal(c.Request.Context(), claims.UserID, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.PDF(c, filename, pdf)
}
