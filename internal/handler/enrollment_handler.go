package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook/internal/service"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/response"
)

const maxRosterSize = 5 << 20

// EnrollmentHandler manages class membership.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	roster      *service.RosterImportService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, roster *service.RosterImportService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, roster: roster}
}

// Enroll godoc
// @Summary Enroll a student in a class
// @Tags Enrollment
// @Param id path int true "Class ID"
// @Param studentId path int true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{id}/students/{studentId} [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	if err := h.enrollments.Enroll(c.Request.Context(), classID, studentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unenroll godoc
// @Summary Remove a student from a class
// @Description Also drops the student's grades in the class's activities
// @Tags Enrollment
// @Param id path int true "Class ID"
// @Param studentId path int true "Student ID"
// @Success 204
// @Failure 422 {object} response.Envelope
// @Router /classes/{id}/students/{studentId} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	if err := h.enrollments.Unenroll(c.Request.Context(), classID, studentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ImportRoster godoc
// @Summary Enroll students from an XLSX roster
// @Description Column A is the registration code, column B the name. Unknown codes with a name become new students.
// @Tags Enrollment
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Class ID"
// @Param file formData file true "Roster spreadsheet"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/roster [post]
func (h *EnrollmentHandler) ImportRoster(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "roster file required"))
		return
	}
	if header.Size > maxRosterSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "roster file too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	result, err := h.roster.Import(c.Request.Context(), classID, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
