package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook/internal/service"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/response"
)

// SetGradeRequest carries one grade value.
type SetGradeRequest struct {
	Grade *float64 `json:"grade"`
}

// GradeHandler records grades on activities.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List godoc
// @Summary Grades recorded for an activity
// @Tags Grades
// @Produce json
// @Param id path int true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{id}/grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.grades.Grades(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Set godoc
// @Summary Record or replace a grade
// @Description Grades must lie in [0, 10] and the student must be enrolled in the activity's class
// @Tags Grades
// @Accept json
// @Param id path int true "Activity ID"
// @Param studentId path int true "Student ID"
// @Param payload body SetGradeRequest true "Grade"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /activities/{id}/grades/{studentId} [put]
func (h *GradeHandler) Set(c *gin.Context) {
	activityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	var req SetGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Grade == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "grade is required"))
		return
	}
	if err := h.grades.SetGrade(c.Request.Context(), activityID, studentID, *req.Grade); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Remove godoc
// @Summary Remove a grade
// @Tags Grades
// @Param id path int true "Activity ID"
// @Param studentId path int true "Student ID"
// @Success 204
// @Router /activities/{id}/grades/{studentId} [delete]
func (h *GradeHandler) Remove(c *gin.Context) {
	activityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	if err := h.grades.RemoveGrade(c.Request.Context(), activityID, studentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
