package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/service"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/response"
)

type reportReader interface {
	ClassReport(ctx context.Context, classID int) (*models.ClassReport, error)
	StudentTranscript(ctx context.Context, studentID int) (*models.StudentTranscript, error)
	ClassAverage(ctx context.Context, classID, studentID int) (*models.StudentClassAverage, error)
	Standing(ctx context.Context, studentID int) (*models.StudentStanding, error)
	PerformanceOverview(ctx context.Context) []models.ClassPerformance
	Ranking(ctx context.Context, classID int) (*models.ClassRanking, error)
}

type reportExporter interface {
	ClassReportText(ctx context.Context, classID int) (string, error)
	ExportClassReport(ctx context.Context, classID int, format models.ReportFormat) (*models.ExportResult, error)
	ExportTranscript(ctx context.Context, studentID int, format models.ReportFormat) (*models.ExportResult, error)
	ExportAllTranscripts(ctx context.Context) ([]models.ExportResult, error)
	Download(ctx context.Context, token string) (*service.Download, error)
}

// ReportHandler serves grade aggregates, report cards and their exports.
type ReportHandler struct {
	reports reportReader
	exports reportExporter
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports reportReader, exports reportExporter) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// ClassReport godoc
// @Summary Class report
// @Description Every activity, every enrolled student's grades and average, the class mean and the best and worst students
// @Tags Reports
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/report [get]
func (h *ReportHandler) ClassReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.ClassReport(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ClassReportText godoc
// @Summary Class report as plain text
// @Tags Reports
// @Produce plain
// @Param id path int true "Class ID"
// @Success 200 {string} string
// @Router /classes/{id}/report/text [get]
func (h *ReportHandler) ClassReportText(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	text, err := h.exports.ClassReportText(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

// ExportClassReport godoc
// @Summary Render a class report to a file
// @Tags Reports
// @Produce json
// @Param id path int true "Class ID"
// @Param format query string false "pdf, csv or xlsx" default(pdf)
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/report/export [post]
func (h *ReportHandler) ExportClassReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.ExportClassReport(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Ranking godoc
// @Summary Best and worst students of a class
// @Tags Reports
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Class missing or no student graded"
// @Router /classes/{id}/ranking [get]
func (h *ReportHandler) Ranking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ranking, err := h.reports.Ranking(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranking, nil)
}

// ClassAverage godoc
// @Summary A student's average in one class
// @Description average is null when the student has no grade in the class
// @Tags Reports
// @Produce json
// @Param id path int true "Class ID"
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /classes/{id}/students/{studentId}/average [get]
func (h *ReportHandler) ClassAverage(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	avg, err := h.reports.ClassAverage(c.Request.Context(), classID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, avg, nil)
}

// Transcript godoc
// @Summary Student report card
// @Tags Reports
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *ReportHandler) Transcript(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	transcript, err := h.reports.StudentTranscript(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// ExportTranscript godoc
// @Summary Render a student report card to a file
// @Tags Reports
// @Produce json
// @Param id path int true "Student ID"
// @Param format query string false "pdf, csv or xlsx" default(pdf)
// @Success 201 {object} response.Envelope
// @Router /students/{id}/transcript/export [post]
func (h *ReportHandler) ExportTranscript(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.ExportTranscript(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Standing godoc
// @Summary Overall average and pass/fail
// @Tags Reports
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/standing [get]
func (h *ReportHandler) Standing(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	standing, err := h.reports.Standing(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standing, nil)
}

// ExportAllTranscripts godoc
// @Summary Write a PDF report card for every student
// @Tags Reports
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /reports/transcripts [post]
func (h *ReportHandler) ExportAllTranscripts(c *gin.Context) {
	results, err := h.exports.ExportAllTranscripts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, results, nil, map[string]interface{}{"count": len(results)})
}

// Performance godoc
// @Summary Mean grade and band of every class
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/performance [get]
func (h *ReportHandler) Performance(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.reports.PerformanceOverview(c.Request.Context()), nil)
}

// Download godoc
// @Summary Download a rendered report
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, err := h.exports.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Content.Close() //nolint:errcheck
	response.Stream(c, file.Filename, file.ContentType, file.Size, file.Content)
}
