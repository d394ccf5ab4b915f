package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook/internal/middleware"
	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/service"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/response"
)

// AuthHandler wires sign-up and sign-in endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	teachers *service.TeacherService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth *service.AuthService, teachers *service.TeacherService) *AuthHandler {
	return &AuthHandler{auth: auth, teachers: teachers}
}

// Register godoc
// @Summary Register a teacher account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.RegisterTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterTeacherRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.teachers.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// Login godoc
// @Summary Authenticate teacher
// @Description Authenticate by registration code and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Current teacher profile
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.teachers.Get(c.Request.Context(), claims.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
