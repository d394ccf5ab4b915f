package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/service"
	"github.com/noah-isme/sma-gradebook/pkg/response"
)

// ActivityHandler exposes activity endpoints.
type ActivityHandler struct {
	activities *service.ActivityService
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// List godoc
// @Summary List activities
// @Tags Activities
// @Produce json
// @Param classId query int false "Only activities of this class"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	activities, err := h.activities.List(c.Request.Context(), models.ActivityFilter{ClassID: queryInt(c, "classId", 0)})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil)
}

// Get godoc
// @Summary Get activity
// @Tags Activities
// @Produce json
// @Param id path int true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [get]
func (h *ActivityHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	activity, err := h.activities.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Create godoc
// @Summary Create activity in a class
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body service.CreateActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req service.CreateActivityRequest
	if !bindJSON(c, &req) {
		return
	}
	activity, err := h.activities.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Update godoc
// @Summary Update activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path int true "Activity ID"
// @Param payload body service.UpdateActivityRequest true "Activity payload"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [put]
func (h *ActivityHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateActivityRequest
	if !bindJSON(c, &req) {
		return
	}
	activity, err := h.activities.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Delete godoc
// @Summary Delete activity
// @Tags Activities
// @Param id path int true "Activity ID"
// @Success 204
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.activities.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
