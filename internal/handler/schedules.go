package handler

import (
	"net/http"

	"showtix/internal/apierror"
	"showtix/internal/dto"
	"showtix/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SchedulesHandler struct{ svc service.ScheduleService }

func NewSchedulesHandler(svc service.ScheduleService) *SchedulesHandler {
	return &SchedulesHandler{svc: svc}
}

// Provision godoc
// @Summary      Create a schedule with its ticket pool
// @Description  Creates the schedule and bulk-inserts its control numbers in one transaction. Flat pricing uses ticket_price + ticket_count; sectioned pricing assigns contiguous blocks per section.
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ProvisionPoolRequest true "Schedule and pool definition"
// @Success      201  {object} dto.ScheduleResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/schedules [post]
func (h *SchedulesHandler) Provision(c *gin.Context) {
	var req dto.ProvisionPoolRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ProvisionPool(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Schedule detail
// @Tags         schedules
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Schedule UUID"
// @Success      200 {object} dto.ScheduleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/schedules/{id} [get]
func (h *SchedulesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid schedule id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("schedule not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List schedules
// @Tags         schedules
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ScheduleResponse
// @Router       /v1/schedules [get]
func (h *SchedulesHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list schedules"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
