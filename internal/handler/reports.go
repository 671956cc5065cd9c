package handler

import (
	"net/http"

	"showtix/internal/apierror"
	"showtix/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// ScheduleReport godoc
// @Summary      Sales rollup for one schedule
// @Description  Recomputed from the ticket pool on every call. Includes per-section rows for sectioned schedules.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Schedule UUID"
// @Success      200 {object} dto.ScheduleReportResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/reports/schedules/{id} [get]
func (h *ReportsHandler) ScheduleReport(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid schedule id"))
		return
	}
	resp, err := h.svc.ScheduleReport(c.Request.Context(), scheduleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DistributorReport godoc
// @Summary      Per-distributor breakdown for one schedule
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Schedule UUID"
// @Success      200 {object} dto.DistributorReportResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/reports/schedules/{id}/distributors [get]
func (h *ReportsHandler) DistributorReport(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid schedule id"))
		return
	}
	resp, err := h.svc.DistributorReport(c.Request.Context(), scheduleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenreReport godoc
// @Summary      Aggregate rollup across all schedules of a genre
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        genre path string true "Genre name"
// @Success      200 {object} dto.GenreReportResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/reports/genres/{genre} [get]
func (h *ReportsHandler) GenreReport(c *gin.Context) {
	genre := c.Param("genre")
	if genre == "" {
		c.JSON(http.StatusBadRequest, apierror.New("genre is required"))
		return
	}
	resp, err := h.svc.GenreReport(c.Request.Context(), genre)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
