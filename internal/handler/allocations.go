package handler

import (
	"net/http"
	"strconv"

	"showtix/internal/apierror"
	"showtix/internal/dto"
	"showtix/internal/middleware"
	"showtix/internal/repository"
	"showtix/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AllocationsHandler struct{ svc service.AllocationService }

func NewAllocationsHandler(svc service.AllocationService) *AllocationsHandler {
	return &AllocationsHandler{svc: svc}
}

// Allocate godoc
// @Summary      Allocate tickets to a distributor
// @Description  Moves a batch of unallocated tickets to a distributor, all-or-nothing. Control numbers may be an explicit array or range text ("1-5,7").
// @Tags         allocations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AllocationRequest true "Allocation batch"
// @Success      201  {object} dto.AllocationHistoryResponse
// @Failure      409  {object} apierror.LedgerError
// @Failure      422  {object} apierror.LedgerError
// @Router       /v1/allocations [post]
func (h *AllocationsHandler) Allocate(c *gin.Context) {
	var req dto.AllocationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actionBy, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Allocate(c.Request.Context(), actionBy, req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Unallocate godoc
// @Summary      Return allocated tickets to the pool
// @Description  Moves a batch of allocated tickets back to unallocated. Fails if any ticket is sold, lost or owned by another distributor.
// @Tags         allocations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AllocationRequest true "Unallocation batch"
// @Success      201  {object} dto.AllocationHistoryResponse
// @Failure      409  {object} apierror.LedgerError
// @Failure      422  {object} apierror.LedgerError
// @Router       /v1/allocations/return [post]
func (h *AllocationsHandler) Unallocate(c *gin.Context) {
	var req dto.AllocationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actionBy, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Unallocate(c.Request.Context(), actionBy, req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// History godoc
// @Summary      Allocation history for a schedule
// @Description  Append-only audit trail, newest first. Optionally filtered by distributor.
// @Tags         allocations
// @Produce      json
// @Security     BearerAuth
// @Param        id             path  string true  "Schedule UUID"
// @Param        distributor_id query string false "Distributor UUID"
// @Param        page           query int    false "Page (default 1)"
// @Param        limit          query int    false "Entries per page (default 50)"
// @Success      200 {object} dto.AllocationHistoryListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/schedules/{id}/allocations [get]
func (h *AllocationsHandler) History(c *gin.Context) {
	filter, ok := historyFilterFromQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.History(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list allocation history"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// historyFilterFromQuery parses the schedule path param plus the shared
// distributor/page/limit query params. Writes the error response itself when
// parsing fails.
func historyFilterFromQuery(c *gin.Context) (repository.HistoryFilter, bool) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid schedule id"))
		return repository.HistoryFilter{}, false
	}
	filter := repository.HistoryFilter{ScheduleID: scheduleID}
	if raw := c.Query("distributor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid distributor id"))
			return repository.HistoryFilter{}, false
		}
		filter.DistributorID = &id
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	return filter, true
}
