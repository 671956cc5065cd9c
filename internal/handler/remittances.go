package handler

import (
	"net/http"

	"showtix/internal/apierror"
	"showtix/internal/dto"
	"showtix/internal/middleware"
	"showtix/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RemittancesHandler struct{ svc service.RemittanceService }

func NewRemittancesHandler(svc service.RemittanceService) *RemittancesHandler {
	return &RemittancesHandler{svc: svc}
}

// Remit godoc
// @Summary      Record a remittance
// @Description  Marks tickets sold or lost, applies per-ticket discounts, computes commission and net amounts, and dispatches an async PDF receipt. All-or-nothing.
// @Tags         remittances
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RemitRequest true "Remittance detail"
// @Success      201  {object} dto.RemittanceHistoryResponse
// @Failure      409  {object} apierror.LedgerError
// @Failure      422  {object} apierror.LedgerError
// @Router       /v1/remittances [post]
func (h *RemittancesHandler) Remit(c *gin.Context) {
	var req dto.RemitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Remit(c.Request.Context(), req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Unremit godoc
// @Summary      Reverse a remittance payment
// @Description  Clears the paid flag on already-remitted tickets and records a clawback entry. Sold/lost status is kept.
// @Tags         remittances
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.UnremitRequest true "Unremit batch"
// @Success      201  {object} dto.RemittanceHistoryResponse
// @Failure      409  {object} apierror.LedgerError
// @Failure      422  {object} apierror.LedgerError
// @Router       /v1/remittances/reverse [post]
func (h *RemittancesHandler) Unremit(c *gin.Context) {
	var req dto.UnremitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actionBy, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Unremit(c.Request.Context(), actionBy, req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// History godoc
// @Summary      Remittance history for a schedule
// @Description  Append-only trail of remit and unremit entries, newest first.
// @Tags         remittances
// @Produce      json
// @Security     BearerAuth
// @Param        id             path  string true  "Schedule UUID"
// @Param        distributor_id query string false "Distributor UUID"
// @Param        page           query int    false "Page (default 1)"
// @Param        limit          query int    false "Entries per page (default 50)"
// @Success      200 {object} dto.RemittanceHistoryListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/schedules/{id}/remittances [get]
func (h *RemittancesHandler) History(c *gin.Context) {
	filter, ok := historyFilterFromQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.History(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list remittance history"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
