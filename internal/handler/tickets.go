package handler

import (
	"net/http"

	"showtix/internal/apierror"
	"showtix/internal/dto"
	"showtix/internal/model"
	"showtix/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TicketsHandler serves read-only pool snapshots straight off the repository.
// There is no service layer here on purpose: a snapshot has no business rules.
type TicketsHandler struct{ tickets repository.TicketRepository }

func NewTicketsHandler(tickets repository.TicketRepository) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Snapshot godoc
// @Summary      Ticket pool snapshot
// @Description  Returns every ticket of a schedule ordered by control number, with status, owner, pricing and paid flag.
// @Tags         tickets
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Schedule UUID"
// @Success      200 {object} dto.SnapshotResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/schedules/{id}/tickets [get]
func (h *TicketsHandler) Snapshot(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid schedule id"))
		return
	}

	tickets, err := h.tickets.Snapshot(c.Request.Context(), scheduleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to load ticket pool"))
		return
	}

	resp := dto.SnapshotResponse{
		ScheduleID: scheduleID.String(),
		Tickets:    make([]dto.TicketResponse, len(tickets)),
		Total:      len(tickets),
	}
	for i, t := range tickets {
		resp.Tickets[i] = ticketToResponse(t)
	}
	c.JSON(http.StatusOK, resp)
}

func ticketToResponse(t model.Ticket) dto.TicketResponse {
	var distributor *string
	if t.DistributorID != nil {
		s := t.DistributorID.String()
		distributor = &s
	}
	return dto.TicketResponse{
		ControlNumber:      t.ControlNumber,
		Status:             string(t.Status),
		DistributorID:      distributor,
		TicketPrice:        t.TicketPrice,
		SeatSection:        t.SeatSection,
		DiscountPercentage: t.DiscountPercentage,
		IsPaid:             t.IsPaid,
	}
}
