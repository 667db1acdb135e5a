package ticket_api

import (
	"net/http"

	"ms-attendance/internal/utils"
)

// TicketCountResponse is the response format for the GetTotalTicketsCount endpoint
type TicketCountResponse struct {
	TotalCount int `json:"total_count"`
}

// GetTotalTicketsCount handles the request to get the total ticket count
func (h *Handler) GetTotalTicketsCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.TicketService.GetTotalTicketsCount(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error retrieving ticket count", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Total tickets", TicketCountResponse{TotalCount: count})
}
