package handler

import (
	"net/http"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/response"
)

// Register handles POST /api/register.
func (h *RentalHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if _, err := h.registrar.Provision(r.Context(), &req); err != nil {
		h.writeProvisionError(w, err)
		return
	}
	response.Success(w)
}
