package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/middleware"
	"github.com/rkohli77/canadian-rental-platform/pkg/response"
	"github.com/rkohli77/canadian-rental-platform/pkg/utils"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"go.uber.org/zap"
)

func (h *RentalHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var in domain.PropertyInput
	if err := decodeJSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	p, err := h.properties.Create(r.Context(), owner, &in)
	if err != nil {
		h.writePropertyError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, p)
}

func (h *RentalHandler) SearchProperties(w http.ResponseWriter, r *http.Request) {
	f, err := parseSearch(r)
	if err != nil {
		h.writePropertyError(w, err)
		return
	}
	props, err := h.properties.Search(r.Context(), f)
	if err != nil {
		h.writePropertyError(w, err)
		return
	}
	if props == nil {
		props = []*domain.Property{}
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"properties": props})
}

func (h *RentalHandler) writePropertyError(w http.ResponseWriter, err error) {
	var verr *xerrors.ValidationError
	switch {
	case errors.As(err, &verr):
		response.FieldError(w, http.StatusBadRequest, response.FieldErrorBody{Field: verr.Field, Message: verr.Message})
	case errors.Is(err, xerrors.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Only landlords can list properties")
	default:
		h.logger.Error("property request failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, msgInternal)
	}
}

func parseSearch(r *http.Request) (domain.PropertySearch, error) {
	q := r.URL.Query()
	f := domain.PropertySearch{
		City:         strings.TrimSpace(q.Get("city")),
		PropertyType: domain.PropertyType(strings.ToLower(strings.TrimSpace(q.Get("propertyType")))),
	}

	if v := q.Get("minPrice"); v != "" {
		d, ok := utils.ParseAmount(v)
		if !ok {
			return f, xerrors.NewValidationError("minPrice", "Minimum price must be a non-negative amount.")
		}
		f.MinPrice = &d
	}
	if v := q.Get("maxPrice"); v != "" {
		d, ok := utils.ParseAmount(v)
		if !ok {
			return f, xerrors.NewValidationError("maxPrice", "Maximum price must be a non-negative amount.")
		}
		f.MaxPrice = &d
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"bedrooms", &f.Bedrooms},
		{"limit", &f.Limit},
		{"offset", &f.Offset},
	}
	for _, p := range ints {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, xerrors.NewValidationError(p.name, "Must be a non-negative whole number.")
		}
		*p.dst = n
	}
	return f, nil
}
