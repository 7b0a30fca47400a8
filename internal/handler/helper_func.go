package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rkohli77/canadian-rental-platform/pkg/response"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"go.uber.org/zap"
)

const (
	maxBodyBytes = 64 << 10

	codeCleanupPending = "account_cleanup_pending"
	msgInvalidBody     = "Invalid request body"
	msgInternal        = "Internal server error"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeProvisionError maps the registration error kinds onto the form contract:
// field errors and identity rejections carry a field, everything else does not.
func (h *RentalHandler) writeProvisionError(w http.ResponseWriter, err error) {
	var (
		verr *xerrors.ValidationError
		ierr *xerrors.IdentityCreationError
		perr *xerrors.ProfileInsertionError
	)
	switch {
	case errors.As(err, &verr):
		response.FieldError(w, http.StatusBadRequest, response.FieldErrorBody{
			Field:   verr.Field,
			Message: verr.Message,
		})

	case errors.As(err, &ierr):
		body := response.FieldErrorBody{
			Field:   identityErrorField(ierr),
			Message: ierr.Message,
			Code:    xerrors.DefaultSignupCode,
		}
		if ierr.Code != xerrors.DefaultSignupCode {
			body.ProviderCode = ierr.Code
		}
		response.FieldError(w, http.StatusBadRequest, body)

	case errors.As(err, &perr):
		if perr.CleanupPending() {
			response.ErrorWithCode(w, http.StatusBadRequest, perr.Message, codeCleanupPending)
			return
		}
		response.Error(w, http.StatusBadRequest, perr.Message)

	default:
		h.logger.Error("unexpected registration failure", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, msgInternal)
	}
}

// identityErrorField attaches password rejections to the password input and
// everything else (duplicates, malformed or blocked addresses) to email.
func identityErrorField(ierr *xerrors.IdentityCreationError) string {
	if strings.Contains(strings.ToLower(ierr.Code), "password") ||
		strings.Contains(strings.ToLower(ierr.Message), "password") {
		return "password"
	}
	return "email"
}
