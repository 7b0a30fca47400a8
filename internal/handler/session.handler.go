package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rkohli77/canadian-rental-platform/pkg/middleware"
	"github.com/rkohli77/canadian-rental-platform/pkg/response"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *RentalHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	sess, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		var verr *xerrors.ValidationError
		switch {
		case errors.As(err, &verr):
			response.FieldError(w, http.StatusBadRequest, response.FieldErrorBody{Field: verr.Field, Message: verr.Message})
		case errors.Is(err, xerrors.ErrInvalidCredentials):
			response.Error(w, http.StatusUnauthorized, "Invalid login credentials")
		default:
			h.logger.Error("sign in failed", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    sess.AccessToken,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	response.JSON(w, http.StatusOK, sess)
}

func (h *RentalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r.Context())
	if !ok || token == "" {
		response.Error(w, http.StatusUnauthorized, "Missing auth token")
		return
	}
	if err := h.sessions.SignOut(r.Context(), token); err != nil && !errors.Is(err, xerrors.ErrInvalidToken) {
		h.logger.Error("sign out failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to log out")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true})
	response.Success(w)
}

func (h *RentalHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.GetToken(r.Context())
	user, profile, err := h.sessions.CurrentProfile(r.Context(), token)
	if err != nil {
		if errors.Is(err, xerrors.ErrInvalidToken) {
			response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		h.logger.Error("load profile failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"profile": profile,
	})
}

// CheckEmail always answers 200; anything unreadable counts as not taken.
func (h *RentalHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	exists := false
	if err := decodeJSON(w, r, &req); err == nil {
		exists = h.sessions.EmailExists(r.Context(), req.Email)
	}
	response.JSON(w, http.StatusOK, map[string]bool{"exists": exists})
}
