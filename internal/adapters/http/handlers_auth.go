package http

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/fixkg/backend/internal/application"
	"github.com/fixkg/backend/internal/domain"
)

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeMissingBearerError(r.Context(), w, "authenticate")
			return
		}
		if _, err := h.service.AuthenticateAccessToken(raw); err != nil {
			writeMappedError(r.Context(), w, "authenticate", err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyTokenRaw, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(ctxKeyTokenRaw).(string)
	return raw, ok && raw != ""
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var candidate domain.Candidate
	if err := decodeBody(r, &candidate); err != nil {
		writeValidationError(r.Context(), w, "register", err)
		return
	}

	user, err := h.service.Register(r.Context(), candidate)
	if err != nil {
		writeMappedError(r.Context(), w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// login accepts a JSON body or an OAuth2 password-grant form.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if isFormRequest(r) {
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "login", err)
		return
	}

	pair, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req application.VerifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "verify_code", err)
		return
	}
	user, err := h.service.VerifyUserByOTPCode(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "verify_code", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) verifyRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "verify_request", err)
		return
	}
	if err := h.service.RequestVerificationCode(r.Context(), req.Email); err != nil {
		writeMappedError(r.Context(), w, "verify_request", err)
		return
	}
	writeMessage(w, http.StatusOK, "verification code sent")
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "refresh", err)
		return
	}
	if req.RefreshToken == "" {
		writeValidationError(r.Context(), w, "refresh", fmt.Errorf("%w: refresh_token is required", domain.ErrInvalidInput))
		return
	}

	pair, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeMappedError(r.Context(), w, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	raw, ok := tokenFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "me")
		return
	}
	user, err := h.service.CurrentUser(r.Context(), raw)
	if err != nil {
		writeMappedError(r.Context(), w, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func isFormRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}
