package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/fixkg/backend/internal/domain"
	"golang.org/x/net/websocket"
)

// pushChannel upgrades an authenticated client into the user's push channel.
// The token comes from the Authorization header or, for browsers, the token query parameter.
func (h *Handler) pushChannel(w http.ResponseWriter, r *http.Request) {
	raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		raw = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if raw == "" {
		writeMissingBearerError(r.Context(), w, "websocket")
		return
	}
	identity, err := h.service.AuthenticateAccessToken(raw)
	if err != nil {
		writeMappedError(r.Context(), w, "websocket", err)
		return
	}
	if h.hub == nil {
		writeMappedError(r.Context(), w, "websocket", domain.ErrDependency)
		return
	}

	userID := identity.UserID
	// Server without Handshake accepts clients that send no Origin header.
	server := websocket.Server{Handler: func(conn *websocket.Conn) {
		peer := h.hub.Register(userID, conn)
		defer func() {
			h.hub.Unregister(userID, peer)
			_ = conn.Close()
		}()
		_, _ = io.Copy(io.Discard, conn)
	}}
	server.ServeHTTP(w, r)
}
