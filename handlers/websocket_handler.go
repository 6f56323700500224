package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/loan-market/logger"
	"github.com/Dosada05/loan-market/notify"
)

type WebSocketHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts upgrades from allowedOrigins; "*" allows any origin.
func NewWebSocketHandler(hub *notify.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeWs godoc
// @Summary Subscribe to loan events of the caller's team
// @Description Browsers pass the token as ?token= because they cannot set headers on upgrades.
// @Tags loans
// @Param token query string false "Bearer token"
// @Success 101 "Switching protocols"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Security BearerAuth
// @Router /ws [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logger.FromContext(r.Context()).Warn("websocket upgrade failed", "team_id", teamID, "error", err)
		return
	}

	h.hub.Serve(conn, teamID)
	logger.FromContext(r.Context()).Debug("websocket connected", "team_id", teamID)
}
