package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"aula-lms/internal/middleware"
	"aula-lms/internal/observability"
	ws "aula-lms/internal/websocket"
)

// ProgressHandler upgrades /ws/uploads/{upload_id} to a progress stream
type ProgressHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewProgressHandler creates a progress handler accepting the given
// browser origins; "*" accepts any.
func NewProgressHandler(hub *ws.Hub, allowedOrigins []string) *ProgressHandler {
	return &ProgressHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// HandleConnection subscribes the caller to one upload's progress
func (h *ProgressHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "upload_id")
	if _, err := uuid.Parse(uploadID); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid upload ID")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		observability.FromContext(r.Context()).Warn("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, uploadID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
