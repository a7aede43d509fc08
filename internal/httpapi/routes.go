package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blackjack-live/backend/internal/ws"
)

func SetupRoutes(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Post("/rooms", h.CreateRoom)
	r.Get("/rooms/{code}", h.RoomView)
	r.Get("/players/{player}/balance", h.Balance)
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h.Hub, h.Log))
	return r
}
