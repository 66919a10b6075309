package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rozovalentina/musicnet-signaling-server/internal/signaling"
)

// Configure the websocket upgrader. Game clients connect from arbitrary
// origins (packaged apps, localhost dev servers), so the origin check is
// open, matching the CORS posture of the deployment this replaces.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWs returns an http.HandlerFunc that upgrades the request and hands
// the connection to the hub.
func ServeWs(hub *signaling.Hub, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}

		client := signaling.NewClient(hub, conn, log)
		select {
		case hub.Register <- client:
		case <-hub.Done():
			// The hub is shutting down; a late upgrade has nowhere to go.
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}

// Health is a liveness endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("signaling server is healthy"))
}
