package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/noveleno/portal/internal/auth"
)

// HandleWebSocket upgrades a signed-in request and runs it as a Hub client.
// It must sit behind the auth gates; anonymous requests are refused.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok || !id.SignedIn() {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("accept", "error", err)
			return
		}

		client := NewClient(hub, conn, id.Email(), id.Role())
		client.Run(r.Context())
	}
}
