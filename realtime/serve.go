package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Serve upgrades the request and streams topic to it. The upgrader has
// already answered the request when an upgrade error is returned.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string, filter Filter) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(h, conn, topic, filter)
	if !h.Register(c) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "shutting down"))
		conn.Close()
		return ErrHubClosed
	}
	go c.writePump()
	go c.readPump()
	return nil
}

// PostEvent is the payload published on PostsTopic.
type PostEvent struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Campus    string `json:"campus"`
	Type      string `json:"type"`
	VisibleTo string `json:"visible_to"`
}

// CampusFilter lets through the posts viewer's campus may see, and with a
// non-empty campus only those published there.
func CampusFilter(campus, viewer string) Filter {
	return func(payload []byte) bool {
		var ev PostEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return false
		}
		if ev.VisibleTo == "campus" && (viewer == "" || ev.Campus != viewer) {
			return false
		}
		return campus == "" || ev.Campus == campus
	}
}
