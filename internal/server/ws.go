package server

import (
	"net/http"
	"time"

	"github.com/ayusman/facekiosk/internal/display"
	"github.com/ayusman/facekiosk/internal/logging"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes display state changes to websocket clients. Each
// client first receives the current state, then every change.
type EventsHandler struct {
	board *display.Board
}

// NewEventsHandler creates a new EventsHandler for the given board.
func NewEventsHandler(board *display.Board) *EventsHandler {
	return &EventsHandler{board: board}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logging.Component("server")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	states, cancel := h.board.Subscribe()
	defer cancel()

	// The client never sends anything meaningful; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeState(conn, h.board.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			if err := writeState(conn, state); err != nil {
				log.WithError(err).Debug("websocket client gone")
				return
			}
		}
	}
}

func writeState(conn *websocket.Conn, state display.State) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(state)
}
