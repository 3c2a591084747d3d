package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/facekiosk/internal/display"
)

// streamPoll is how often the stream checks the board for a new frame.
const streamPoll = 33 * time.Millisecond

// StreamHandler serves the annotated frames from the board as MJPEG.
type StreamHandler struct {
	board *display.Board
	poll  time.Duration
}

// NewStreamHandler creates a new StreamHandler for the given board.
func NewStreamHandler(board *display.Board) *StreamHandler {
	return &StreamHandler{board: board, poll: streamPoll}
}

// ServeHTTP streams MJPEG frames to connected clients. A frame is written only
// when the board holds one newer than the last sent.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, seq := h.board.Frame()
		if seq == sent || len(frame) == 0 {
			continue
		}
		sent = seq

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(frame))
		if _, err := w.Write(frame); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
