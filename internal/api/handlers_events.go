package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// handleEvents streams run snapshots over a websocket whenever the run
// changes, closing once it reaches a terminal status.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run := s.orchestrator.GetRun(runID)
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "run_id", runID, "error", err)
		return
	}
	defer conn.Close()

	// Drain client frames so close and ping control messages are handled.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var last time.Time
	for {
		snap := run.Snapshot()
		if snap.UpdatedAt != last {
			last = snap.UpdatedAt
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(snap); err != nil {
				s.log.Debug("websocket write failed", "run_id", runID, "error", err)
				return
			}
		}
		if snap.Status.Terminal() {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(snap.Status))
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case <-ticker.C:
		}
	}
}
