package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket reads page events and answers each one with an update.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	v, ok := s.viewer(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read", zap.Error(err))
			}
			return
		}

		var ev events.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			if err := conn.WriteJSON(update{Error: "invalid message format"}); err != nil {
				return
			}
			continue
		}

		// A reload swaps viewers; pick up the current one per event.
		if cur, err := s.viewers.Get(r.Context(), v.ID()); err == nil {
			v = cur
		}
		u, _ := s.dispatch(r, v, ev)
		if err := conn.WriteJSON(u); err != nil {
			s.log.Debug("websocket write", zap.Error(err))
			return
		}
	}
}
