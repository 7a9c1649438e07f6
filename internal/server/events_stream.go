package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/arkinlabs/engine/internal/events"
)

// eventEnvelope is the wire shape of a bus event forwarded to a websocket
// client.
type eventEnvelope struct {
	Type      string      `json:"type"`
	Module    string      `json:"module"`
	EventTime time.Time   `json:"event_time"`
	Data      interface{} `json:"data"`
}

// handleEventsStream upgrades the request to a websocket and forwards every
// bus event (optionally filtered by the "types" query parameter, a
// comma-separated list of event type names) until the client disconnects.
func (s *Server) handleEventsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	filter := parseTypesFilter(r.URL.Query().Get("types"))
	sub := s.bus.Subscribe(filter)
	defer sub.Unsubscribe()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	s.log.Info().Str("remote_addr", r.RemoteAddr).Msg("client connected to event stream")

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(eventEnvelope{
				Type:      string(ev.Type),
				Module:    ev.Module,
				EventTime: ev.EventTime,
				Data:      ev.Data,
			})
			if err != nil {
				s.log.Error().Err(err).Msg("failed to marshal event for stream")
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				s.log.Debug().Err(err).Msg("event stream write failed, closing")
				return
			}

		case <-heartbeat.C:
			if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"heartbeat"}`)); err != nil {
				return
			}
		}
	}
}

func parseTypesFilter(raw string) events.EventFilter {
	if raw == "" {
		return events.NewEventFilter()
	}
	parts := strings.Split(raw, ",")
	kinds := make([]events.EventType, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kinds = append(kinds, events.EventType(p))
		}
	}
	return events.NewEventFilter(kinds...)
}
