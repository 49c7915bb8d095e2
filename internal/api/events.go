package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/skillify/internal/planner"
	"github.com/terra-clan/skillify/internal/profile"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event types sent on the events stream
const (
	EventConnected = "connected"
	EventSnapshot  = "snapshot"
	EventMessage   = "message"
	EventReady     = "ready"
)

const (
	eventBuffer  = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Event is a frame of the events stream
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// handleEvents streams store snapshots and chat messages of the
// workspace until the client goes away
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("events websocket connected", "session_id", ws.SessionID)

	release := ws.OpenStream()
	defer release()

	events := make(chan Event, eventBuffer)
	push := func(e Event) {
		select {
		case events <- e:
		default:
			// A later snapshot supersedes a dropped one
			slog.Debug("events buffer full, dropping event", "session_id", ws.SessionID, "type", e.Type)
		}
	}

	var lastVersion uint64
	var versionMu sync.Mutex
	pushSnapshot := func(snap profile.Snapshot) {
		versionMu.Lock()
		if snap.Version < lastVersion {
			versionMu.Unlock()
			return
		}
		lastVersion = snap.Version
		versionMu.Unlock()
		push(Event{Type: EventSnapshot, Data: snap})
	}

	unsubscribeStore := ws.Store.Subscribe(pushSnapshot)
	defer unsubscribeStore()
	unsubscribeChat := ws.Chat.Subscribe(func(m planner.Message) {
		push(Event{Type: EventMessage, Data: m})
	})
	defer unsubscribeChat()

	push(Event{Type: EventConnected, Data: map[string]any{
		"sessionId": ws.SessionID,
		"loading":   ws.Bridge.IsLoading(),
	}})
	pushSnapshot(ws.Store.Snapshot())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Workspace -> WebSocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		ready := ws.Bridge.Ready()
		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ws.Done():
				slog.Info("workspace closed, ending events stream", "session_id", ws.SessionID)
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "workspace closed")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
				return
			case <-ready:
				ready = nil
				if err := s.sendEvent(conn, Event{Type: EventReady}); err != nil {
					return
				}
			case e := <-events:
				if err := s.sendEvent(conn, e); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					return
				}
			}
		}
	}()

	// WebSocket -> nothing; reading detects the close
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	<-ctx.Done()
	// Unblock the reader
	conn.Close()
	wg.Wait()
	slog.Info("events websocket disconnected", "session_id", ws.SessionID)
}

func (s *Server) sendEvent(conn *websocket.Conn, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("failed to marshal event", "error", err)
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send event", "error", err)
		return err
	}
	return nil
}
