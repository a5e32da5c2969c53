package server

import (
	"net/http"
	"sync"

	"vinylfm/logger"
	"vinylfm/model"

	"github.com/gorilla/websocket"
)

var eventsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// libraryEvent is pushed to every connected client after the catalog
// changes, whoever caused the change (HTTP replace, cache mutation or an
// external writer seen by the file watcher). Clients refetch on receipt.
type libraryEvent struct {
	Type   string `json:"type"`
	Vinyls int    `json:"vinyls"`
	Tracks int    `json:"tracks"`
}

func libraryUpdated(lib *model.Library) libraryEvent {
	return libraryEvent{
		Type:   "library-updated",
		Vinyls: len(lib.Vinyls),
		Tracks: len(lib.Tracks),
	}
}

// EventHub fans library change notifications out to connected websockets.
type EventHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{conns: make(map[*websocket.Conn]bool)}
}

func (h *EventHub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
}

func (h *EventHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[conn] {
		delete(h.conns, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// Broadcast sends the event to every connection, dropping the ones that
// fail to write.
func (h *EventHub) Broadcast(ev libraryEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(ev); err != nil {
			logger.Debug("dropping events client", logger.ErrorField(err))
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

// EventsHandler upgrades the connection and keeps it registered until the
// client goes away. The socket is push-only; inbound messages are read and
// discarded solely to detect the close.
func (h *APIHandler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	h.hub.register(conn)
	go func() {
		defer h.hub.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
