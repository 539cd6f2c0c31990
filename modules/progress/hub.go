package progress

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event - one poll progress notification. Terminal events carry only the
// type and request id.
type Event struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Attempt   int    `json:"attempt,omitempty"`
	MaxPolls  int    `json:"max_polls,omitempty"`
	Status    string `json:"status,omitempty"`
}

type subscriber struct {
	send chan Event
}

// Hub - one-way fan-out of polling progress to WebSocket clients, keyed by
// request id. The workflow is correct with zero subscribers.
type Hub struct {
	mutex       sync.RWMutex
	subscribers map[string]map[*subscriber]bool
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]bool),
	}
}

// Subscribe - register for events of one request. The returned function
// unsubscribes and closes the channel.
func (h *Hub) Subscribe(requestID string) (<-chan Event, func()) {
	sub := &subscriber{
		send: make(chan Event, 32),
	}

	h.mutex.Lock()
	if h.subscribers[requestID] == nil {
		h.subscribers[requestID] = make(map[*subscriber]bool)
	}
	h.subscribers[requestID][sub] = true
	h.mutex.Unlock()

	unsubscribe := func() {
		h.mutex.Lock()
		defer h.mutex.Unlock()
		if subs, ok := h.subscribers[requestID]; ok {
			if subs[sub] {
				delete(subs, sub)
				close(sub.send)
			}
			if len(subs) == 0 {
				delete(h.subscribers, requestID)
			}
		}
	}

	return sub.send, unsubscribe
}

// PublishProgress - implements the workflow's progress sink
func (h *Hub) PublishProgress(requestID string, attempt, maxPolls int, status string) {
	h.publish(requestID, Event{
		Type:      "poll_progress",
		RequestID: requestID,
		Attempt:   attempt,
		MaxPolls:  maxPolls,
		Status:    status,
	})
}

// PublishTerminal - final notification once polling stops
func (h *Hub) PublishTerminal(requestID string, status string) {
	h.publish(requestID, Event{
		Type:      "poll_terminal",
		RequestID: requestID,
		Status:    status,
	})
}

// publish - non-blocking send; a slow client drops events rather than
// stalling the polling loop
func (h *Hub) publish(requestID string, event Event) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for sub := range h.subscribers[requestID] {
		select {
		case sub.send <- event:
		default:
		}
	}
}

// RegisterRoutes - route registration
func (h *Hub) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/progress/{requestId}", h.HandleProgress)
	log.Println("✅ Progress routes registered: GET /ws/progress/{requestId}")
}

// HandleProgress - GET /ws/progress/{requestId}, upgraded to WebSocket
func (h *Hub) HandleProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := vars["requestId"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ [Progress] WebSocket upgrade failed: %v", err)
		return
	}

	log.Printf("🔍 [Progress] New subscriber for request: %s", requestID)

	events, unsubscribe := h.Subscribe(requestID)
	defer unsubscribe()
	defer conn.Close()

	// Discard reads; a read error means the client went away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("⚠️ [Progress] WebSocket write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
