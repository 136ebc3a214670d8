// Package notify pushes profit updates to websocket subscribers.
package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"

	"pumpx-core/internal/domain"
)

// Broadcaster fans profit updates out to websocket clients. A write
// failure drops that client; no update is ever queued per client.
type Broadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
	logger   *log.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// NewBroadcaster creates a broadcaster with no connected clients.
func NewBroadcaster(logger *log.Logger) *Broadcaster {
	if logger == nil {
		logger = log.New(os.Stdout, "[notify] ", log.LstdFlags|log.Lshortfile)
	}
	return &Broadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
		closed:   make(chan struct{}),
	}
}

// Run consumes updates until the channel closes or Close is called.
// Intended to be fed from a ledger subscription.
func (b *Broadcaster) Run(updates <-chan domain.ProfitUpdate) {
	for {
		select {
		case <-b.closed:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.broadcast(update)
		}
	}
}

func (b *Broadcaster) broadcast(update domain.ProfitUpdate) {
	msg, err := json.Marshal(update)
	if err != nil {
		b.logger.Printf("failed to marshal profit update: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.logger.Printf("websocket write error: %v", err)
			c.Close()
			delete(b.clients, c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Handler returns an http.HandlerFunc that accepts websocket connections.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Printf("websocket upgrade error: %v", err)
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()

		// Read loop keeps the connection alive and detects disconnects.
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Close disconnects all clients and stops Run. Safe to call twice.
func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() {
		close(b.closed)
		b.mu.Lock()
		for c := range b.clients {
			c.Close()
		}
		b.clients = make(map[*websocket.Conn]struct{})
		b.mu.Unlock()
	})
}
