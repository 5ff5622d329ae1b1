// Package websocket pushes toast and list-changed events to connected
// browsers.
//
// A single hub goroutine owns the client set and serves register, unregister
// and broadcast requests from channels. Each client gets one read pump, which
// keeps control frames flowing, and one write pump, which drains its send
// buffer and pings the peer.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/conneroisu/contactbook/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBufferSize      = 64
	broadcastBufferSize = 256
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Hub fans events out to every connected client.
type Hub struct {
	logger         logging.Logger
	originPatterns []string

	clients      map[*Client]struct{}
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	ctx     context.Context
	cancel  context.CancelFunc
	hubDone chan struct{}

	// pumps counts live connection handlers. closed guards pumps.Add
	// against a concurrent Shutdown.
	pumps        sync.WaitGroup
	lifecycleMu  sync.Mutex
	closed       bool
	shutdownOnce sync.Once
}

// NewHub creates a hub and starts its goroutine. originPatterns are extra
// host patterns accepted during the upgrade; same-host origins are always
// accepted.
func NewHub(logger logging.Logger, originPatterns []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		logger:         logger.WithComponent("websocket"),
		originPatterns: originPatterns,
		clients:        make(map[*Client]struct{}),
		broadcast:      make(chan []byte, broadcastBufferSize),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		ctx:            ctx,
		cancel:         cancel,
		hubDone:        make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.hubDone)

	for {
		select {
		case client := <-h.register:
			h.clientsMutex.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.clientsMutex.Unlock()
			h.logger.Debug(h.ctx, "client connected", "addr", client.addr, "clients", count)

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.clientsMutex.RLock()
			var slow []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}
			h.clientsMutex.RUnlock()

			for _, client := range slow {
				h.logger.Warn(h.ctx, nil, "dropping slow client", "addr", client.addr)
				h.removeClient(client)
			}

		case <-h.ctx.Done():
			h.clientsMutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMutex.Unlock()
			return
		}
	}
}

// removeClient runs on the hub goroutine only, so send is closed once.
func (h *Hub) removeClient(client *Client) {
	h.clientsMutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.clientsMutex.Unlock()

	if ok {
		h.logger.Debug(h.ctx, "client disconnected", "addr", client.addr, "clients", count)
	}
}

// track reserves a pump slot, or reports false after Shutdown.
func (h *Hub) track() bool {
	h.lifecycleMu.Lock()
	defer h.lifecycleMu.Unlock()
	if h.closed {
		return false
	}
	h.pumps.Add(1)
	return true
}

// ServeHTTP upgrades the request and serves the client until either side
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.track() {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	defer h.pumps.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.originPatterns,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "websocket upgrade rejected",
			"addr", r.RemoteAddr, "origin", r.Header.Get("Origin"))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxMessageSize)

	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		addr: r.RemoteAddr,
	}

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	h.pumps.Add(1)
	go func() {
		defer h.pumps.Done()
		h.writePump(client)
	}()

	h.readPump(client)

	select {
	case h.unregister <- client:
	case <-h.hubDone:
	}
}

// readPump discards incoming data; reading is what processes pings, pongs
// and close frames.
func (h *Hub) readPump(client *Client) {
	for {
		if _, _, err := client.conn.Read(h.ctx); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && h.ctx.Err() == nil {
				h.logger.Debug(h.ctx, "websocket read ended", "addr", client.addr, "error", err.Error())
			}
			return
		}
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				if h.ctx.Err() != nil {
					_ = client.conn.CloseNow()
				} else {
					_ = client.conn.Close(websocket.StatusPolicyViolation, "client too slow")
				}
				return
			}

			ctx, cancel := context.WithTimeout(h.ctx, writeWait)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				h.logger.Debug(h.ctx, "websocket write failed", "addr", client.addr, "error", err.Error())
				_ = client.conn.CloseNow()
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(h.ctx, writeWait)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				_ = client.conn.CloseNow()
				return
			}

		case <-h.ctx.Done():
			_ = client.conn.CloseNow()
			return
		}
	}
}

// Broadcast queues event for every connected client. Events are dropped
// when the hub is shut down or its queue is full.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error(h.ctx, err, "failed to encode event", "type", string(event.Type))
		return
	}

	select {
	case <-h.ctx.Done():
		return
	default:
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn(h.ctx, nil, "broadcast queue full, dropping event", "type", string(event.Type))
	}
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client and waits for their pumps to exit.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		h.lifecycleMu.Lock()
		h.closed = true
		h.lifecycleMu.Unlock()
		h.cancel()
	})

	done := make(chan struct{})
	go func() {
		<-h.hubDone
		h.pumps.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
