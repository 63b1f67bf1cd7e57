package main

import (
	"sync"

	"github.com/rs/zerolog"
)

const (
	defaultMaxConnsPerIP = 5
	defaultMaxTotalConns = 1000
)

// Hub tracks feed clients, enforces connection limits and routes viewers
// to running matches.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager
	db         *DB
	history    int
	log        zerolog.Logger
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu        sync.Mutex
	ipConns       map[string]int
	totalConns    int
	maxConnsPerIP int
	maxTotalConns int
}

// NewHub creates a Hub. db may be nil when history is disabled.
func NewHub(sessions *SessionManager, db *DB, cfg FeedConfig, history int) *Hub {
	h := &Hub{
		clients:       make(map[*Client]bool),
		register:      make(chan *Client, 64),
		unregister:    make(chan *Client, 64),
		sessions:      sessions,
		db:            db,
		history:       history,
		log:           componentLogger("hub"),
		ipConns:       make(map[string]int),
		maxConnsPerIP: cfg.MaxConnsPerIP,
		maxTotalConns: cfg.MaxTotalConns,
	}
	if h.maxConnsPerIP <= 0 {
		h.maxConnsPerIP = defaultMaxConnsPerIP
	}
	if h.maxTotalConns <= 0 {
		h.maxTotalConns = defaultMaxTotalConns
	}
	if h.history <= 0 {
		h.history = 20
	}
	return h
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= h.maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= h.maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events until done is closed
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			if client.runner != nil {
				client.runner.RemoveViewer(client)
			}

		case <-done:
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
