package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, feedURL string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{
			"matches": len(hub.sessions.ListMatches()),
			"viewers": hub.ClientCount(),
		})
	})

	mux.HandleFunc("/matches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.sessions.ListMatches())
	})

	mux.HandleFunc("/matches/history", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			writeJSON(w, http.StatusNotFound, ErrorMsg{Msg: "history disabled"})
			return
		}
		limit := hub.history
		if s := r.URL.Query().Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}
		rows, err := hub.db.RecentMatches(limit)
		if err != nil {
			hub.log.Error().Err(err).Msg("load history")
			writeJSON(w, http.StatusInternalServerError, ErrorMsg{Msg: "history unavailable"})
			return
		}
		if rows == nil {
			rows = []MatchRow{}
		}
		writeJSON(w, http.StatusOK, rows)
	})

	mux.HandleFunc("/qr.png", func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(feedURL, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	// Renderer feed: /ws?match=<id>, or the oldest running match
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		runner := hub.pickRunner(r.URL.Query().Get("match"))
		if runner == nil {
			http.Error(w, "no such match", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Warn().Err(err).Msg("upgrade")
			return
		}

		hub.TrackConnect(ip)
		client := NewClient(hub, conn, ip, runner)
		hub.register <- client

		client.SendJSON(Envelope{T: MsgWelcome, Data: runner.Welcome()})
		if !runner.AddViewer(client) {
			client.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "match is full"}})
		}

		go client.WritePump()
		go client.ReadPump()
	})

	return mux
}

func (h *Hub) pickRunner(id string) *Runner {
	if id != "" {
		return h.sessions.GetRunner(id)
	}
	list := h.sessions.ListMatches()
	if len(list) == 0 {
		return nil
	}
	return h.sessions.GetRunner(list[0].ID)
}

// PrintQR writes a terminal QR code for the feed URL
func PrintQR(w io.Writer, feedURL string) error {
	q, err := qrcode.New(feedURL, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr encode: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n", q.ToSmallString(false), feedURL)
	return err
}
