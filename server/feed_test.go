package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// startFeedServer runs one bot match behind an httptest server and returns
// the server and its WebSocket URL
func startFeedServer(t *testing.T, db *DB) (*httptest.Server, string, *SessionManager) {
	t.Helper()

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	sessions := NewSessionManager(cfg, flatTerrain(), RunnerOptions{TickRate: 60, BroadcastRate: 20, DB: db})
	if err := sessions.StartBots(1); err != nil {
		t.Fatalf("StartBots: %v", err)
	}

	hub := NewHub(sessions, db, cfg.Feed, 10)
	hubDone := make(chan struct{})
	go hub.Run(hubDone)

	srv := httptest.NewServer(SetupRoutes(hub, "http://arena.test/"))
	t.Cleanup(func() {
		sessions.StopAll()
		srv.Close()
		close(hubDone)
	})
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", sessions
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode
}

func TestFeedHealthAndMatches(t *testing.T) {
	srv, _, _ := startFeedServer(t, nil)

	var health map[string]int
	if code := getJSON(t, srv.URL+"/healthz", &health); code != http.StatusOK {
		t.Fatalf("healthz returned %d", code)
	}
	if health["matches"] != 1 {
		t.Errorf("expected one running match, got %v", health)
	}

	var list []MatchInfo
	getJSON(t, srv.URL+"/matches", &list)
	if len(list) != 1 || len(list[0].Players) != 2 {
		t.Fatalf("unexpected match list %+v", list)
	}
	if list[0].HP[0] != PlayerMaxHP {
		t.Errorf("fresh match should start at full HP, got %v", list[0].HP)
	}

	var errMsg ErrorMsg
	if code := getJSON(t, srv.URL+"/matches/history", &errMsg); code != http.StatusNotFound {
		t.Errorf("history without a database should 404, got %d", code)
	}
}

func TestFeedHistory(t *testing.T) {
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer db.Close()
	if err := db.RecordMatch(MatchRow{ID: "old", Seed: 5, StartedAt: time.Now(), Winner: "Player 1", Loser: "Player 2"}); err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}

	srv, _, _ := startFeedServer(t, db)
	var rows []MatchRow
	if code := getJSON(t, srv.URL+"/matches/history?limit=5", &rows); code != http.StatusOK {
		t.Fatalf("history returned %d", code)
	}
	if len(rows) != 1 || rows[0].ID != "old" || rows[0].Winner != "Player 1" {
		t.Errorf("unexpected history %+v", rows)
	}
}

func TestFeedQRCode(t *testing.T) {
	srv, _, _ := startFeedServer(t, nil)

	resp, err := http.Get(srv.URL + "/qr.png")
	if err != nil {
		t.Fatalf("GET qr: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode qr: %v", err)
	}
	if img.Bounds().Dx() != 256 {
		t.Errorf("expected a 256px code, got %d", img.Bounds().Dx())
	}

	var buf bytes.Buffer
	if err := PrintQR(&buf, "http://arena.test/"); err != nil {
		t.Fatalf("PrintQR: %v", err)
	}
	if !strings.Contains(buf.String(), "http://arena.test/") {
		t.Error("terminal QR should be followed by the URL")
	}
}

func TestFeedWebSocket(t *testing.T) {
	_, wsURL, sessions := startFeedServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("first message should be text, got %d", msgType)
	}
	var welcome struct {
		T string     `json:"t"`
		D WelcomeMsg `json:"d"`
	}
	if err := json.Unmarshal(raw, &welcome); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.T != MsgWelcome || welcome.D.TickHz != 60 || welcome.D.MaxX != 2000 {
		t.Errorf("unexpected welcome %+v", welcome)
	}
	if sessions.GetRunner(welcome.D.Match) == nil {
		t.Fatal("welcome should name the running match")
	}

	// frames follow as binary msgpack snapshots
	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		msgType, raw, err = conn.ReadMessage()
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if msgType == websocket.BinaryMessage {
			break
		}
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if snap.Match != welcome.D.Match || len(snap.Players) != 2 || len(snap.Entities) == 0 {
		t.Errorf("unexpected frame for match %s with %d entities", snap.Match, len(snap.Entities))
	}
}

func TestFeedUnknownMatch(t *testing.T) {
	_, wsURL, _ := startFeedServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?match=nope", nil)
	if err == nil {
		t.Fatal("dial should fail for an unknown match")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %v", resp)
	}
}
