package main

import "math"

// Feed message types (JSON text frames)
const (
	MsgWelcome = "welcome"
	MsgOver    = "over"
	MsgError   = "error"
)

// Envelope wraps JSON control messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// WelcomeMsg is sent once when a viewer attaches to a match
type WelcomeMsg struct {
	Match   string  `json:"match"`
	Seed    int64   `json:"seed"`
	MinX    float64 `json:"minx"`
	MaxX    float64 `json:"maxx"`
	MinZ    float64 `json:"minz"`
	MaxZ    float64 `json:"maxz"`
	TickHz  int     `json:"tickhz"`
	FrameHz int     `json:"framehz"`
}

// ErrorMsg sends an error to the viewer
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// EntityState is the renderer view of one entity
type EntityState struct {
	ID       int        `msgpack:"id" json:"id"`
	Kind     string     `msgpack:"k" json:"k"`
	Category string     `msgpack:"c,omitempty" json:"c,omitempty"`
	Model    string     `msgpack:"m" json:"m"`
	X        float64    `msgpack:"x" json:"x"`
	Y        float64    `msgpack:"y" json:"y"`
	Z        float64    `msgpack:"z" json:"z"`
	RX       float64    `msgpack:"rx,omitempty" json:"rx,omitempty"`
	RY       float64    `msgpack:"ry" json:"ry"`
	RZ       float64    `msgpack:"rz,omitempty" json:"rz,omitempty"`
	Up       [3]float64 `msgpack:"up" json:"up"`
	Forward  [3]float64 `msgpack:"fw" json:"fw"`
	Speed    float64    `msgpack:"v" json:"v"`
	Scale    float64    `msgpack:"s" json:"s"`
	Alpha    float64    `msgpack:"a" json:"a"`
	Radius   float64    `msgpack:"cr,omitempty" json:"cr,omitempty"`
	Dead     bool       `msgpack:"d,omitempty" json:"d,omitempty"`
}

// PlayerState is the per-player HUD view
type PlayerState struct {
	ID     int     `msgpack:"id" json:"id"`
	Slot   int     `msgpack:"slot" json:"slot"`
	Name   string  `msgpack:"n" json:"n"`
	HP     int     `msgpack:"hp" json:"hp"`
	MaxHP  int     `msgpack:"mhp" json:"mhp"`
	Over   bool    `msgpack:"over" json:"over"`
	Auto   bool    `msgpack:"auto,omitempty" json:"auto,omitempty"`
	ShootR float64 `msgpack:"sr" json:"sr"`
}

// ProjectileState is broadcast per ballistic shell
type ProjectileState struct {
	Owner int     `msgpack:"o" json:"o"`
	X     float64 `msgpack:"x" json:"x"`
	Y     float64 `msgpack:"y" json:"y"`
	Z     float64 `msgpack:"z" json:"z"`
}

// Snapshot is the full state published to renderers after a tick
type Snapshot struct {
	Match       string            `msgpack:"match" json:"match"`
	Tick        uint64            `msgpack:"tick" json:"tick"`
	Time        float64           `msgpack:"time" json:"time"`
	Entities    []EntityState     `msgpack:"e" json:"e"`
	Players     []PlayerState     `msgpack:"p" json:"p"`
	Projectiles []ProjectileState `msgpack:"pr" json:"pr"`
	Events      []CombatEvent     `msgpack:"ev,omitempty" json:"ev,omitempty"`
	Over        bool              `msgpack:"over" json:"over"`
	Winner      string            `msgpack:"w,omitempty" json:"w,omitempty"`
}

// MatchInfo is used in the running match list
type MatchInfo struct {
	ID      string   `json:"id"`
	Seed    int64    `json:"seed"`
	Time    float64  `json:"time"`
	Players []string `json:"players"`
	HP      []int    `json:"hp"`
	Over    bool     `json:"over"`
	Viewers int      `json:"viewers"`
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func vecArr(v Vec3) [3]float64 {
	return [3]float64{math.Round(v.X*1000) / 1000, math.Round(v.Y*1000) / 1000, math.Round(v.Z*1000) / 1000}
}

// ToState converts to protocol state
func (e *Entity) ToState() EntityState {
	s := EntityState{
		ID:      e.ID,
		Kind:    e.Kind.String(),
		Model:   e.Model,
		X:       round1(e.Position.X),
		Y:       round1(e.Position.Y),
		Z:       round1(e.Position.Z),
		RX:      e.RotationX,
		RY:      e.RotationY,
		RZ:      e.RotationZ,
		Up:      vecArr(e.Frame.Up),
		Forward: vecArr(e.Frame.Forward),
		Speed:   round1(e.Speed),
		Scale:   e.Scale,
		Alpha:   e.Alpha,
		Dead:    e.IsDead(),
	}
	if e.Category != CategoryNone {
		s.Category = e.Category.String()
	}
	if e.Collidable {
		s.Radius = e.CollisionRadius
	}
	return s
}

// Snapshot captures the renderer view of the match. The returned value
// shares nothing with the match.
func (m *Match) Snapshot() Snapshot {
	snap := Snapshot{
		Match:       m.ID,
		Tick:        m.tick,
		Time:        m.time,
		Entities:    make([]EntityState, 0, len(m.roster)),
		Players:     make([]PlayerState, 0, len(m.players)),
		Projectiles: make([]ProjectileState, 0, len(m.projectiles)),
		Events:      append([]CombatEvent(nil), m.events...),
		Over:        m.result != nil,
	}
	for _, e := range m.roster {
		snap.Entities = append(snap.Entities, e.ToState())
	}
	for _, p := range m.players {
		snap.Players = append(snap.Players, p.PlayerState())
	}
	for _, p := range m.projectiles {
		snap.Projectiles = append(snap.Projectiles, p.ToState())
	}
	if m.result != nil {
		snap.Winner = m.result.Winner
	}
	return snap
}
