package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

const (
	viewerFrame   = 33 * time.Millisecond
	bloomFlash    = 300 * time.Millisecond
	defaultHoldMS = 150
	hudRows       = 2
)

type control int

const (
	ctlLeft control = iota
	ctlRight
	ctlForward
	ctlBackward
	ctlShoot
)

// keyID normalizes a tcell key event to a binding name ("a", "space", "enter")
func keyID(ev *tcell.EventKey) string {
	if ev.Key() == tcell.KeyRune {
		if ev.Rune() == ' ' {
			return "space"
		}
		return strings.ToLower(string(ev.Rune()))
	}
	if name, ok := tcell.KeyNames[ev.Key()]; ok {
		return strings.ToLower(name)
	}
	return ""
}

// bindingMap turns one player's configured keys into a lookup by key ID
func bindingMap(b BindingConfig) map[string]control {
	m := make(map[string]control, 5)
	for key, c := range map[string]control{
		b.Left:     ctlLeft,
		b.Right:    ctlRight,
		b.Forward:  ctlForward,
		b.Backward: ctlBackward,
		b.Shoot:    ctlShoot,
	} {
		if key != "" {
			m[strings.ToLower(key)] = c
		}
	}
	return m
}

// keyState tracks held controls for one player. Terminals report presses
// and repeats but never releases, so a key counts as held for hold after
// its last event.
type keyState struct {
	seen  [5]time.Time
	shoot bool // a shoot press not yet handed to the runner
}

func (k *keyState) press(c control, now time.Time) {
	k.seen[c] = now
	if c == ctlShoot {
		k.shoot = true
	}
}

func (k *keyState) input(now time.Time, hold time.Duration) PlayerInput {
	held := func(c control) bool { return !k.seen[c].IsZero() && now.Sub(k.seen[c]) < hold }
	in := PlayerInput{
		Left:     held(ctlLeft),
		Right:    held(ctlRight),
		Forward:  held(ctlForward),
		Backward: held(ctlBackward),
		Shoot:    k.shoot,
	}
	k.shoot = false
	return in
}

// Viewer renders a running match top-down in the terminal and feeds local
// key presses to both player slots. It also receives the match's screen
// cues.
type Viewer struct {
	screen   tcell.Screen
	bindings [2]map[string]control
	keys     [2]keyState
	hold     time.Duration

	mu         sync.Mutex
	over       *MatchOverScreen
	bloom      [2]string
	bloomUntil [2]time.Time
}

// NewViewer prepares a viewer on an initialized screen
func NewViewer(screen tcell.Screen, cfg BindingsConfig) *Viewer {
	hold := cfg.KeyHoldMS
	if hold <= 0 {
		hold = defaultHoldMS
	}
	return &Viewer{
		screen:   screen,
		bindings: [2]map[string]control{bindingMap(cfg.PlayerOne), bindingMap(cfg.PlayerTwo)},
		hold:     time.Duration(hold) * time.Millisecond,
	}
}

// AddScreen captures the match-over screen
func (v *Viewer) AddScreen(s Screen) {
	over, ok := s.(MatchOverScreen)
	if !ok {
		return
	}
	v.mu.Lock()
	v.over = &over
	v.mu.Unlock()
}

// SetBloomPreset flashes the player's HUD panel
func (v *Viewer) SetBloomPreset(slot int, preset string) {
	if slot < 1 || slot > 2 {
		return
	}
	v.mu.Lock()
	v.bloom[slot-1] = preset
	v.bloomUntil[slot-1] = time.Now().Add(bloomFlash)
	v.mu.Unlock()
}

// HandleKey routes a key press to the player bound to it. Returns false
// when the viewer should quit.
func (v *Viewer) HandleKey(ev *tcell.EventKey, now time.Time) bool {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return false
	}
	id := keyID(ev)
	for i, b := range v.bindings {
		if c, ok := b[id]; ok {
			v.keys[i].press(c, now)
		}
	}
	return true
}

// Inputs returns both players' controls for the next frame
func (v *Viewer) Inputs(now time.Time) [2]PlayerInput {
	return [2]PlayerInput{v.keys[0].input(now, v.hold), v.keys[1].input(now, v.hold)}
}

// Run drives the runner until Esc is pressed. After the runner finishes the
// final frame stays up until a key is pressed.
func (v *Viewer) Run(r *Runner) {
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	defer close(quit)
	go v.pollEvents(events, quit)

	ticker := time.NewTicker(viewerFrame)
	defer ticker.Stop()

	welcome := r.Welcome()
	finished := false
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !v.HandleKey(ev, time.Now()) || finished {
					return
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
		case <-r.Done():
			if !finished {
				finished = true
				v.draw(welcome, r.Snapshot(), true)
			}
		case <-ticker.C:
			if finished {
				continue
			}
			in := v.Inputs(time.Now())
			r.SetInput(1, in[0])
			r.SetInput(2, in[1])
			v.draw(welcome, r.Snapshot(), false)
		}
	}
}

// pollEvents forwards screen events until the screen is finalized or quit
// is closed. PollEvent returns nil after Fini.
func (v *Viewer) pollEvents(events chan<- tcell.Event, quit <-chan struct{}) {
	for ev := v.screen.PollEvent(); ev != nil; ev = v.screen.PollEvent() {
		select {
		case events <- ev:
		case <-quit:
			return
		}
	}
}

func (v *Viewer) draw(w WelcomeMsg, snap Snapshot, finished bool) {
	s := v.screen
	s.Clear()
	cols, rows := s.Size()
	arenaRows := rows - hudRows
	if cols <= 0 || arenaRows <= 0 {
		s.Show()
		return
	}

	toCell := func(x, z float64) (int, int, bool) {
		cx := int((x - w.MinX) / (w.MaxX - w.MinX) * float64(cols))
		cy := int((z - w.MinZ) / (w.MaxZ - w.MinZ) * float64(arenaRows))
		return cx, cy + hudRows, cx >= 0 && cx < cols && cy >= 0 && cy < arenaRows
	}

	for _, e := range snap.Entities {
		if e.Category == CategorySurface.String() {
			continue
		}
		x, y, ok := toCell(e.X, e.Z)
		if !ok {
			continue
		}
		r, style := glyph(e)
		s.SetContent(x, y, r, nil, style)
	}
	for _, p := range snap.Projectiles {
		if x, y, ok := toCell(p.X, p.Z); ok {
			s.SetContent(x, y, '.', nil, tcell.StyleDefault.Foreground(tcell.ColorOrange))
		}
	}
	// heading markers drawn last so scenery never hides a player's facing
	for _, e := range snap.Entities {
		if e.Kind != KindPlayer.String() {
			continue
		}
		fw := HeadingForward(e.RY).Scale(2 * (w.MaxX - w.MinX) / float64(cols))
		px, py, _ := toCell(e.X, e.Z)
		if x, y, ok := toCell(e.X+fw.X, e.Z+fw.Z); ok && (x != px || y != py) {
			s.SetContent(x, y, '+', nil, tcell.StyleDefault.Foreground(tcell.ColorWhite))
		}
	}

	v.drawHUD(snap, cols)
	v.drawOver(snap, cols, rows, finished)
	s.Show()
}

func glyph(e EntityState) (rune, tcell.Style) {
	st := tcell.StyleDefault
	switch {
	case e.Kind == KindPlayer.String():
		return '8', st.Foreground(tcell.ColorYellow).Bold(true)
	case e.Kind == KindRocket.String():
		if e.Dead {
			return 'x', st.Foreground(tcell.ColorDarkGray)
		}
		return '*', st.Foreground(tcell.ColorRed)
	}
	switch e.Category {
	case CategoryEgg.String():
		return 'o', st.Foreground(tcell.ColorWhite)
	case CategoryStone.String():
		return '#', st.Foreground(tcell.ColorGray)
	case CategoryBigSeagrass.String():
		return '|', st.Foreground(tcell.ColorGreen)
	case CategorySmallSeagrass.String():
		return ',', st.Foreground(tcell.ColorDarkGreen)
	case CategorySeaFlower.String():
		return '@', st.Foreground(tcell.ColorFuchsia)
	case CategoryUrchin.String():
		return '%', st.Foreground(tcell.ColorPurple)
	}
	return '?', st
}

func (v *Viewer) drawHUD(snap Snapshot, cols int) {
	v.mu.Lock()
	bloom, until := v.bloom, v.bloomUntil
	v.mu.Unlock()
	now := time.Now()

	x := 0
	for i, p := range snap.Players {
		style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
		if i < 2 && now.Before(until[i]) {
			switch bloom[i] {
			case BloomDamage:
				style = style.Background(tcell.ColorMaroon)
			case BloomHeal:
				style = style.Background(tcell.ColorDarkGreen)
			}
		}
		bar := strings.Repeat("=", p.HP) + strings.Repeat(" ", max(p.MaxHP-p.HP, 0))
		x = drawText(v.screen, x, 0, style, fmt.Sprintf(" P%d %s [%s] %2d ", p.Slot, p.Name, bar, p.HP))
		x = drawText(v.screen, x, 0, tcell.StyleDefault, " ")
	}
	drawText(v.screen, x, 0, tcell.StyleDefault.Foreground(tcell.ColorGray), fmt.Sprintf("t=%.1fs", snap.Time))
	drawText(v.screen, 0, 1, tcell.StyleDefault.Foreground(tcell.ColorDarkGray), strings.Repeat("-", cols))
}

func (v *Viewer) drawOver(snap Snapshot, cols, rows int, finished bool) {
	v.mu.Lock()
	over := v.over
	v.mu.Unlock()
	if over == nil {
		return
	}
	msg := fmt.Sprintf(" %s wins! ", over.Winner)
	if over.Draw {
		msg = " Draw! "
	}
	hint := " press Esc to quit "
	if finished {
		hint = " press any key "
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
	drawText(v.screen, (cols-len(msg))/2, rows/2, style, msg)
	drawText(v.screen, (cols-len(hint))/2, rows/2+1, tcell.StyleDefault, hint)
}

// drawText writes s starting at (x, y) and returns the column after it
func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) int {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
