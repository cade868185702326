package terminal

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/nightcrew/lastshift/internal/domain/entity"
	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/item"
	"github.com/nightcrew/lastshift/internal/engine"
)

const (
	hudTop    = 2 // status and tool belt
	hudBottom = 4 // messages, directives
)

var (
	styleDefault = tcell.StyleDefault
	styleFloor   = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorDimGray)
	styleLit     = tcell.StyleDefault.Background(tcell.NewRGBColor(60, 55, 20)).Foreground(tcell.ColorGray)
	styleWall    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePlayer  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorDimGray)
	styleWarn    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleGood    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleCurrent = tcell.StyleDefault.Reverse(true)
)

var entityGlyphs = map[entity.Type]rune{
	entity.TypeGatherer:  'G',
	entity.TypeTapper:    'T',
	entity.TypeAuditor:   'A',
	entity.TypeLostChild: 'c',
}

var itemGlyphs = map[item.Type]rune{
	item.TypeSoda:    's',
	item.TypeBattery: 'b',
	item.TypeTape:    't',
	item.TypeScanner: '$',
	item.TypeAirhorn: 'h',
	item.TypeCleaner: '%',
	item.TypePlush:   '&',
	item.TypeJerky:   'j',
}

// Renderer draws snapshots onto a tcell screen.
type Renderer struct {
	screen tcell.Screen
}

// NewRenderer wraps an initialised screen.
func NewRenderer(s tcell.Screen) *Renderer {
	return &Renderer{screen: s}
}

// field is the screen rectangle the arena is scaled into.
type field struct {
	x, y, w, h int
	arena      geom.Arena
}

func (f field) cell(p geom.Vec) (int, int) {
	cx := f.x + int(p.X/f.arena.Width*float64(f.w))
	cy := f.y + int(p.Y/f.arena.Height*float64(f.h))
	return clampInt(cx, f.x, f.x+f.w-1), clampInt(cy, f.y, f.y+f.h-1)
}

// point is the arena position at the centre of a cell.
func (f field) point(cx, cy int) geom.Vec {
	return geom.Vec{
		X: (float64(cx-f.x) + 0.5) / float64(f.w) * f.arena.Width,
		Y: (float64(cy-f.y) + 0.5) / float64(f.h) * f.arena.Height,
	}
}

// Draw renders one frame and shows it.
func (r *Renderer) Draw(snap engine.Snapshot) {
	r.screen.Clear()
	w, h := r.screen.Size()
	if w < 20 || h < hudTop+hudBottom+5 {
		r.text(0, 0, styleWarn, "Terminal too small")
		r.screen.Show()
		return
	}

	f := field{x: 1, y: hudTop + 1, w: w - 2, h: h - hudTop - hudBottom - 2, arena: snap.Arena}
	if f.arena.Width <= 0 || f.arena.Height <= 0 {
		f.arena = geom.DefaultArena
	}

	r.drawStatus(snap, w)
	r.drawFloor(snap, f)
	r.drawFrame(f)
	for _, it := range snap.Items {
		x, y := f.cell(it.Pos)
		st := styleDefault.Foreground(tcell.GetColor(it.Color))
		r.screen.SetContent(x, y, itemGlyphs[it.Type], nil, st)
	}
	for _, e := range snap.Entities {
		x, y := f.cell(e.Pos)
		r.screen.SetContent(x, y, entityGlyph(e), nil, entityStyle(e))
	}
	px, py := f.cell(snap.Player.Pos)
	r.screen.SetContent(px, py, '@', nil, stylePlayer)
	r.drawFooter(snap, w, h)

	if snap.GameOver || snap.Win {
		r.drawEnd(snap, w, h)
	}
	r.screen.Show()
}

func (r *Renderer) drawStatus(snap engine.Snapshot, w int) {
	status := fmt.Sprintf("%s  Night %d  Sanity %3.0f  Battery %3.0f  Store %3.0f  Score %d",
		snap.ClockDisplay, snap.Night, snap.Player.Sanity, snap.Player.Battery, snap.Integrity, snap.Score)
	st := styleDefault
	if snap.Player.Sanity < 25 || snap.Integrity < 25 {
		st = styleWarn
	}
	r.text(0, 0, st, truncate(status, w))

	x := 0
	for _, t := range snap.Tools {
		label := t.Name
		if t.Count > 0 {
			label = fmt.Sprintf("%s x%d", t.Name, t.Count)
		}
		st := styleDefault
		switch {
		case t.Current:
			st = styleCurrent
		case !t.Equipped:
			st = styleDim
		}
		x = r.text(x, 1, st, " "+label+" ") + 1
		if x >= w {
			break
		}
	}
	if snap.Player.FlashlightOn {
		r.text(x, 1, stylePlayer, "*light*")
	}
}

func (r *Renderer) drawFloor(snap engine.Snapshot, f field) {
	for cy := f.y; cy < f.y+f.h; cy++ {
		for cx := f.x; cx < f.x+f.w; cx++ {
			st := styleFloor
			if snap.Beam.On && lit(snap.Beam, f.point(cx, cy)) {
				st = styleLit
			}
			r.screen.SetContent(cx, cy, ' ', nil, st)
		}
	}
}

func lit(b engine.Beam, p geom.Vec) bool {
	return geom.Distance(b.Origin, p) <= engine.BeamRadius && geom.InCone(b.Origin, b.Facing, engine.BeamWidth/2, p)
}

func (r *Renderer) drawFrame(f field) {
	for x := f.x; x < f.x+f.w; x++ {
		r.screen.SetContent(x, f.y-1, '─', nil, styleWall)
		r.screen.SetContent(x, f.y+f.h, '─', nil, styleWall)
	}
	for y := f.y; y < f.y+f.h; y++ {
		r.screen.SetContent(f.x-1, y, '│', nil, styleWall)
		r.screen.SetContent(f.x+f.w, y, '│', nil, styleWall)
	}
	r.screen.SetContent(f.x-1, f.y-1, '┌', nil, styleWall)
	r.screen.SetContent(f.x+f.w, f.y-1, '┐', nil, styleWall)
	r.screen.SetContent(f.x-1, f.y+f.h, '└', nil, styleWall)
	r.screen.SetContent(f.x+f.w, f.y+f.h, '┘', nil, styleWall)
}

func (r *Renderer) drawFooter(snap engine.Snapshot, w, h int) {
	y := h - hudBottom
	msgs := snap.Messages
	if len(msgs) > 2 {
		msgs = msgs[len(msgs)-2:]
	}
	for i, m := range msgs {
		r.text(0, y+i, styleDefault, truncate(m, w))
	}

	var open []string
	for i, d := range snap.Directives {
		mark := " "
		if d.Completed {
			mark = "x"
		}
		open = append(open, fmt.Sprintf("%d[%s] %s", i+1, mark, d.Text))
	}
	if len(open) > 0 {
		r.text(0, y+2, styleDim, truncate(strings.Join(open, "  "), w))
	}

	var fx []string
	for _, e := range snap.Effects {
		fx = append(fx, fmt.Sprintf("%s %.0fs", e.Label, math.Ceil(e.Remaining)))
	}
	if len(fx) > 0 {
		r.text(0, y+3, styleWarn, truncate(strings.Join(fx, " | "), w))
	}
}

func (r *Renderer) drawEnd(snap engine.Snapshot, w, h int) {
	title, st := "SHIFT COMPLETE", styleGood
	if snap.GameOver {
		title, st = "GAME OVER", styleWarn
	}
	lines := []string{title}
	if snap.Reason != "" {
		lines = append(lines, snap.Reason)
	}
	lines = append(lines, fmt.Sprintf("Score: %d", snap.Score), "r: new shift   esc: quit")
	top := h/2 - len(lines)/2
	for i, l := range lines {
		l = truncate(l, w)
		r.text((w-len([]rune(l)))/2, top+i, st, l)
	}
}

// text writes s at (x, y) and returns the column after it.
func (r *Renderer) text(x, y int, st tcell.Style, s string) int {
	for _, c := range s {
		r.screen.SetContent(x, y, c, nil, st)
		x++
	}
	return x
}

func entityGlyph(e engine.EntityView) rune {
	g, ok := entityGlyphs[e.Type]
	if !ok {
		return '?'
	}
	return g
}

func entityStyle(e engine.EntityView) tcell.Style {
	switch {
	case e.Stunned:
		return styleDefault.Foreground(tcell.ColorBlue).Bold(true)
	case e.Blinded:
		return styleDefault.Foreground(tcell.ColorFuchsia)
	}
	switch e.State {
	case entity.StateChasing, entity.StateBreaking, entity.StateAngry, entity.StateInspecting:
		return styleWarn
	case entity.StateCalmed, entity.StateFound:
		return styleGood
	case entity.StateHidden:
		return styleDim
	}
	return styleDefault.Foreground(tcell.ColorWhite)
}

func truncate(s string, w int) string {
	rs := []rune(s)
	if len(rs) <= w {
		return s
	}
	return string(rs[:w])
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
