package main

import (
	"fmt"
	"image/color"
	"math"
	"math/rand"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/nightcrew/lastshift/internal/domain/entity"
	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/config"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

const (
	hudHeight = 64
	footer    = 56

	playerRadius = 10
	entityRadius = 12
	itemRadius   = 6
)

var (
	colFloor   = color.RGBA{R: 18, G: 18, B: 24, A: 255}
	colWall    = color.RGBA{R: 70, G: 70, B: 80, A: 255}
	colBeam    = color.RGBA{R: 255, G: 240, B: 170, A: 40}
	colPlayer  = color.RGBA{R: 80, G: 200, B: 255, A: 255}
	colCalm    = color.RGBA{R: 120, G: 200, B: 120, A: 255}
	colHostile = color.RGBA{R: 230, G: 70, B: 60, A: 255}
	colIdle    = color.RGBA{R: 170, G: 150, B: 190, A: 255}
	colStunned = color.RGBA{R: 240, G: 240, B: 90, A: 255}
	colShade   = color.RGBA{A: 200}
)

// sounder is satisfied by *audio.SoundManager.
type sounder interface {
	PlayEvent(e events.GameEvent)
}

// Game is the ebiten frontend. It owns the session and steps it on
// ebiten's fixed 60 TPS update.
type Game struct {
	cfg    config.Config
	logger *logger.Logger
	sound  sounder
	seed   int64
	night  int

	session *engine.Session
	heard   int
	snap    engine.Snapshot
}

// NewGame opens the first night. sound may be nil.
func NewGame(cfg config.Config, seed int64, sound sounder, log *logger.Logger) *Game {
	g := &Game{cfg: cfg, logger: log, sound: sound, seed: seed, night: cfg.Game.Night}
	g.restart()
	return g
}

func (g *Game) restart() {
	settings := g.cfg.Game
	settings.Night = g.night
	g.session = engine.NewSession(settings, engine.Deps{
		Logger: g.logger,
		Rand:   rand.New(rand.NewSource(g.seed + int64(g.night))),
	})
	g.night++
	g.heard = g.session.EventLog().Len()
	g.snap = g.session.Snapshot()
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.logger.Info("New shift started.")
		g.restart()
		return nil
	}

	for _, cmd := range commands() {
		if res := g.session.Apply(cmd); !res.OK && res.Message != "" {
			g.logger.Debug(string(cmd.Kind) + ": " + res.Message)
		}
	}
	g.session.Update(1/float64(ebiten.TPS()), held())
	g.snap = g.session.Snapshot()

	fresh := g.session.EventLog().Since(g.heard)
	g.heard += len(fresh)
	if g.sound != nil {
		for _, e := range fresh {
			g.sound.PlayEvent(e)
		}
	}
	return nil
}

func held() player.ActionState {
	return player.ActionState{
		Up:     ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Left:   ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right:  ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		Run:    ebiten.IsKeyPressed(ebiten.KeyShift),
		Pickup: inpututil.IsKeyJustPressed(ebiten.KeySpace),
	}
}

var keyCommands = []struct {
	key  ebiten.Key
	kind engine.CommandKind
}{
	{ebiten.KeyF, engine.CmdToggleFlashlight},
	{ebiten.KeyQ, engine.CmdCycleTool},
	{ebiten.KeyTab, engine.CmdCycleTool},
	{ebiten.KeyE, engine.CmdUseTool},
	{ebiten.KeyEnter, engine.CmdUseTool},
	{ebiten.KeyC, engine.CmdClean},
	{ebiten.KeyL, engine.CmdBarricade},
	{ebiten.KeyP, engine.CmdAnnounce},
	{ebiten.KeyO, engine.CmdShowObjectives},
	{ebiten.KeyJ, engine.CmdEatSnack},
}

var directiveKeys = []ebiten.Key{ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4, ebiten.KeyDigit5}

func commands() []engine.Command {
	var out []engine.Command
	for _, kc := range keyCommands {
		if inpututil.IsKeyJustPressed(kc.key) {
			out = append(out, engine.Command{Kind: kc.kind})
		}
	}
	for i, k := range directiveKeys {
		if inpututil.IsKeyJustPressed(k) {
			out = append(out, engine.Command{Kind: engine.CmdCompleteDirective, Index: i})
		}
	}
	return out
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	snap := g.snap
	a := snap.Arena
	oy := float32(hudHeight)

	screen.Fill(color.Black)
	vector.DrawFilledRect(screen, 0, oy, float32(a.Width), float32(a.Height), colFloor, false)
	vector.StrokeRect(screen, 0, oy, float32(a.Width), float32(a.Height), 4, colWall, false)

	if snap.Beam.On {
		drawBeam(screen, snap.Beam, oy)
	}

	for _, it := range snap.Items {
		vector.DrawFilledCircle(screen, float32(it.Pos.X), oy+float32(it.Pos.Y), itemRadius, hexColor(it.Color), false)
	}
	for _, e := range snap.Entities {
		if e.State == entity.StateHidden {
			continue
		}
		x, y := float32(e.Pos.X), oy+float32(e.Pos.Y)
		vector.DrawFilledCircle(screen, x, y, entityRadius, entityColor(e), false)
		if e.Blinded {
			vector.StrokeCircle(screen, x, y, entityRadius+4, 2, colStunned, false)
		}
	}

	p := snap.Player
	px, py := float32(p.Pos.X), oy+float32(p.Pos.Y)
	vector.DrawFilledCircle(screen, px, py, playerRadius, colPlayer, false)
	fx := px + float32(math.Cos(p.Facing))*playerRadius*1.6
	fy := py + float32(math.Sin(p.Facing))*playerRadius*1.6
	vector.StrokeLine(screen, px, py, fx, fy, 2, color.White, false)

	g.drawHUD(screen, snap)
	if snap.GameOver || snap.Win {
		drawEnd(screen, snap)
	}
}

// drawBeam outlines the flashlight cone.
func drawBeam(screen *ebiten.Image, b engine.Beam, oy float32) {
	ox, oyy := float32(b.Origin.X), oy+float32(b.Origin.Y)
	const steps = 12
	prevX, prevY := ox, oyy
	for i := 0; i <= steps; i++ {
		ang := b.Facing - engine.BeamWidth/2 + engine.BeamWidth*float64(i)/steps
		x := ox + float32(math.Cos(ang)*engine.BeamRadius)
		y := oyy + float32(math.Sin(ang)*engine.BeamRadius)
		vector.StrokeLine(screen, ox, oyy, x, y, 3, colBeam, false)
		if i > 0 {
			vector.StrokeLine(screen, prevX, prevY, x, y, 1, colBeam, false)
		}
		prevX, prevY = x, y
	}
}

func (g *Game) drawHUD(screen *ebiten.Image, snap engine.Snapshot) {
	p := snap.Player
	light := "off"
	if p.FlashlightOn {
		light = "on"
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  Night %d  Sanity %.0f  Battery %.0f (%s)  Store %.0f  Score %d",
		snap.ClockDisplay, snap.Night, p.Sanity, p.Battery, light, snap.Integrity, snap.Score), 8, 6)

	var belt []string
	for _, t := range snap.Tools {
		name := t.Name
		if t.Count > 0 {
			name = fmt.Sprintf("%s x%d", name, t.Count)
		}
		switch {
		case t.Current:
			name = "[" + name + "]"
		case !t.Equipped:
			name = "(" + name + ")"
		}
		belt = append(belt, name)
	}
	ebitenutil.DebugPrintAt(screen, strings.Join(belt, "  "), 8, 24)

	var fx []string
	for _, e := range snap.Effects {
		fx = append(fx, fmt.Sprintf("%s %.0fs", e.Label, e.Remaining))
	}
	ebitenutil.DebugPrintAt(screen, strings.Join(fx, "  "), 8, 42)

	y := hudHeight + int(snap.Arena.Height) + 4
	msgs := snap.Messages
	if len(msgs) > 2 {
		msgs = msgs[len(msgs)-2:]
	}
	for i, m := range msgs {
		ebitenutil.DebugPrintAt(screen, m, 8, y+i*16)
	}
	var dirs []string
	for i, d := range snap.Directives {
		mark := " "
		if d.Completed {
			mark = "x"
		}
		dirs = append(dirs, fmt.Sprintf("%d[%s] %s", i+1, mark, d.Text))
	}
	ebitenutil.DebugPrintAt(screen, strings.Join(dirs, "  "), 8, y+34)
}

func drawEnd(screen *ebiten.Image, snap engine.Snapshot) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	vector.DrawFilledRect(screen, 0, 0, float32(w), float32(h), colShade, false)
	title := "GAME OVER"
	if snap.Win {
		title = "SHIFT COMPLETE"
	}
	ebitenutil.DebugPrintAt(screen, title, w/2-len(title)*3, h/2-30)
	if snap.Reason != "" {
		ebitenutil.DebugPrintAt(screen, snap.Reason, w/2-len(snap.Reason)*3, h/2-10)
	}
	score := fmt.Sprintf("Score: %d", snap.Score)
	ebitenutil.DebugPrintAt(screen, score, w/2-len(score)*3, h/2+10)
	ebitenutil.DebugPrintAt(screen, "R: new shift   Esc: quit", w/2-72, h/2+30)
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	a := g.snap.Arena
	return int(a.Width), hudHeight + int(a.Height) + footer
}

func entityColor(e engine.EntityView) color.Color {
	switch {
	case e.Stunned:
		return colStunned
	case e.State == entity.StateChasing, e.State == entity.StateBreaking, e.State == entity.StateAngry, e.State == entity.StateInspecting:
		return colHostile
	case e.State == entity.StateCalmed, e.State == entity.StateFound:
		return colCalm
	}
	return colIdle
}

// hexColor parses "#rrggbb". Anything else is drawn white.
func hexColor(s string) color.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%2x%2x%2x", &r, &g, &b); err != nil {
		return color.White
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
