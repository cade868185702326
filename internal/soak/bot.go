// Package soak runs whole shifts headless with a scripted clerk and checks
// that the simulation never leaves its invariants.
package soak

import (
	"math"

	"github.com/nightcrew/lastshift/internal/domain/entity"
	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/engine"
)

// Policy decides what the clerk does for one frame.
type Policy interface {
	Decide(snap engine.Snapshot) (player.ActionState, []engine.Command)
}

// Idle never moves and never acts.
type Idle struct{}

// Decide implements Policy.
func (Idle) Decide(engine.Snapshot) (player.ActionState, []engine.Command) {
	return player.ActionState{}, nil
}

// Greedy is a simple survival script: it walks to the nearest item, runs
// from chasers, honks when cornered and patches the store when it sags.
type Greedy struct {
	// DangerRadius is how close a hostile gets before the clerk flees.
	DangerRadius float64
	frames       int
}

// NewGreedy returns the default script.
func NewGreedy() *Greedy {
	return &Greedy{DangerRadius: 120}
}

// Decide implements Policy.
func (g *Greedy) Decide(snap engine.Snapshot) (player.ActionState, []engine.Command) {
	g.frames++
	var cmds []engine.Command
	me := snap.Player.Pos

	threat, threatDist := nearestThreat(snap)
	// One belt tool per frame; cycling is planned from this snapshot.
	switch {
	case threat != nil && threatDist < g.DangerRadius && toolCount(snap, engine.ToolAirhorn) > 0:
		cmds = append(cmds, useTool(snap, engine.ToolAirhorn)...)
	case snap.Integrity < 60 && toolCount(snap, engine.ToolTape) > 0:
		cmds = append(cmds, useTool(snap, engine.ToolTape)...)
	}
	if snap.Player.Sanity < 50 && hasItem(snap, "jerky") {
		cmds = append(cmds, engine.Command{Kind: engine.CmdEatSnack})
	}
	if !snap.Player.FlashlightOn && snap.Player.Battery > 10 {
		cmds = append(cmds, engine.Command{Kind: engine.CmdToggleFlashlight})
	}
	if snap.Integrity < 95 && g.frames%150 == 0 {
		cmds = append(cmds, engine.Command{Kind: engine.CmdBarricade})
	}
	if g.frames%600 == 0 {
		for i, d := range snap.Directives {
			if !d.Completed {
				cmds = append(cmds, engine.Command{Kind: engine.CmdCompleteDirective, Index: i})
				break
			}
		}
	}

	var a player.ActionState
	switch {
	case threat != nil && threatDist < g.DangerRadius:
		a = steer(me, me.Add(me.Sub(threat.Pos)))
		a.Run = true
	default:
		if target, d, ok := nearestItem(snap); ok {
			a = steer(me, target)
			a.Pickup = d < 40
		}
	}
	return a, cmds
}

func nearestThreat(snap engine.Snapshot) (*engine.EntityView, float64) {
	var (
		best *engine.EntityView
		dist = math.Inf(1)
	)
	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Stunned || !(e.State == entity.StateChasing || e.Type == entity.TypeAuditor) {
			continue
		}
		if d := geom.Distance(snap.Player.Pos, e.Pos); d < dist {
			best, dist = e, d
		}
	}
	return best, dist
}

func nearestItem(snap engine.Snapshot) (geom.Vec, float64, bool) {
	dist := math.Inf(1)
	var at geom.Vec
	for _, it := range snap.Items {
		if d := geom.Distance(snap.Player.Pos, it.Pos); d < dist {
			at, dist = it.Pos, d
		}
	}
	return at, dist, !math.IsInf(dist, 1)
}

// steer turns a target into held directions, with a small dead zone.
func steer(from, to geom.Vec) player.ActionState {
	const dead = 4
	d := to.Sub(from)
	return player.ActionState{
		Left:  d.X < -dead,
		Right: d.X > dead,
		Up:    d.Y < -dead,
		Down:  d.Y > dead,
	}
}

func toolCount(snap engine.Snapshot, kind engine.ToolKind) int {
	for _, t := range snap.Tools {
		if t.Kind == kind {
			if !t.Equipped {
				return 0
			}
			return int(math.Max(1, float64(t.Count)))
		}
	}
	return 0
}

func hasItem(snap engine.Snapshot, t string) bool {
	for _, it := range snap.Player.Inventory {
		if string(it) == t {
			return true
		}
	}
	return false
}

// useTool cycles the belt to kind and fires it.
func useTool(snap engine.Snapshot, kind engine.ToolKind) []engine.Command {
	cur, want := -1, -1
	for i, t := range snap.Tools {
		if t.Current {
			cur = i
		}
		if t.Kind == kind {
			want = i
		}
	}
	if cur < 0 || want < 0 {
		return nil
	}
	n := len(snap.Tools)
	cmds := make([]engine.Command, 0, n)
	for i := 0; i < (want-cur+n)%n; i++ {
		cmds = append(cmds, engine.Command{Kind: engine.CmdCycleTool})
	}
	return append(cmds, engine.Command{Kind: engine.CmdUseTool})
}
