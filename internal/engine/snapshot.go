package engine

import (
	"time"

	"github.com/nightcrew/lastshift/internal/domain/entity"
	"github.com/nightcrew/lastshift/internal/domain/geom"
	"github.com/nightcrew/lastshift/internal/domain/item"
)

// Flashlight beam shape.
const (
	BeamRadius = 150.0
	BeamWidth  = 1.0471975511965976 // 60 degrees
)

// Beam is where the flashlight points this frame.
type Beam struct {
	Origin geom.Vec `json:"origin"`
	Facing float64  `json:"facing"`
	On     bool     `json:"on"`
}

// PlayerView is the renderer's copy of the clerk.
type PlayerView struct {
	Pos          geom.Vec    `json:"pos"`
	Facing       float64     `json:"facing"`
	FacingName   string      `json:"facing_name"`
	Running      bool        `json:"running"`
	FlashlightOn bool        `json:"flashlight_on"`
	Battery      float64     `json:"battery"`
	Sanity       float64     `json:"sanity"`
	Inventory    []item.Type `json:"inventory"`
}

// EntityView is the renderer's copy of an entity.
type EntityView struct {
	ID      int          `json:"id"`
	Type    entity.Type  `json:"type"`
	State   entity.State `json:"state"`
	Pos     geom.Vec     `json:"pos"`
	Stunned bool         `json:"stunned"`
	Blinded bool         `json:"blinded"`
}

// ItemView is a loose item on the floor.
type ItemView struct {
	ID    int       `json:"id"`
	Type  item.Type `json:"type"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
	Pos   geom.Vec  `json:"pos"`
}

// ToolView is one slot of the belt as shown in the HUD.
type ToolView struct {
	Kind     ToolKind `json:"kind"`
	Name     string   `json:"name"`
	Equipped bool     `json:"equipped"`
	Current  bool     `json:"current"`
	Count    int      `json:"count,omitempty"`
}

// EffectView is a running timed effect.
type EffectView struct {
	Kind      EffectKind `json:"kind"`
	Label     string     `json:"label"`
	Remaining float64    `json:"remaining"` // seconds
}

// Snapshot is the read-only picture of a shift a renderer needs for one
// frame. It shares no memory with the session.
type Snapshot struct {
	SessionID     string       `json:"session_id"`
	Frame         int64        `json:"frame"`
	Night         int          `json:"night"`
	Clock         float64      `json:"clock"`
	ClockDisplay  string       `json:"clock_display"`
	Arena         geom.Arena   `json:"arena"`
	AmbientLight  float64      `json:"ambient_light"`
	Player        PlayerView   `json:"player"`
	Beam          Beam         `json:"beam"`
	Integrity     float64      `json:"integrity"`
	Entities      []EntityView `json:"entities"`
	Items         []ItemView   `json:"items"`
	Tools         []ToolView   `json:"tools"`
	Effects       []EffectView `json:"effects"`
	Directives    []Directive  `json:"directives"`
	Completed     int          `json:"completed_directives"`
	Messages      []string     `json:"messages"`
	Announcements []string     `json:"announcements"`
	GameOver      bool         `json:"game_over"`
	Win           bool         `json:"win"`
	Reason        string       `json:"reason,omitempty"`
	Score         int          `json:"score"`
}

// Snapshot copies out the current state for renderers.
func (s *Session) Snapshot() Snapshot {
	p := s.player
	snap := Snapshot{
		SessionID:    s.ID,
		Frame:        s.frame,
		Night:        s.state.Night,
		Clock:        s.clock.Time(),
		ClockDisplay: s.clock.Display(),
		Arena:        s.settings.Arena,
		AmbientLight: s.settings.AmbientLight,
		Player: PlayerView{
			Pos:          p.Pos,
			Facing:       p.Facing,
			FacingName:   p.FacingName,
			Running:      p.Running,
			FlashlightOn: p.FlashlightOn,
			Battery:      p.Battery.Value,
			Sanity:       p.Sanity.Value,
		},
		Beam:          s.beam,
		Integrity:     s.state.Integrity.Value,
		Directives:    s.directiveSystem.List(),
		Completed:     s.directiveSystem.Completed(),
		Messages:      s.messages.list(),
		Announcements: s.paSystem.Recent(),
		GameOver:      s.state.GameOver,
		Win:           s.state.Win,
		Reason:        s.state.Reason,
		Score:         s.state.Score,
	}

	for _, it := range p.Inventory {
		snap.Player.Inventory = append(snap.Player.Inventory, it.Type)
	}
	for _, e := range s.entities {
		if !e.Active {
			continue
		}
		snap.Entities = append(snap.Entities, EntityView{
			ID:      e.ID,
			Type:    e.Type,
			State:   e.State,
			Pos:     e.Pos,
			Stunned: e.Stunned(),
			Blinded: e.Blinded(),
		})
	}
	for _, it := range s.items {
		if it.Collected {
			continue
		}
		snap.Items = append(snap.Items, ItemView{ID: it.ID, Type: it.Type, Name: it.Name(), Color: it.Def.Color, Pos: it.Pos})
	}
	for i, t := range Roster {
		tv := ToolView{
			Kind:     t.Kind,
			Name:     t.Name,
			Equipped: s.toolSystem.Equipped(s, t),
			Current:  i == s.toolSystem.CurrentIndex(),
		}
		if t.Item != "" {
			tv.Count = p.Count(t.Item)
		}
		snap.Tools = append(snap.Tools, tv)
	}
	for _, fx := range s.effectSystem.Active() {
		snap.Effects = append(snap.Effects, EffectView{
			Kind:      fx.Kind,
			Label:     fx.Label,
			Remaining: float64(fx.Remaining) / float64(time.Second),
		})
	}
	return snap
}
