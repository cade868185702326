package engine

import (
	"fmt"
	"strings"

	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// directivePool is head office's list of nightly objectives.
var directivePool = []string{
	"Stock all end-caps with Sparkle-Cola",
	"Perform a floor buffer demonstration in Appliances by 3 AM",
	"Maximize customer satisfaction ratings",
	"Clean all spills in Aisle 7",
	"Restock freezer section",
	"Complete inventory count in Storage",
	"Test all emergency lighting",
	"File nightly report in Manager's Office",
}

// Directive is one corporate objective. Completion is self-reported.
type Directive struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// DirectiveSystem tracks tonight's objectives.
type DirectiveSystem struct {
	logger    *logger.Logger
	list      []Directive
	completed int
}

// NewDirectiveSystem creates an empty objective list.
func NewDirectiveSystem(log *logger.Logger) *DirectiveSystem {
	return &DirectiveSystem{logger: log}
}

// Draw picks n distinct objectives for the shift.
func (ds *DirectiveSystem) Draw(s *Session, n int) {
	if n > len(directivePool) {
		n = len(directivePool)
	}
	ds.list = ds.list[:0]
	for _, i := range s.rng.Perm(len(directivePool))[:n] {
		ds.list = append(ds.list, Directive{Text: directivePool[i]})
	}
}

// Complete marks objective i done. It fails for a bad index or an objective
// that is already done.
func (ds *DirectiveSystem) Complete(s *Session, i int) (Directive, bool) {
	if i < 0 || i >= len(ds.list) || ds.list[i].Completed {
		return Directive{}, false
	}
	ds.list[i].Completed = true
	ds.completed++
	ds.record(s, ds.list[i])
	return ds.list[i], true
}

// Award records an objective met through play rather than a checklist.
func (ds *DirectiveSystem) Award(s *Session, text string) {
	d := Directive{Text: text, Completed: true}
	ds.list = append(ds.list, d)
	ds.completed++
	ds.record(s, d)
}

func (ds *DirectiveSystem) record(s *Session, d Directive) {
	s.emit(events.EventTypeDirectiveCompleted, events.ActorPlayer, "", map[string]interface{}{
		"text":      d.Text,
		"completed": ds.completed,
	})
	ds.logger.Event("DIRECTIVE", events.ActorPlayer, d.Text)
}

// Completed is the number of objectives done.
func (ds *DirectiveSystem) Completed() int { return ds.completed }

// List returns a copy of the objectives.
func (ds *DirectiveSystem) List() []Directive {
	out := make([]Directive, len(ds.list))
	copy(out, ds.list)
	return out
}

// Summary renders the objective board.
func (ds *DirectiveSystem) Summary() string {
	if len(ds.list) == 0 {
		return "No directives tonight."
	}
	var b strings.Builder
	b.WriteString("DIRECTIVES:")
	for i, d := range ds.list {
		mark := " "
		if d.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, " [%s] %d. %s", mark, i+1, d.Text)
	}
	return b.String()
}
