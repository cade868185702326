package engine

// Messenger receives the user-facing text a shift produces. Delivery is
// fire-and-forget: the session never waits on it.
type Messenger interface {
	ShowMessage(text string)
	Announce(text string)
}

// NopMessenger drops everything.
type NopMessenger struct{}

func (NopMessenger) ShowMessage(string) {}
func (NopMessenger) Announce(string)    {}

// MessengerFuncs adapts two plain functions. Either may be nil.
type MessengerFuncs struct {
	OnMessage      func(text string)
	OnAnnouncement func(text string)
}

func (m MessengerFuncs) ShowMessage(text string) {
	if m.OnMessage != nil {
		m.OnMessage(text)
	}
}

func (m MessengerFuncs) Announce(text string) {
	if m.OnAnnouncement != nil {
		m.OnAnnouncement(text)
	}
}

// recentLines keeps the last few lines for snapshots.
type recentLines struct {
	limit int
	lines []string
}

func (r *recentLines) push(text string) {
	r.lines = append(r.lines, text)
	if r.limit > 0 && len(r.lines) > r.limit {
		r.lines = r.lines[len(r.lines)-r.limit:]
	}
}

func (r *recentLines) list() []string {
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

func (r *recentLines) last() string {
	if len(r.lines) == 0 {
		return ""
	}
	return r.lines[len(r.lines)-1]
}
