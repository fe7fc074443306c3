package gallery

// SentinelState is the position of a Sentinel in its fire/re-arm cycle.
type SentinelState int

const (
	SentinelIdle SentinelState = iota
	SentinelTriggered
	SentinelAwaitingRearm
)

func (s SentinelState) String() string {
	switch s {
	case SentinelTriggered:
		return "triggered"
	case SentinelAwaitingRearm:
		return "awaiting-rearm"
	default:
		return "idle"
	}
}

// Sentinel turns scroll observations into one signal per arrival at the
// bottom of the document. Holding the bottom does not fire again; the
// sentinel re-arms once an observation lands away from the bottom.
//
// Margin widens the bottom zone by that many rows. The zero value is ready
// to use.
type Sentinel struct {
	Margin int
	state  SentinelState
}

// Observe records a scroll position and reports whether the caller should
// request the next page.
func (s *Sentinel) Observe(scrollY, viewportHeight, documentHeight int) bool {
	if scrollY+viewportHeight < documentHeight-s.Margin {
		s.state = SentinelIdle
		return false
	}
	if s.state == SentinelIdle {
		s.state = SentinelTriggered
		return true
	}
	s.state = SentinelAwaitingRearm
	return false
}

// State returns the current state.
func (s *Sentinel) State() SentinelState {
	return s.state
}

// Reset re-arms the sentinel, for example after the result set changed.
func (s *Sentinel) Reset() {
	s.state = SentinelIdle
}
