package push

import (
	"fmt"
	"time"
)

// Phase is the coarse connection state shown to the user.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseOpen
	PhaseClosed
)

var phaseNames = [...]string{"connecting", "open", "closed"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Phases lists every phase, for exporting gauges.
func Phases() []string { return phaseNames[:] }

// State is the full machine state. Lost is set once the retry ceiling is hit.
type State struct {
	Phase   Phase
	Retries int
	Lost    bool
}

// Event is an input to the machine.
type Event int

const (
	// EventOpened fires when the socket handshake completes.
	EventOpened Event = iota
	// EventUnexpectedClose fires when the socket drops or never opens.
	EventUnexpectedClose
	// EventTeardown fires when the owner shuts the channel down.
	EventTeardown
)

// EffectKind tells the runner what to do after a transition.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectReconnect
	EffectReportLost
	EffectStop
)

// Effect is the side effect requested by a transition.
type Effect struct {
	Kind  EffectKind
	Delay time.Duration
}

// Policy bounds the reconnect loop.
type Policy struct {
	// MaxRetries counts consecutive unexpected closes, failed dials
	// included. The close that reaches it is terminal, so 3 means three
	// dials and two reconnects.
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultPolicy is three attempts with a one second step.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Second}
}

// Backoff returns the delay before the given reconnect attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * p.BaseDelay
}

// Transition is the pure transition function of the push channel.
// Closed is terminal: once there, every event is absorbed.
func Transition(s State, e Event, p Policy) (State, Effect) {
	if s.Phase == PhaseClosed {
		return s, Effect{Kind: EffectNone}
	}

	switch e {
	case EventOpened:
		if s.Phase == PhaseOpen {
			return s, Effect{Kind: EffectNone}
		}
		return State{Phase: PhaseOpen}, Effect{Kind: EffectNone}

	case EventUnexpectedClose:
		retries := s.Retries + 1
		if retries >= p.MaxRetries {
			return State{Phase: PhaseClosed, Retries: retries, Lost: true}, Effect{Kind: EffectReportLost}
		}
		return State{Phase: PhaseConnecting, Retries: retries}, Effect{Kind: EffectReconnect, Delay: p.Backoff(retries)}

	case EventTeardown:
		return State{Phase: PhaseClosed, Retries: s.Retries}, Effect{Kind: EffectStop}
	}

	return s, Effect{Kind: EffectNone}
}
