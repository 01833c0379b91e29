// Package game holds the round state machine: a pure transition function over
// (State, Event) and a Flow that applies the resulting effects to the
// reference renderer, the drawing surface, the countdown timer and the reveal
// compositor.
package game

import "time"

// Phase is the current stage of a round.
type Phase int

const (
	PhaseIdle      Phase = iota // Cube visible, waiting for start
	PhaseCountdown              // Cube hidden, drawing enabled, timer armed
	PhaseRevealed               // Timer fired, comparison shown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountdown:
		return "countdown"
	case PhaseRevealed:
		return "revealed"
	}
	return "unknown"
}

// Controls is the set of round actions currently offered to the player.
type Controls int

const (
	ControlsStart     Controls = iota // Start button
	ControlsNone                      // Nothing while the countdown runs
	ControlsRetryNext                 // Retry and next buttons
)

// State is the whole game state. The zero value is a fresh Idle game.
type State struct {
	Phase     Phase
	Controls  Controls
	Round     uint64        // Bumped each time a countdown is armed
	Duration  time.Duration // Length of the current countdown
	Revealing bool          // Reveal decode in flight for Round
	Rerolls   int           // Number of pose randomizations
}

// EventKind identifies an input to Transition.
type EventKind int

const (
	EventStart EventKind = iota
	EventRetry
	EventNext
	EventUndo
	EventTimerFired
	EventRevealDone
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventRetry:
		return "retry"
	case EventNext:
		return "next"
	case EventUndo:
		return "undo"
	case EventTimerFired:
		return "timer-fired"
	case EventRevealDone:
		return "reveal-done"
	}
	return "unknown"
}

// Event is an input to the state machine.
type Event struct {
	Kind     EventKind
	Round    uint64        // TimerFired, RevealDone: the round the event belongs to
	Duration time.Duration // Start, Retry, Next: countdown length to arm
}

// EffectKind identifies a side effect requested by Transition.
type EffectKind int

const (
	EffectRandomizePose EffectKind = iota
	EffectClearSurface
	EffectUndoSurface
	EffectArmTimer
	EffectCancelTimer
	EffectReveal
	EffectCancelReveal
)

func (k EffectKind) String() string {
	switch k {
	case EffectRandomizePose:
		return "randomize-pose"
	case EffectClearSurface:
		return "clear-surface"
	case EffectUndoSurface:
		return "undo-surface"
	case EffectArmTimer:
		return "arm-timer"
	case EffectCancelTimer:
		return "cancel-timer"
	case EffectReveal:
		return "reveal"
	case EffectCancelReveal:
		return "cancel-reveal"
	}
	return "unknown"
}

// Effect is a side effect to be applied, in order, by the caller.
type Effect struct {
	Kind     EffectKind
	Round    uint64        // ArmTimer, Reveal
	Duration time.Duration // ArmTimer
}

// Transition returns the state following ev and the effects that must be
// applied to get there. It never mutates s.
func Transition(s State, ev Event) (State, []Effect) {
	switch ev.Kind {
	case EventStart:
		if s.Phase != PhaseIdle {
			return s, nil
		}
		return beginRound(s, ev.Duration, true)

	case EventRetry:
		return beginRound(s, ev.Duration, false)

	case EventNext:
		return beginRound(s, ev.Duration, true)

	case EventUndo:
		// The pending composite would overwrite the restored pixels.
		if s.Revealing {
			return s, nil
		}
		return s, []Effect{{Kind: EffectUndoSurface}}

	case EventTimerFired:
		// Timers of superseded rounds are stale.
		if s.Phase != PhaseCountdown || ev.Round != s.Round {
			return s, nil
		}
		s.Phase = PhaseRevealed
		s.Controls = ControlsRetryNext
		s.Revealing = true
		return s, []Effect{{Kind: EffectReveal, Round: s.Round}}

	case EventRevealDone:
		if ev.Round != s.Round {
			return s, nil
		}
		s.Revealing = false
		return s, nil
	}
	return s, nil
}

// beginRound arms a fresh countdown, superseding whatever round was running.
func beginRound(s State, d time.Duration, reroll bool) (State, []Effect) {
	var effects []Effect
	if s.Phase == PhaseCountdown {
		effects = append(effects, Effect{Kind: EffectCancelTimer})
	}
	if s.Revealing {
		effects = append(effects, Effect{Kind: EffectCancelReveal})
	}
	if reroll {
		effects = append(effects, Effect{Kind: EffectRandomizePose})
		s.Rerolls++
	}

	s.Round++
	s.Phase = PhaseCountdown
	s.Controls = ControlsNone
	s.Duration = max(0, d)
	s.Revealing = false

	effects = append(effects,
		Effect{Kind: EffectClearSurface},
		Effect{Kind: EffectArmTimer, Round: s.Round, Duration: s.Duration},
	)
	return s, effects
}
