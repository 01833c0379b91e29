package game

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/cubesketch/internal/loop/config"
	"github.com/tomz197/cubesketch/internal/reveal"
)

// ErrNothingPending is returned by Wait when no timer is armed and no reveal
// is in flight.
var ErrNothingPending = errors.New("game: nothing pending")

// ReferenceRenderer draws the cube the player has to memorize.
type ReferenceRenderer interface {
	// RandomizePose picks a new orientation and field of view and renders once.
	RandomizePose()
	// Snapshot returns the most recent render as encoded image data.
	Snapshot() ([]byte, error)
}

// Surface is the drawing surface as seen by the flow.
type Surface interface {
	reveal.Target
	Clear()
	Undo() bool
	ExportImage() ([]byte, error)
}

// FlowOptions configures a Flow. Renderer, Surface and Duration are required.
type FlowOptions struct {
	Renderer   ReferenceRenderer
	Surface    Surface
	Duration   DurationSource
	Compositor *reveal.Compositor // Defaults to reveal.New()
	Clock      Clock              // Defaults to RealClock
	Logger     *log.Logger        // Defaults to log.Default()
}

// RevealOutcome is the result of the most recent completed reveal.
type RevealOutcome struct {
	Round  uint64
	Result reveal.Result
	Err    error
}

type pendingReveal struct {
	round   uint64
	pending *reveal.Pending
	cancel  context.CancelFunc
}

// Flow owns the game state and applies transition effects. All methods must be
// called from one goroutine; the only background work is the reveal decode,
// whose result is picked up by Poll or Wait.
type Flow struct {
	state      State
	renderer   ReferenceRenderer
	surface    Surface
	duration   DurationSource
	compositor *reveal.Compositor
	clock      Clock
	logger     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	timer      Timer
	timerRound uint64
	deadline   time.Time

	inflight    *pendingReveal
	last        RevealOutcome
	hasLast     bool
	version     uint64
	durationErr error
}

// NewFlow creates an Idle flow.
func NewFlow(opts FlowOptions) *Flow {
	f := &Flow{
		renderer:   opts.Renderer,
		surface:    opts.Surface,
		duration:   opts.Duration,
		compositor: opts.Compositor,
		clock:      opts.Clock,
		logger:     opts.Logger,
	}
	if f.duration == nil {
		f.duration = StaticDuration(config.DefaultDuration)
	}
	if f.compositor == nil {
		f.compositor = reveal.New()
	}
	if f.clock == nil {
		f.clock = RealClock{}
	}
	if f.logger == nil {
		f.logger = log.Default()
	}
	f.ctx, f.cancel = context.WithCancel(context.Background())
	return f
}

// State returns the current game state.
func (f *Flow) State() State {
	return f.state
}

// Version changes after every state transition or completed reveal.
func (f *Flow) Version() uint64 {
	return f.version
}

// Remaining returns the time left on the armed countdown, or zero.
func (f *Flow) Remaining() time.Duration {
	if f.timer == nil {
		return 0
	}
	return max(0, f.deadline.Sub(f.clock.Now()))
}

// DurationErr returns the parse error of the duration the current round was
// started with, or nil. A malformed duration runs a zero-length countdown.
func (f *Flow) DurationErr() error {
	return f.durationErr
}

// LastReveal returns the outcome of the most recent completed reveal.
func (f *Flow) LastReveal() (RevealOutcome, bool) {
	return f.last, f.hasLast
}

// Start begins the first round. It does nothing outside Idle.
func (f *Flow) Start() {
	f.beginRound(EventStart)
}

// Retry restarts the countdown with the current pose.
func (f *Flow) Retry() {
	f.beginRound(EventRetry)
}

// Next restarts the countdown with a new pose.
func (f *Flow) Next() {
	f.beginRound(EventNext)
}

// Undo reverts the last surface checkpoint. Valid in every phase except while
// a reveal is being composited.
func (f *Flow) Undo() {
	f.Dispatch(Event{Kind: EventUndo})
}

// Dispatch feeds ev through Transition and applies the effects in order.
func (f *Flow) Dispatch(ev Event) {
	next, effects := Transition(f.state, ev)
	if next != f.state {
		f.logger.Debug("transition", "event", ev.Kind, "from", f.state.Phase, "to", next.Phase, "round", next.Round)
		f.version++
	}
	f.state = next
	for _, eff := range effects {
		f.apply(eff)
	}
}

// Poll runs any continuation that is ready without blocking: a fired
// countdown timer or a finished reveal decode. It reports whether anything
// ran.
func (f *Flow) Poll() bool {
	ran := false
	if f.timer != nil {
		select {
		case <-f.timer.C():
			f.fire()
			ran = true
		default:
		}
	}
	if f.inflight != nil {
		select {
		case <-f.inflight.pending.Done():
			f.finishReveal()
			ran = true
		default:
		}
	}
	return ran
}

// Wait blocks until the next continuation runs or ctx is done.
func (f *Flow) Wait(ctx context.Context) error {
	var timerC <-chan time.Time
	if f.timer != nil {
		timerC = f.timer.C()
	}
	var doneC <-chan struct{}
	if f.inflight != nil {
		doneC = f.inflight.pending.Done()
	}
	if timerC == nil && doneC == nil {
		return ErrNothingPending
	}

	select {
	case <-timerC:
		f.fire()
	case <-doneC:
		f.finishReveal()
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Close stops the timer and abandons any reveal in flight.
func (f *Flow) Close() {
	f.stopTimer()
	f.dropReveal()
	f.cancel()
}

// beginRound reads the duration field and dispatches a round-starting event.
// The parse error is kept only when a round actually started.
func (f *Flow) beginRound(kind EventKind) {
	value := f.duration.Value()
	d, err := ParseDuration(value)

	round := f.state.Round
	f.Dispatch(Event{Kind: kind, Duration: d})
	if f.state.Round == round {
		return
	}
	f.durationErr = err
	if err != nil {
		f.logger.Warn("malformed countdown, revealing immediately", "value", value, "err", err)
	}
}

func (f *Flow) apply(eff Effect) {
	switch eff.Kind {
	case EffectRandomizePose:
		f.renderer.RandomizePose()
	case EffectClearSurface:
		f.surface.Clear()
	case EffectUndoSurface:
		if !f.surface.Undo() {
			f.logger.Debug("nothing to undo")
		}
		f.version++
	case EffectArmTimer:
		f.stopTimer()
		f.timer = f.clock.NewTimer(eff.Duration)
		f.timerRound = eff.Round
		f.deadline = f.clock.Now().Add(eff.Duration)
	case EffectCancelTimer:
		f.stopTimer()
	case EffectReveal:
		f.beginReveal(eff.Round)
	case EffectCancelReveal:
		f.dropReveal()
	}
}

func (f *Flow) stopTimer() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *Flow) fire() {
	round := f.timerRound
	f.timer = nil
	f.Dispatch(Event{Kind: EventTimerFired, Round: round})
}

// beginReveal captures both layers and starts decoding them in the background.
// A layer that cannot be captured is passed on empty and skipped by the
// compositor.
func (f *Flow) beginReveal(round uint64) {
	f.dropReveal()

	reference, err := f.renderer.Snapshot()
	if err != nil {
		f.logger.Error("reference snapshot failed", "round", round, "err", err)
		reference = nil
	}
	sketch, err := f.surface.ExportImage()
	if err != nil {
		f.logger.Error("sketch export failed", "round", round, "err", err)
		sketch = nil
	}

	ctx, cancel := context.WithTimeout(f.ctx, config.RevealDecodeTimeout)
	f.inflight = &pendingReveal{
		round:   round,
		pending: f.compositor.Begin(ctx, reference, sketch),
		cancel:  cancel,
	}
}

// finishReveal composites a decoded reveal into the surface.
func (f *Flow) finishReveal() {
	pr := f.inflight
	f.inflight = nil
	defer pr.cancel()

	outcome := RevealOutcome{Round: pr.round}
	layers, err := pr.pending.Result()
	if err != nil {
		outcome.Err = err
	} else {
		outcome.Result, outcome.Err = f.compositor.Composite(layers, f.surface)
	}

	switch {
	case outcome.Err != nil:
		f.logger.Error("reveal failed", "round", pr.round, "err", outcome.Err)
	case outcome.Result.Err() != nil:
		f.logger.Warn("reveal layer skipped", "round", pr.round, "err", outcome.Result.Err())
	}

	f.last = outcome
	f.hasLast = true
	f.version++
	f.Dispatch(Event{Kind: EventRevealDone, Round: pr.round})
}

func (f *Flow) dropReveal() {
	if f.inflight != nil {
		f.inflight.cancel()
		f.inflight = nil
	}
}
