package strat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Strategy is the decision layer for one match. It owns the world model
// and the match clock exclusively; everything it does to the outside world
// goes through the MotionController collaborator. One instance serves one
// match at a time and is driven by a single goroutine.
type Strategy struct {
	cfg    Config
	motion MotionController
	base   *zap.Logger
	tel    *Telemetry

	// seams for tests; real runs use time.Now and time.Sleep
	now   func() time.Time
	sleep func(time.Duration)

	log   *zap.Logger
	clock *MatchClock
	world *World

	color    Color
	phase    Phase
	subPhase int
	avoiding bool
}

// NewStrategy wires a strategy against its collaborators. logger may be
// nil; telemetry may be nil.
func NewStrategy(cfg Config, motion MotionController, logger *zap.Logger, tel *Telemetry) *Strategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategy{
		cfg:    cfg,
		motion: motion,
		base:   logger,
		log:    logger,
		tel:    tel,
		now:    time.Now,
		sleep:  time.Sleep,
		phase:  PhaseInit,
	}
}

// Phase returns the current top-level state.
func (s *Strategy) Phase() Phase { return s.phase }

// Snapshot is a point-in-time copy of the strategy state for diagnostics.
type Snapshot struct {
	Color    Color
	Phase    Phase
	SubPhase int
	Avoiding bool
	Elapsed  int
	Glasses  [GlassCount]Glass
	Gifts    [GiftCount]Gift
}

// Snapshot copies the current state. It is advisory: callers outside the
// control loop may observe a slightly stale view.
func (s *Strategy) Snapshot() Snapshot {
	snap := Snapshot{
		Color:    s.color,
		Phase:    s.phase,
		SubPhase: s.subPhase,
		Avoiding: s.avoiding,
	}
	if s.clock != nil {
		snap.Elapsed = s.clock.Elapsed()
	}
	if s.world != nil {
		snap.Glasses = s.world.Glasses()
		snap.Gifts = s.world.Gifts()
	}
	return snap
}

// Begin starts a match for the given color and blocks until it finishes.
// It seeds the odometry, runs the goal loop until the clock expires or the
// catalogue is exhausted, then issues the single retreat command. The
// returned error is either a cancelled context or a scheduler bug
// (ErrInvalidGoal); ordinary trajectory failures are policy, not errors.
func (s *Strategy) Begin(ctx context.Context, color Color) error {
	if s.phase == PhaseRunning || s.phase == PhaseFinishing {
		return fmt.Errorf("match already in progress (phase %s)", s.phase)
	}

	s.color = color
	s.world = NewWorld(color)
	s.phase = PhaseInit
	s.subPhase = 0
	s.avoiding = false
	s.log = s.base.With(zap.String("match_id", uuid.NewString()), zap.Stringer("color", color))

	s.autoPosition()
	s.clock = NewMatchClock(s.cfg.Match.Duration, s.now)
	s.clock.Start()
	s.phase = PhaseRunning
	s.log.Info("match started",
		zap.Duration("duration", s.cfg.Match.Duration),
		zap.Bool("take_first_glass_left", s.cfg.Policy.TakeFirstGlassLeft))

	err := s.run(ctx)
	s.finish()
	return err
}

// Calibrate re-seeds the odometry with the start pose for the given color
// without starting the state machine.
func (s *Strategy) Calibrate(color Color) {
	s.color = color
	s.autoPosition()
	s.log.Info("position calibrated", zap.Stringer("color", color))
}

// DoGift runs a single manual gift attempt outside a match, for bench
// testing and the debug console.
func (s *Strategy) DoGift(n int) error {
	if n < 0 || n >= GiftCount {
		return fmt.Errorf("gift %d out of range", n)
	}
	if s.world == nil {
		s.world = NewWorld(s.color)
	}
	if s.clock == nil {
		s.clock = NewMatchClock(s.cfg.Match.Duration, s.now)
		s.clock.Start()
	}

	s.motion.TurnTo(MirrorAngle(0, s.color))
	if out := s.waitTrajectoryEnd(FlagsStandard); !out.Succeeded() {
		return fmt.Errorf("turn before gift %d ended %s", n, out)
	}

	out, _, err := s.pursue(s.world.giftGoal(n))
	if err != nil {
		return err
	}
	if !out.Succeeded() {
		return fmt.Errorf("gift %d attempt ended %s", n, out)
	}
	return nil
}

// run is the main goal loop. It returns when the clock expires, the
// catalogue has nothing left, the context is cancelled, or a scheduler bug
// surfaces.
func (s *Strategy) run(ctx context.Context) error {
	var exclude *Goal
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.clock.Expired() {
			s.log.Info("match timer expired")
			return nil
		}

		goal, ok := s.world.SelectNext(s.position(), s.clock.Elapsed(), s.cfg.Policy, exclude)
		exclude = nil
		if !ok {
			s.log.Info("no goal available")
			return nil
		}

		out, skip, err := s.pursue(goal)
		if err != nil {
			return err
		}
		if out.Has(OutcomeTimerExpired) {
			s.log.Info("match timer expired during trajectory")
			return nil
		}
		if skip {
			g := goal
			exclude = &g
		}
	}
}

// pursue drives one goal attempt end to end, including the obstacle retry
// rule: avoid once, re-attempt once, then skip the goal. The returned bool
// asks the caller to exclude the goal from the immediate next selection.
func (s *Strategy) pursue(goal Goal) (Outcome, bool, error) {
	s.log.Info("pursuing goal",
		zap.Stringer("kind", goal.Kind),
		zap.Int("index", goal.Index),
		zap.Int("elapsed", s.clock.Elapsed()))

	// Glass approaches may cut corners; gifts need the precise line along
	// the border wall.
	mask := FlagsStandard
	if goal.Kind == GoalGlass {
		mask = FlagsNear
	}
	if goal.Kind == GoalGift {
		s.giftArm(false)
		defer s.giftArm(true)
	}

	s.subPhase = 0
	out := s.attempt(goal, mask)
	if out.Has(OutcomeTimerExpired) {
		return out, false, nil
	}

	// Obstacle beats blocking when both bits are set.
	if out.Has(OutcomeObstacle) {
		recovered := s.attemptAvoidance()
		if s.clock.Expired() {
			return OutcomeTimerExpired, false, nil
		}
		if recovered {
			s.subPhase = 1
			out = s.attempt(goal, mask)
			if out.Has(OutcomeTimerExpired) {
				return out, false, nil
			}
		}
		if !out.Succeeded() {
			// Second consecutive failure on the same goal: give it up and
			// keep it out of the very next selection.
			err := s.markGoal(goal, false)
			return out, true, err
		}
	}

	if out.Succeeded() {
		return out, false, s.markGoal(goal, true)
	}
	return out, false, s.markGoal(goal, false)
}

// attempt issues the trajectory for goal and classifies its end.
func (s *Strategy) attempt(goal Goal, mask Outcome) Outcome {
	s.issueGoto(goal.Target)
	out := s.waitTrajectoryEnd(mask)
	s.tel.RecordTrajectory(out)
	s.log.Debug("trajectory ended",
		zap.Stringer("outcome", out),
		zap.Int("elapsed", s.clock.Elapsed()))
	return out
}

// markGoal records the attempt result in the world model. A stale goal is
// a scheduler bug and is surfaced, never swallowed.
func (s *Strategy) markGoal(goal Goal, success bool) error {
	s.tel.RecordGoal(goal, success)
	if err := s.world.MarkResult(goal, success, s.clock.Elapsed()); err != nil {
		s.log.Error("stale goal reference",
			zap.Stringer("kind", goal.Kind),
			zap.Int("index", goal.Index),
			zap.Error(err))
		return fmt.Errorf("mark %s %d: %w", goal.Kind, goal.Index, err)
	}
	if success {
		s.log.Info("goal done", zap.Stringer("kind", goal.Kind), zap.Int("index", goal.Index))
	} else {
		s.log.Warn("goal failed", zap.Stringer("kind", goal.Kind), zap.Int("index", goal.Index))
	}
	return nil
}

// waitTrajectoryEnd blocks until the motion board reports a condition in
// accept, or the match clock expires, whichever comes first. The clock
// check has priority over the accepted mask, so expiry is observed within
// one poll interval even while a trajectory is outstanding.
func (s *Strategy) waitTrajectoryEnd(accept Outcome) Outcome {
	return s.wait(accept, time.Time{}, true)
}

// wait is the cooperative poll loop shared by all waits. A zero deadline
// means unbounded; clockBound selects match-timer preemption. Hitting the
// deadline returns 0. The result is always a non-empty subset of accept,
// OutcomeTimerExpired, or 0 on deadline.
func (s *Strategy) wait(accept Outcome, deadline time.Time, clockBound bool) Outcome {
	for {
		if clockBound && s.clock.Expired() {
			return OutcomeTimerExpired
		}
		if !deadline.IsZero() && s.now().After(deadline) {
			return 0
		}
		if hit := s.motion.Status() & accept; hit != 0 {
			return hit
		}
		s.sleep(s.cfg.Match.PollInterval)
	}
}

// finish issues the single retreat command and parks the machine in DONE.
// The retreat wait is bounded by wall time, not the match clock, which has
// usually expired by now.
func (s *Strategy) finish() {
	if s.phase == PhaseDone {
		return
	}
	s.phase = PhaseFinishing

	retreat := Point{X: s.cfg.Match.RetreatX, Y: s.cfg.Match.RetreatY}
	s.log.Info("retreating", zap.Float64("x", retreat.X), zap.Float64("y", retreat.Y))
	s.issueGoto(retreat)
	out := s.wait(
		OutcomeSuccess|OutcomeNearTarget|OutcomeBlocking|OutcomeCommandError,
		s.now().Add(s.cfg.Policy.RetreatWindow),
		false,
	)
	s.tel.RecordTrajectory(out)

	s.phase = PhaseDone
	s.log.Info("match done",
		zap.Int("glasses_taken", GlassCount-s.world.GlassesRemaining()),
		zap.Int("gifts_done", GiftCount-s.world.GiftsRemaining()),
		zap.Int("elapsed", s.clock.Elapsed()))
}

// issueGoto mirrors a canonical target once and sends it.
func (s *Strategy) issueGoto(target Point) {
	s.motion.GotoXY(MirrorPoint(target, s.color))
}

// autoPosition seeds the odometry with the calibrated start pose against
// the border, mirrored into the actual frame.
func (s *Strategy) autoPosition() {
	start := Point{X: s.cfg.Match.StartX, Y: s.cfg.Match.StartY}
	s.motion.SetPosition(MirrorPoint(start, s.color), MirrorAngle(s.cfg.Match.StartHeading, s.color))
}

// position maps the odometry position back into the canonical frame.
// MirrorY is its own inverse for blue, so one application undoes the
// command-time mirror.
func (s *Strategy) position() Point {
	pos, _ := s.motion.Position()
	return Point{X: pos.X, Y: MirrorY(pos.Y, s.color)}
}

// giftArm drives the border-side arm: the long arm faces the border when
// playing red, the short one when playing blue.
func (s *Strategy) giftArm(up bool) {
	if s.color == ColorRed {
		s.motion.SetLongArm(up)
	} else {
		s.motion.SetShortArm(up)
	}
}
