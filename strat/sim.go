package strat

import (
	"math"
	"sync"
	"time"
)

// Sim tuning.
const (
	simSpeed      = 900.0 // straight-line speed, mm/s
	simTurnTime   = 300 * time.Millisecond
	simSpeedAlpha = 0.6 // smoothing factor for the reported speed
)

// SimCommand records one command issued to the simulator.
type SimCommand struct {
	Op     string // goto, turn, circle, pos, long_arm, short_arm
	Target Point
	Angle  float64
	Up     bool
}

// Sim is an in-process motion collaborator for tests and dry runs. It
// completes trajectories on simulated wall time and can be scripted to end
// them with arbitrary terminal flags. All methods are safe for concurrent
// use.
type Sim struct {
	mu sync.Mutex

	now func() time.Time

	pos     Point
	heading float64

	active   bool
	start    time.Time
	duration time.Duration
	target   Point
	moves    bool
	turnTo   *float64
	last     Outcome
	pending  Outcome

	queue []Outcome

	speed float64

	longArmUp  bool
	shortArmUp bool

	commands []SimCommand
}

var _ MotionController = (*Sim)(nil)

// NewSim builds a simulator. now may be nil, in which case time.Now is
// used; tests pass a fake clock shared with the strategy.
func NewSim(now func() time.Time) *Sim {
	if now == nil {
		now = time.Now
	}
	return &Sim{now: now, longArmUp: true, shortArmUp: true}
}

// QueueOutcome scripts the terminal flags of upcoming trajectories, in
// order. With an empty queue every trajectory ends in SUCCESS.
func (s *Sim) QueueOutcome(out Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, out)
}

// Commands returns a copy of every command issued so far.
func (s *Sim) Commands() []SimCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SimCommand, len(s.commands))
	copy(out, s.commands)
	return out
}

// CountOp counts issued commands with the given op.
func (s *Sim) CountOp(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (s *Sim) begin(d time.Duration, target Point, moves bool) {
	s.active = true
	s.start = s.now()
	s.duration = d
	s.target = target
	s.moves = moves
	s.turnTo = nil
	s.last = 0
	s.pending = OutcomeSuccess
	if len(s.queue) > 0 {
		s.pending = s.queue[0]
		s.queue = s.queue[1:]
	}
}

// GotoXY starts a straight-line trajectory to target.
func (s *Sim) GotoXY(target Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settle()
	s.commands = append(s.commands, SimCommand{Op: "goto", Target: target})
	d := time.Duration(s.pos.Dist(target) / simSpeed * float64(time.Second))
	s.begin(d, target, true)
}

// TurnTo starts an in-place rotation to angle.
func (s *Sim) TurnTo(angle float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settle()
	s.commands = append(s.commands, SimCommand{Op: "turn", Angle: angle})
	s.begin(simTurnTime, s.pos, false)
	a := angle
	s.turnTo = &a
}

// CircleArc starts an arc of the given section around center.
func (s *Sim) CircleArc(center Point, section float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settle()
	s.commands = append(s.commands, SimCommand{Op: "circle", Target: center, Angle: section})

	radius := s.pos.Dist(center)
	d := time.Duration(radius * math.Abs(section) / simSpeed * float64(time.Second))
	// Endpoint: current position rotated around the arc center.
	sin, cos := math.Sincos(section)
	dx, dy := s.pos.X-center.X, s.pos.Y-center.Y
	end := Point{X: center.X + dx*cos - dy*sin, Y: center.Y + dx*sin + dy*cos}
	s.begin(d, end, true)
}

// Status reports the terminal flags currently true. While a trajectory is
// in flight it returns 0; once it ends the terminal flags stay set until
// the next command.
func (s *Sim) Status() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settle()
	if s.active {
		return 0
	}
	return s.last
}

// Position returns the current pose.
func (s *Sim) Position() (Point, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settle()
	return s.pos, s.heading
}

// InstantSpeed returns the smoothed translation speed and zero rotation.
func (s *Sim) InstantSpeed() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settle()
	return s.speed, 0
}

// SetPosition seeds the odometry.
func (s *Sim) SetPosition(p Point, heading float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, SimCommand{Op: "pos", Target: p, Angle: heading})
	s.pos = p
	s.heading = heading
	s.active = false
	s.last = 0
}

// SetLongArm drives the long gift arm.
func (s *Sim) SetLongArm(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, SimCommand{Op: "long_arm", Up: up})
	s.longArmUp = up
}

// SetShortArm drives the short gift arm.
func (s *Sim) SetShortArm(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, SimCommand{Op: "short_arm", Up: up})
	s.shortArmUp = up
}

// settle advances the simulated trajectory to the current time. Callers
// hold the mutex.
func (s *Sim) settle() {
	if !s.active {
		s.speed = simSpeedAlpha * s.speed
		return
	}
	if s.now().Sub(s.start) < s.duration {
		s.speed = simSpeedAlpha*s.speed + (1-simSpeedAlpha)*simSpeed
		return
	}

	s.active = false
	s.last = s.pending
	s.speed = 0
	if s.turnTo != nil && s.pending&(OutcomeSuccess|OutcomeNearTarget) != 0 {
		s.heading = *s.turnTo
	}
	if s.moves {
		if s.pending&(OutcomeSuccess|OutcomeNearTarget) != 0 {
			s.pos = s.target
		} else {
			// A stalled or rejected trajectory stops short of the target.
			s.pos = Point{X: (s.pos.X + s.target.X) / 2, Y: (s.pos.Y + s.target.Y) / 2}
		}
	}
}
