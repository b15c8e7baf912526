// Package strat implements the autonomous decision layer of the robot for
// one timed match: the strategy state machine, the goal catalogue, the
// color-mirrored coordinate transform, and the trajectory-completion
// protocol against the motion-control board.
package strat

import (
	"fmt"
	"math"
	"strings"
)

// Color selects the starting side for the match. It is set once at match
// start and never changes while the match runs.
type Color int

const (
	ColorRed Color = iota
	ColorBlue
)

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "RED"
	case ColorBlue:
		return "BLUE"
	default:
		return fmt.Sprintf("Color(%d)", int(c))
	}
}

// ParseColor converts a color name into a Color.
func ParseColor(value string) (Color, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "RED":
		return ColorRed, nil
	case "BLUE":
		return ColorBlue, nil
	default:
		return ColorRed, fmt.Errorf("unknown color %q", value)
	}
}

// Point is a position on the table in millimeters, canonical (red-side)
// frame unless stated otherwise.
type Point struct {
	X float64
	Y float64
}

// Dist returns the Euclidean distance to other.
func (p Point) Dist(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Phase is the top-level state of the strategy machine.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseRunning
	PhaseFinishing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhaseRunning:
		return "RUNNING"
	case PhaseFinishing:
		return "FINISHING"
	case PhaseDone:
		return "DONE"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// GoalKind distinguishes the two kinds of scoring objects.
type GoalKind int

const (
	GoalGlass GoalKind = iota
	GoalGift
)

func (k GoalKind) String() string {
	switch k {
	case GoalGlass:
		return "glass"
	case GoalGift:
		return "gift"
	default:
		return fmt.Sprintf("GoalKind(%d)", int(k))
	}
}

// Goal references one scoring object together with its canonical approach
// target. Goals are values; a stale Goal is detected by MarkResult.
type Goal struct {
	Kind   GoalKind
	Index  int
	Target Point
}

// Same reports whether two goals reference the same object.
func (g Goal) Same(other Goal) bool {
	return g.Kind == other.Kind && g.Index == other.Index
}

// TrajectoryController issues fire-and-forget motion commands and exposes
// the non-blocking terminal-condition query. All coordinates and angles
// passed in are in the robot's actual (already mirrored) frame.
type TrajectoryController interface {
	GotoXY(target Point)
	TurnTo(angle float64)
	CircleArc(center Point, section float64)

	// Status returns the terminal-condition flags currently reported for
	// the trajectory in flight. It never blocks.
	Status() Outcome
}

// Odometry exposes position estimation on the motion board.
type Odometry interface {
	Position() (Point, float64)
	InstantSpeed() (translation, rotation float64)
	SetPosition(p Point, heading float64)
}

// ArmController drives the gift arms on both sides of the robot.
type ArmController interface {
	SetLongArm(up bool)
	SetShortArm(up bool)
}

// MotionController is the composite collaborator the strategy drives.
type MotionController interface {
	TrajectoryController
	Odometry
	ArmController
}
