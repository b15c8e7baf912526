package strat

import (
	"math"

	"go.uber.org/zap"
)

// attemptAvoidance runs the recovery maneuver after an obstacle outcome:
// an arc around a center offset toward the table centerline, so the robot
// swings sideways off the blocked line. The wait excludes OBSTACLE from
// its accepted mask to force a decisive result and is bounded by the
// avoidance timeout. Returns whether the maneuver reached its end.
func (s *Strategy) attemptAvoidance() bool {
	s.avoiding = true
	defer func() { s.avoiding = false }()
	s.tel.RecordAvoidance()

	pos := s.position()
	offset := s.cfg.Policy.AvoidOffset
	if pos.Y > TableWidth/2 {
		offset = -offset
	}
	center := Point{X: pos.X, Y: pos.Y + offset}
	s.log.Info("avoiding obstacle",
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y),
		zap.Float64("center_y", center.Y))

	s.motion.CircleArc(MirrorPoint(center, s.color), MirrorAngle(math.Pi/2, s.color))

	out := s.wait(
		OutcomeSuccess|OutcomeNearTarget|OutcomeBlocking|OutcomeCommandError,
		s.now().Add(s.cfg.Policy.AvoidTimeout),
		true,
	)
	s.tel.RecordTrajectory(out)
	s.log.Info("avoidance ended", zap.Stringer("outcome", out))

	if out.Has(OutcomeTimerExpired) {
		return false
	}
	return out.Succeeded()
}
