package strat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeClock drives simulated time for the strategy, the match clock, and
// the simulator together.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestStrategy wires a strategy against the simulator on a fake clock.
// Sleeping in the poll loop advances the fake clock instead of wall time.
func newTestStrategy(t *testing.T, cfg Config) (*Strategy, *Sim, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	sim := NewSim(clock.Now)
	s := NewStrategy(cfg, sim, zaptest.NewLogger(t), nil)
	s.now = clock.Now
	s.sleep = func(d time.Duration) { clock.Advance(d) }
	return s, sim, clock
}

// gotoTargets filters the goto commands out of the simulator history.
func gotoTargets(sim *Sim) []Point {
	var out []Point
	for _, c := range sim.Commands() {
		if c.Op == "goto" {
			out = append(out, c.Target)
		}
	}
	return out
}

func TestFullMatchRed(t *testing.T) {
	s, sim, _ := newTestStrategy(t, DefaultConfig())

	require.NoError(t, s.Begin(context.Background(), ColorRed))

	assert.Equal(t, PhaseDone, s.Phase())
	snap := s.Snapshot()
	assert.Equal(t, ColorRed, snap.Color)
	for i, glass := range snap.Glasses {
		assert.True(t, glass.Taken, "glass %d untaken", i)
	}
	for i, gift := range snap.Gifts {
		assert.True(t, gift.Done, "gift %d not done", i)
	}

	// Odometry seeded with the calibrated corner pose, identity mirror.
	commands := sim.Commands()
	require.NotEmpty(t, commands)
	assert.Equal(t, "pos", commands[0].Op)
	assert.Equal(t, Point{X: 88.5, Y: 1787}, commands[0].Target)
	assert.Equal(t, 90.0, commands[0].Angle)

	// First goal is the left outer glass, last trajectory is the retreat.
	gotos := gotoTargets(sim)
	require.NotEmpty(t, gotos)
	assert.Equal(t, glassLayout[0], gotos[0])
	assert.Equal(t, Point{X: 400, Y: 1600}, gotos[len(gotos)-1])

	// Red plays gifts with the long arm: one down/up pair per gift.
	assert.Equal(t, 8, sim.CountOp("long_arm"))
	assert.Equal(t, 0, sim.CountOp("short_arm"))
}

func TestMatchTimerPreemptsTrajectoryWait(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Match.Duration = 5 * time.Second
	s, sim, _ := newTestStrategy(t, cfg)

	require.NoError(t, s.Begin(context.Background(), ColorRed))

	assert.Equal(t, PhaseDone, s.Phase())
	snap := s.Snapshot()
	assert.Equal(t, 5, snap.Elapsed)

	// The only trajectory after expiry is the single retreat.
	gotos := gotoTargets(sim)
	require.NotEmpty(t, gotos)
	assert.Equal(t, Point{X: 400, Y: 1600}, gotos[len(gotos)-1])
	for _, target := range gotos[:len(gotos)-1] {
		assert.NotEqual(t, Point{X: 400, Y: 1600}, target)
	}
}

func TestObstacleRetryThenSkip(t *testing.T) {
	s, sim, _ := newTestStrategy(t, DefaultConfig())
	sim.QueueOutcome(OutcomeObstacle) // first attempt at the outer glass
	sim.QueueOutcome(OutcomeSuccess)  // avoidance arc succeeds
	sim.QueueOutcome(OutcomeObstacle) // retry fails again -> skip the goal

	require.NoError(t, s.Begin(context.Background(), ColorRed))

	assert.Equal(t, 1, sim.CountOp("circle"))

	gotos := gotoTargets(sim)
	require.GreaterOrEqual(t, len(gotos), 3)
	assert.Equal(t, glassLayout[0], gotos[0])
	assert.Equal(t, glassLayout[0], gotos[1], "goal must be re-attempted once after avoidance")
	assert.NotEqual(t, glassLayout[0], gotos[2], "goal must be excluded from the immediate next selection")

	// The skipped glass stays eligible later in the match and is taken.
	snap := s.Snapshot()
	assert.True(t, snap.Glasses[0].Taken)
	assert.Equal(t, PhaseDone, s.Phase())
}

func TestFailedAvoidanceCountsAsSecondFailure(t *testing.T) {
	s, sim, _ := newTestStrategy(t, DefaultConfig())
	sim.QueueOutcome(OutcomeObstacle) // first attempt
	sim.QueueOutcome(OutcomeBlocking) // recovery trajectory stalls

	require.NoError(t, s.Begin(context.Background(), ColorRed))

	assert.Equal(t, 1, sim.CountOp("circle"))

	gotos := gotoTargets(sim)
	require.GreaterOrEqual(t, len(gotos), 2)
	assert.Equal(t, glassLayout[0], gotos[0])
	assert.NotEqual(t, glassLayout[0], gotos[1], "no retry after a failed recovery")
}

func TestBlueMirrorsAllCommands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Match.Duration = 3 * time.Second
	s, sim, _ := newTestStrategy(t, cfg)

	require.NoError(t, s.Begin(context.Background(), ColorBlue))

	commands := sim.Commands()
	require.NotEmpty(t, commands)
	assert.Equal(t, "pos", commands[0].Op)
	assert.Equal(t, Point{X: 88.5, Y: 213}, commands[0].Target)
	assert.Equal(t, -90.0, commands[0].Angle)

	gotos := gotoTargets(sim)
	require.NotEmpty(t, gotos)
	assert.Equal(t, Point{X: glassLayout[0].X, Y: TableWidth - glassLayout[0].Y}, gotos[0])
}

func TestWaitOutcomeIsSubsetOfMask(t *testing.T) {
	s, sim, _ := newTestStrategy(t, DefaultConfig())
	s.clock = NewMatchClock(s.cfg.Match.Duration, s.now)
	s.clock.Start()

	sim.QueueOutcome(OutcomeObstacle | OutcomeBlocking)
	sim.GotoXY(Point{X: 500, Y: 500})
	out := s.waitTrajectoryEnd(FlagsStandard)
	assert.Equal(t, OutcomeObstacle|OutcomeBlocking, out)
	assert.NotZero(t, out&FlagsStandard)

	// NEAR is filtered out of the result when the mask rejects it, and the
	// wait keeps going until an accepted bit shows up or time runs out.
	sim.QueueOutcome(OutcomeNearTarget)
	sim.GotoXY(Point{X: 600, Y: 600})
	out = s.wait(FlagsStandard, s.now().Add(2*time.Second), true)
	assert.Zero(t, out&OutcomeNearTarget)
}

func TestDoGift(t *testing.T) {
	s, sim, _ := newTestStrategy(t, DefaultConfig())

	s.Calibrate(ColorRed)
	require.NoError(t, s.DoGift(0))

	assert.True(t, s.Snapshot().Gifts[0].Done)
	assert.Equal(t, 1, sim.CountOp("turn"))
	assert.Equal(t, 2, sim.CountOp("long_arm"))

	require.Error(t, s.DoGift(GiftCount))
}

func TestBeginRejectsRunningMatch(t *testing.T) {
	s, _, _ := newTestStrategy(t, DefaultConfig())
	s.phase = PhaseRunning
	assert.Error(t, s.Begin(context.Background(), ColorRed))
}

func TestContextCancelAbortsMatch(t *testing.T) {
	s, _, _ := newTestStrategy(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Begin(ctx, ColorRed)
	assert.ErrorIs(t, err, context.Canceled)
	// Even an aborted match ends with the retreat in DONE.
	assert.Equal(t, PhaseDone, s.Phase())
}
