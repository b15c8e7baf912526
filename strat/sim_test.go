package strat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimTrajectoryLifecycle(t *testing.T) {
	clock := newFakeClock()
	sim := NewSim(clock.Now)

	sim.GotoXY(Point{X: 900, Y: 0}) // 1s at simSpeed

	assert.Equal(t, Outcome(0), sim.Status())

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, Outcome(0), sim.Status())
	vt, _ := sim.InstantSpeed()
	assert.Greater(t, vt, 0.0)

	clock.Advance(600 * time.Millisecond)
	assert.Equal(t, OutcomeSuccess, sim.Status())
	pos, _ := sim.Position()
	assert.Equal(t, Point{X: 900, Y: 0}, pos)
	vt, _ = sim.InstantSpeed()
	assert.Equal(t, 0.0, vt)
}

func TestSimQueuedBlockingStopsShort(t *testing.T) {
	clock := newFakeClock()
	sim := NewSim(clock.Now)
	sim.QueueOutcome(OutcomeBlocking)

	sim.GotoXY(Point{X: 1000, Y: 0})
	clock.Advance(2 * time.Second)

	assert.Equal(t, OutcomeBlocking, sim.Status())
	pos, _ := sim.Position()
	assert.Equal(t, Point{X: 500, Y: 0}, pos)
}

func TestSimTurn(t *testing.T) {
	clock := newFakeClock()
	sim := NewSim(clock.Now)
	sim.SetPosition(Point{X: 100, Y: 100}, 0)

	sim.TurnTo(1.5)
	clock.Advance(simTurnTime + time.Millisecond)

	assert.Equal(t, OutcomeSuccess, sim.Status())
	pos, heading := sim.Position()
	assert.Equal(t, Point{X: 100, Y: 100}, pos)
	assert.Equal(t, 1.5, heading)
}

func TestSimStatusPersistsUntilNextCommand(t *testing.T) {
	clock := newFakeClock()
	sim := NewSim(clock.Now)

	sim.GotoXY(Point{X: 90, Y: 0})
	clock.Advance(time.Second)
	assert.Equal(t, OutcomeSuccess, sim.Status())
	assert.Equal(t, OutcomeSuccess, sim.Status())

	sim.GotoXY(Point{X: 180, Y: 0})
	assert.Equal(t, Outcome(0), sim.Status())
}
