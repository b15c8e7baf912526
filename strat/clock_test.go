package strat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchClock(t *testing.T) {
	fake := newFakeClock()
	clock := NewMatchClock(MatchTime*time.Second, fake.Now)

	assert.Equal(t, 0, clock.Elapsed())
	assert.False(t, clock.Expired())

	clock.Start()
	assert.Equal(t, 0, clock.Elapsed())

	fake.Advance(30 * time.Second)
	assert.Equal(t, 30, clock.Elapsed())
	assert.False(t, clock.Expired())

	fake.Advance(58*time.Second + 999*time.Millisecond)
	assert.Equal(t, 88, clock.Elapsed())
	assert.False(t, clock.Expired())

	fake.Advance(time.Millisecond)
	assert.True(t, clock.Expired())
	assert.Equal(t, MatchTime, clock.Elapsed())

	// Elapsed stays clamped at the match duration.
	fake.Advance(time.Hour)
	assert.Equal(t, MatchTime, clock.Elapsed())
}
