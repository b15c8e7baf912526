package strat

import "strings"

// Outcome is a set of terminal-condition flags for a trajectory. A wait
// call takes an Outcome as the accepted mask and returns the flags that
// actually ended the wait.
type Outcome uint8

const (
	// OutcomeSuccess means the trajectory completed at its target.
	OutcomeSuccess Outcome = 1 << iota
	// OutcomeBlocking means the drive train stalled during the trajectory.
	OutcomeBlocking
	// OutcomeNearTarget means the robot arrived inside the near window.
	OutcomeNearTarget
	// OutcomeObstacle means something is in front of the robot.
	OutcomeObstacle
	// OutcomeCommandError means the board rejected the command.
	OutcomeCommandError
	// OutcomeTimerExpired means the match clock ran out. It preempts any
	// accepted mask.
	OutcomeTimerExpired
)

// FlagsStandard is the accepted mask for precise trajectories.
const FlagsStandard = OutcomeSuccess | OutcomeBlocking | OutcomeObstacle | OutcomeCommandError | OutcomeTimerExpired

// FlagsNear additionally accepts the near window, trading precision for
// speed on corner-cutting approaches.
const FlagsNear = FlagsStandard | OutcomeNearTarget

// Has reports whether all bits of flag are set.
func (o Outcome) Has(flag Outcome) bool {
	return o&flag == flag
}

// Succeeded reports whether the outcome counts as reaching the target.
func (o Outcome) Succeeded() bool {
	return o&(OutcomeSuccess|OutcomeNearTarget) != 0 && !o.Has(OutcomeTimerExpired)
}

var outcomeNames = []struct {
	flag Outcome
	name string
}{
	{OutcomeSuccess, "SUCCESS"},
	{OutcomeBlocking, "BLOCKING"},
	{OutcomeNearTarget, "NEAR"},
	{OutcomeObstacle, "OBSTACLE"},
	{OutcomeCommandError, "ERROR"},
	{OutcomeTimerExpired, "TIMER"},
}

func (o Outcome) String() string {
	if o == 0 {
		return "NONE"
	}
	var parts []string
	for _, entry := range outcomeNames {
		if o&entry.flag != 0 {
			parts = append(parts, entry.name)
		}
	}
	return strings.Join(parts, "|")
}
