package strat

import "errors"

const (
	// GlassCount is the number of glasses on the table.
	GlassCount = 12
	// GiftCount is the number of gifts along the border.
	GiftCount = 4
	// NeverAttempted is the sentinel for a gift that was never tried.
	NeverAttempted = -1
)

// ErrInvalidGoal reports a goal reference that no longer matches a live,
// unconsumed object. It indicates a scheduler bug, not a runtime condition.
var ErrInvalidGoal = errors.New("goal does not reference a live object")

// Glass is a glass on the table, position in the canonical frame.
type Glass struct {
	Pos   Point
	Taken bool
}

// Gift is a gift along the border. LastAttempt is in seconds since match
// start so the scheduler can avoid hammering a gift that just failed.
type Gift struct {
	X           float64
	Done        bool
	LastAttempt int
}

// glassLayout holds the canonical glass positions. Glasses 0 and 1 are the
// outer pair nearest the starting zone; 3 and 4 are the inner pair. The
// layout is symmetric about the centerline, so mirroring at command time
// gives blue the same indexing relative to its own starting zone.
var glassLayout = [GlassCount]Point{
	{900, 550}, {900, 950},
	{1050, 750},
	{1200, 550}, {1200, 950},
	{1350, 750},
	{1650, 750},
	{1800, 550}, {1800, 950},
	{1950, 750},
	{2100, 550}, {2100, 950},
}

// giftXs holds the canonical gift x coordinates along the border.
var giftXs = [GiftCount]float64{600, 1200, 1800, 2400}

// giftApproachY is the canonical y the robot drives along to reach a gift
// with the arm, 213 mm off the border wall.
const giftApproachY = 213.0

// World is the catalogue of scoring objects for one match. It is owned
// exclusively by the strategy control loop; diagnostic reads go through
// copies returned by Glasses and Gifts.
type World struct {
	color   Color
	glasses [GlassCount]Glass
	gifts   [GiftCount]Gift
}

// NewWorld initializes the object catalogue for the given color. Objects
// are stored in the canonical frame; the color only tags the world so the
// mirror is applied once, at command time.
func NewWorld(color Color) *World {
	w := &World{color: color}
	for i := range w.glasses {
		w.glasses[i] = Glass{Pos: glassLayout[i]}
	}
	for i := range w.gifts {
		w.gifts[i] = Gift{X: giftXs[i], LastAttempt: NeverAttempted}
	}
	return w
}

// Color returns the side this world was initialized for.
func (w *World) Color() Color { return w.color }

// Glasses returns a copy of the glass catalogue.
func (w *World) Glasses() [GlassCount]Glass { return w.glasses }

// Gifts returns a copy of the gift catalogue.
func (w *World) Gifts() [GiftCount]Gift { return w.gifts }

// GlassesRemaining counts the glasses not yet taken.
func (w *World) GlassesRemaining() int {
	n := 0
	for i := range w.glasses {
		if !w.glasses[i].Taken {
			n++
		}
	}
	return n
}

// GiftsRemaining counts the gifts not yet done.
func (w *World) GiftsRemaining() int {
	n := 0
	for i := range w.gifts {
		if !w.gifts[i].Done {
			n++
		}
	}
	return n
}

// glassGoal builds the goal reference for glass i.
func (w *World) glassGoal(i int) Goal {
	return Goal{Kind: GoalGlass, Index: i, Target: w.glasses[i].Pos}
}

// giftGoal builds the goal reference for gift i.
func (w *World) giftGoal(i int) Goal {
	return Goal{Kind: GoalGift, Index: i, Target: Point{X: w.gifts[i].X, Y: giftApproachY}}
}

// SelectNext picks the next goal from pos at elapsed seconds into the
// match, applying the selection policy:
//
//  1. the configured outer glass, while the glass time budget holds,
//  2. else the nearest remaining glass, while the glass time budget holds,
//  3. else the nearest remaining gift whose cooldown has passed,
//  4. else nothing.
//
// exclude, when non-nil, removes one goal from this selection only; the
// caller uses it to step past a goal that just failed twice. Selection is
// pure: state changes only through MarkResult.
func (w *World) SelectNext(pos Point, elapsed int, policy PolicyConfig, exclude *Goal) (Goal, bool) {
	excluded := func(g Goal) bool {
		return exclude != nil && exclude.Same(g)
	}

	if elapsed+policy.GoalCost <= policy.GlassBudget {
		outer := 0
		if !policy.TakeFirstGlassLeft {
			outer = 1
		}
		if !w.glasses[outer].Taken {
			if g := w.glassGoal(outer); !excluded(g) {
				return g, true
			}
		}

		best := -1
		bestDist := 0.0
		for i := range w.glasses {
			if w.glasses[i].Taken || excluded(w.glassGoal(i)) {
				continue
			}
			d := pos.Dist(w.glasses[i].Pos)
			if best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		if best >= 0 {
			return w.glassGoal(best), true
		}
	}

	best := -1
	bestDist := 0.0
	for i := range w.gifts {
		if w.gifts[i].Done {
			continue
		}
		g := w.giftGoal(i)
		if excluded(g) {
			continue
		}
		if w.gifts[i].LastAttempt != NeverAttempted && elapsed-w.gifts[i].LastAttempt < policy.GiftCooldown {
			continue
		}
		d := pos.Dist(g.Target)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		return w.giftGoal(best), true
	}

	return Goal{}, false
}

// MarkResult records the outcome of a goal attempt at now seconds into the
// match. Success consumes the object; failure leaves a glass eligible and
// starts the cooldown on a gift. A stale reference returns ErrInvalidGoal.
func (w *World) MarkResult(goal Goal, success bool, now int) error {
	switch goal.Kind {
	case GoalGlass:
		if goal.Index < 0 || goal.Index >= GlassCount || w.glasses[goal.Index].Taken {
			return ErrInvalidGoal
		}
		if success {
			w.glasses[goal.Index].Taken = true
		}
	case GoalGift:
		if goal.Index < 0 || goal.Index >= GiftCount || w.gifts[goal.Index].Done {
			return ErrInvalidGoal
		}
		w.gifts[goal.Index].LastAttempt = now
		if success {
			w.gifts[goal.Index].Done = true
		}
	default:
		return ErrInvalidGoal
	}
	return nil
}
