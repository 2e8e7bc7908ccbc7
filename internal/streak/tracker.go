// Package streak owns the consecutive-day counter and its calendar
// arithmetic. Milestone bonuses live in the rewards ledger; this package only
// reports which thresholds a change crossed.
package streak

import (
	"math"
	"time"

	"progress-service/internal/models"
)

type Result struct {
	Streak  int  `json:"streak"`
	Changed bool `json:"changed"`
}

// RecordActivity advances, holds, or resets the streak based on the calendar
// date of now versus the last qualifying activity, both taken in loc.
// Comparison is by calendar date, not wall-clock hours, so activity at 23:59
// and 00:01 still counts as consecutive days.
func RecordActivity(st *models.LearnerState, now time.Time, loc *time.Location) Result {
	res := Result{}
	switch {
	case st.LastActivityAt.IsZero():
		st.Streak = 1
		res.Changed = true
	default:
		gap := daysBetween(st.LastActivityAt, now, loc)
		switch {
		case gap <= 0:
			// Already counted today.
		case gap == 1:
			st.Streak++
			res.Changed = true
		default:
			st.Streak = 1
			res.Changed = true
		}
	}
	st.LastActivityAt = now
	res.Streak = st.Streak
	return res
}

// CrossedMilestones returns the thresholds in milestones that cur reaches but
// prev had not. A reset past a threshold does not re-cross it later unless
// the caller tracks awards separately, which the reward ledger does.
func CrossedMilestones(prev, cur int, milestones []int) []int {
	var crossed []int
	for _, m := range milestones {
		if prev < m && cur >= m {
			crossed = append(crossed, m)
		}
	}
	return crossed
}

func daysBetween(earlier, later time.Time, loc *time.Location) int {
	a := dateOf(earlier, loc)
	b := dateOf(later, loc)
	// Rounding absorbs DST days of 23 or 25 hours.
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
