// Package hearts owns the bounded life counter. All functions operate on the
// in-memory LearnerState only; the caller persists the result.
package hearts

import (
	"time"

	"progress-service/internal/config"
	"progress-service/internal/models"
)

// Ledger applies one of the two regeneration policies:
//
//   - cooldown: each missing heart comes back after a fixed interval, counted
//     from the regeneration anchor (set when the first heart is spent from a
//     full counter, advanced as hearts regenerate).
//   - daily_reset: hearts refill to the maximum once the calendar date (in
//     the configured timezone) moves past the anchor's date.
//
// A deployment picks one policy; the ledger never mixes them.
type Ledger struct {
	cfg config.GameConfig
}

func NewLedger(cfg config.GameConfig) *Ledger {
	return &Ledger{cfg: cfg}
}

func (l *Ledger) MaxHearts() int {
	return l.cfg.MaxHearts
}

// Regenerate applies any regeneration owed as of now. Idempotent: calling it
// repeatedly with the same now is a no-op after the first call. Hearts never
// exceed the maximum.
func (l *Ledger) Regenerate(st *models.LearnerState, now time.Time) {
	if st.Hearts >= l.cfg.MaxHearts {
		st.Hearts = l.cfg.MaxHearts
		st.LastHeartRegenAt = time.Time{}
		return
	}
	if st.LastHeartRegenAt.IsZero() {
		// Missing hearts but no anchor: start a fresh cycle now.
		st.LastHeartRegenAt = now
		return
	}

	switch l.cfg.HeartRegenPolicy {
	case config.RegenPolicyDailyReset:
		anchor := dateOf(st.LastHeartRegenAt, l.cfg.Timezone)
		today := dateOf(now, l.cfg.Timezone)
		if today.After(anchor) {
			st.Hearts = l.cfg.MaxHearts
			st.LastHeartRegenAt = time.Time{}
		}
	default: // cooldown
		regained := int(now.Sub(st.LastHeartRegenAt) / l.cfg.HeartRegenCooldown)
		if regained <= 0 {
			return
		}
		if st.Hearts+regained >= l.cfg.MaxHearts {
			st.Hearts = l.cfg.MaxHearts
			st.LastHeartRegenAt = time.Time{}
			return
		}
		st.Hearts += regained
		st.LastHeartRegenAt = st.LastHeartRegenAt.Add(time.Duration(regained) * l.cfg.HeartRegenCooldown)
	}
}

// Spend debits one heart for an incorrect answer, flooring at zero. At zero
// the answer still counts as incorrect; only the counter stays put. A spend
// from a full counter anchors the regeneration cycle at now.
func (l *Ledger) Spend(st *models.LearnerState, now time.Time) {
	if st.Hearts <= 0 {
		st.Hearts = 0
		return
	}
	if st.Hearts == l.cfg.MaxHearts || st.LastHeartRegenAt.IsZero() {
		st.LastHeartRegenAt = now
	}
	st.Hearts--
}

// MinutesUntilNext reports minutes until the policy restores at least one
// heart, 0 when the counter is full.
func (l *Ledger) MinutesUntilNext(st *models.LearnerState, now time.Time) int {
	if st.Hearts >= l.cfg.MaxHearts {
		return 0
	}
	switch l.cfg.HeartRegenPolicy {
	case config.RegenPolicyDailyReset:
		midnight := dateOf(now, l.cfg.Timezone).AddDate(0, 0, 1)
		return ceilMinutes(midnight.Sub(now))
	default:
		anchor := st.LastHeartRegenAt
		if anchor.IsZero() {
			anchor = now
		}
		return ceilMinutes(anchor.Add(l.cfg.HeartRegenCooldown).Sub(now))
	}
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	mins := int(d / time.Minute)
	if d%time.Minute != 0 {
		mins++
	}
	return mins
}
