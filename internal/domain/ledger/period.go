package ledger

import (
	"time"

	"gledger/internal/core/apperror"
)

// PeriodGuard decides whether a transaction date falls inside the
// tenant's open posting window.
//
// The check is a pure read over Settings. To avoid a race where the
// period closes between check and commit, callers consult the guard on
// the settings row read inside the same transaction that performs the
// posting state transition.
type PeriodGuard struct{}

// Check returns nil when the date is postable under the given settings:
// within [PeriodStart, PeriodEnd], or after PeriodEnd when future
// posting is allowed. Boundaries are inclusive at date granularity.
func (PeriodGuard) Check(s *Settings, date time.Time) error {
	d := dateOnly(date)

	if d.Before(dateOnly(s.PeriodStart)) {
		return apperror.NewPeriodClosed(d.Format("2006-01-02")).
			WithDetail("period_start", s.PeriodStart.Format("2006-01-02"))
	}

	if d.After(dateOnly(s.PeriodEnd)) && !s.AllowFuturePosting {
		return apperror.NewPeriodClosed(d.Format("2006-01-02")).
			WithDetail("period_end", s.PeriodEnd.Format("2006-01-02"))
	}

	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
