// internal/membership/pricing.go
package membership

import (
	"fmt"
	"time"
)

// rates is the only price table. Values are whole currency units.
var rates = map[Type]map[Period]int64{
	TypeGold:     {PeriodWeekly: 50, PeriodMonthly: 150, PeriodAnnually: 1500},
	TypePlatinum: {PeriodWeekly: 80, PeriodMonthly: 250, PeriodAnnually: 2500},
	TypeDiamond:  {PeriodWeekly: 120, PeriodMonthly: 400, PeriodAnnually: 4000},
}

// Compute derives the end date and price of a membership starting at start.
// It is pure: identical inputs always produce identical quotes.
func Compute(t Type, p Period, start time.Time) (Quote, error) {
	byPeriod, ok := rates[t]
	if !ok {
		return Quote{}, fmt.Errorf("%w: unknown membership type %q", ErrInvalidMembershipParameter, t)
	}
	price, ok := byPeriod[p]
	if !ok {
		return Quote{}, fmt.Errorf("%w: unknown membership period %q", ErrInvalidMembershipParameter, p)
	}

	var end time.Time
	switch p {
	case PeriodWeekly:
		end = start.AddDate(0, 0, 7)
	case PeriodMonthly:
		end = addMonthsClamped(start, 1)
	case PeriodAnnually:
		end = addMonthsClamped(start, 12)
	}

	return Quote{
		Type:        t,
		Period:      p,
		StartDate:   start,
		EndDate:     end,
		TotalAmount: Units(price),
	}, nil
}

// addMonthsClamped adds calendar months, keeping the day of month unless the
// target month is shorter, in which case the last day of that month is used.
// time.AddDate would roll Jan 31 + 1 month over into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
