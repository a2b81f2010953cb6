package board

import (
	"time"

	"github.com/teambition/rrule-go"

	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

// MaxRecurringWeeks bounds how many weeks a single recurring apply may touch.
const MaxRecurringWeeks = 53

// Week identifies an ISO week.
type Week struct {
	Year int
	Week int
}

// ISOWeekStart returns the Monday of an ISO week in UTC.
func ISOWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	sinceMonday := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, (week-1)*7-sinceMonday)
}

// RecurringWeeks expands an RRULE anchored on the Monday of year/week into the
// distinct ISO weeks it hits, in order. Rules without COUNT or UNTIL stop after
// limit weeks, as do rules that would produce more. Rules finer than daily and
// rules that match no week are rejected.
func RecurringWeeks(year, week int, rule string, limit int) ([]Week, error) {
	if limit <= 0 || limit > MaxRecurringWeeks {
		limit = MaxRecurringWeeks
	}
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, appErrors.Cause(appErrors.ErrValidation, err, "invalid recurrence rule")
	}
	if opt.Freq > rrule.DAILY {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence must repeat daily or less often")
	}
	opt.Dtstart = ISOWeekStart(year, week)
	if opt.Count == 0 && opt.Until.IsZero() {
		opt.Count = limit
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, appErrors.Cause(appErrors.ErrValidation, err, "invalid recurrence rule")
	}

	weeks := make([]Week, 0, limit)
	seen := make(map[Week]bool)
	next := r.Iterator()
	// a daily rule needs at most seven occurrences per distinct week
	for steps := 0; len(weeks) < limit && steps < limit*7; steps++ {
		at, ok := next()
		if !ok {
			break
		}
		y, w := at.ISOWeek()
		key := Week{Year: y, Week: w}
		if seen[key] {
			continue
		}
		seen[key] = true
		weeks = append(weeks, key)
	}
	if len(weeks) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence matches no week")
	}
	return weeks, nil
}
