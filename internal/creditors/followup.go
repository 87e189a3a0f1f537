package creditors

import "time"

// NextFollowUp returns the start of day of the next occurrence of day
// strictly after t. If t already falls on day, the result is a week
// out, never same-day.
func NextFollowUp(t time.Time, day time.Weekday, loc *time.Location) time.Time {
	t = t.In(loc)
	ahead := (int(day) - int(t.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	y, m, d := t.Date()
	return time.Date(y, m, d+ahead, 0, 0, 0, 0, loc)
}

func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func EndOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}
