package common

import "time"

// DateStampLayout is the YYYYMMDD layout used by the Korean bulk data
// endpoints, which key every dataset on a trading date.
const DateStampLayout = "20060102"

// RecentBusinessDays returns count YYYYMMDD stamps starting from yesterday
// and walking backward, skipping Saturdays and Sundays. Yesterday is the
// starting point because the current day's bulk data is usually not yet
// published. Weekends are the only exclusions — market holidays are handled
// by callers trying several stamps in order rather than by a holiday table.
func RecentBusinessDays(count int) []string {
	return RecentBusinessDaysFrom(time.Now(), count)
}

// RecentBusinessDaysFrom is RecentBusinessDays with an explicit reference
// time, for deterministic tests.
func RecentBusinessDaysFrom(now time.Time, count int) []string {
	dates := make([]string, 0, count)
	d := now.AddDate(0, 0, -1)
	for len(dates) < count {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d.Format(DateStampLayout))
		}
		d = d.AddDate(0, 0, -1)
	}
	return dates
}
