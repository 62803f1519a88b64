package model

import "time"

// DateLayout is the calendar date format used across tables and archives.
const DateLayout = "2006-01-02"

// DateOf returns the UTC calendar date of a unix timestamp.
func DateOf(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(DateLayout)
}

// DayStart returns the unix timestamp of UTC midnight for a calendar date.
func DayStart(date string) (int64, error) {
	tm, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return 0, err
	}
	return tm.Unix(), nil
}
