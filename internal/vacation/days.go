package vacation

import "time"

const secondsPerDay = 86400

// Days returns the UTC-midnight unix timestamp of every day in [start, end].
// An inverted range yields an empty slice.
func Days(start, end time.Time) []int64 {
	s := midnight(start).Unix()
	e := midnight(end).Unix()

	n := (e-s)/secondsPerDay + 1
	if n <= 0 {
		return []int64{}
	}

	days := make([]int64, n)
	for i := range days {
		days[i] = s + secondsPerDay*int64(i)
	}
	return days
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
