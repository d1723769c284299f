package core

// FilterByRange returns the days whose calendar date falls inside the
// inclusive [from, to] range. Comparison is lexicographic on discrete
// year/month/day integers; dates are never converted to timestamps.
func FilterByRange(days []Day, from, to DMY) []Day {
	out := make([]Day, 0, len(days))
	for _, d := range days {
		if inRange(d, from, to) {
			out = append(out, d)
		}
	}
	return out
}

func inRange(d Day, from, to DMY) bool {
	if d.Year < from.Year || d.Year > to.Year {
		return false
	}
	if d.Year > from.Year && d.Year < to.Year {
		return true
	}

	afterFrom := true
	if d.Year == from.Year {
		afterMonth := d.Month > from.Month
		sameMonthAfterDay := d.Month == from.Month && d.Day >= from.Day
		afterFrom = afterMonth || sameMonthAfterDay
	}
	beforeTo := true
	if d.Year == to.Year {
		beforeMonth := d.Month < to.Month
		sameMonthBeforeDay := d.Month == to.Month && d.Day <= to.Day
		beforeTo = beforeMonth || sameMonthBeforeDay
	}
	return afterFrom && beforeTo
}
