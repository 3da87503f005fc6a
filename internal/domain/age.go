package domain

import "time"

// CompletedYears returns whole years elapsed between since and now, subtracting
// one when the anniversary has not occurred yet in now's year.
// A future since yields zero.
func CompletedYears(since, now time.Time) int {
	if now.Before(since) {
		return 0
	}
	years := now.Year() - since.Year()
	if now.Month() < since.Month() || (now.Month() == since.Month() && now.Day() < since.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
