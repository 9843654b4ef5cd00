package domain

import "time"

// Visible decides whether a record may be shown to the caller at the given
// instant. includeHidden bypasses every check and is reserved for
// authenticated admin listings. Window bounds are inclusive: a record is
// visible at exactly displayFrom and at exactly displayUntil.
//
// Visibility is computed per read. It is never cached, because wall-clock
// time can cross a window boundary between requests.
func Visible(r *Record, now time.Time, includeHidden bool) bool {
	if includeHidden {
		return true
	}
	if !r.Published {
		return false
	}
	if r.DisplayFrom != nil && now.Before(*r.DisplayFrom) {
		return false
	}
	if r.DisplayUntil != nil && now.After(*r.DisplayUntil) {
		return false
	}
	return true
}
