package notify

import "strconv"

// badgeCap is the largest count shown as a number.
const badgeCap = 9

// BadgeText returns the bell badge for an unread count: nothing for zero,
// the number up to 9, and "9+" above that.
func BadgeText(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > badgeCap:
		return strconv.Itoa(badgeCap) + "+"
	default:
		return strconv.Itoa(n)
	}
}
