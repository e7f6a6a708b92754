package episode

import (
	"fmt"
	"time"
)

// FormatElapsed renders a duration as whole days, hours and minutes
// using truncating division. Sub-minute remainders are dropped.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int64(d / time.Minute)
	days := mins / (24 * 60)
	hours := (mins / 60) % 24
	mins = mins % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
}
