package dispatch

import "time"

// Gate is the business-hours predicate: dispatching is only permitted while
// the local hour of day in Location falls inside [StartHour, EndHour). The
// end hour itself is closed for business.
type Gate struct {
	Location  *time.Location
	StartHour int
	EndHour   int
}

// Open reports whether now falls inside the business-hours window.
func (g Gate) Open(now time.Time) bool {
	hour := now.In(g.Location).Hour()
	return hour >= g.StartHour && hour < g.EndHour
}
