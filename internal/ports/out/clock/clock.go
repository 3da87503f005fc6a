package clock

import "time"

// Clock is the ledger's source of "now". Reference months and default payment dates
// come from the calendar fields of Now() in its own location, so the implementation
// decides where a month boundary falls.
type Clock interface {
	Now() time.Time
}
