package record

// Status is the author-asserted lifecycle state of a policy.
// It is stored, not derived from dates.
type Status string

// Recognized statuses.
const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusUpcoming Status = "upcoming"
	StatusUnknown  Status = "unknown"
)

// Statuses lists the recognized statuses in display order.
var Statuses = []Status{StatusActive, StatusUpcoming, StatusExpired, StatusUnknown}

var statusLabels = map[Status]string{
	StatusActive:   "Active",
	StatusExpired:  "Expired",
	StatusUpcoming: "Upcoming",
	StatusUnknown:  "Unknown",
}

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display label, or the raw value when unrecognized.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}
