package orderstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

// Terminal reports whether no further transition is expected from s.
func (s Status) Terminal() bool {
	return s == Statuses.Completed || s == Statuses.Cancelled
}

type Enum struct {
	Pending    Status
	Confirmed  Status
	Preparing  Status
	Ready      Status
	Delivering Status
	Completed  Status
	Cancelled  Status
}

var Statuses = Enum{
	Pending:    Status{Name: "pending"},
	Confirmed:  Status{Name: "confirmed"},
	Preparing:  Status{Name: "preparing"},
	Ready:      Status{Name: "ready"},
	Delivering: Status{Name: "delivering"},
	Completed:  Status{Name: "completed"},
	Cancelled:  Status{Name: "cancelled"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Confirmed,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Delivering,
	Statuses.Completed,
	Statuses.Cancelled,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// Parse is the lenient variant of ByName used for values coming from other
// services: case and surrounding whitespace are ignored.
func Parse(value string) (Status, bool) {
	s := ByName(strings.ToLower(strings.TrimSpace(value)))
	if s == nil {
		return Status{}, false
	}
	return *s, true
}
