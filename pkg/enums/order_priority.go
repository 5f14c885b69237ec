package enums

import "fmt"

// OrderPriority is an advisory flag for kitchen triage. It never alters
// which status transitions are legal.
type OrderPriority string

const (
	OrderPriorityNormal OrderPriority = "normal"
	OrderPriorityRush   OrderPriority = "rush"
)

var validOrderPriorities = []OrderPriority{
	OrderPriorityNormal,
	OrderPriorityRush,
}

// String implements fmt.Stringer.
func (p OrderPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known OrderPriority.
func (p OrderPriority) IsValid() bool {
	for _, candidate := range validOrderPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseOrderPriority converts raw input into an OrderPriority.
func ParseOrderPriority(value string) (OrderPriority, error) {
	for _, candidate := range validOrderPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order priority %q", value)
}
