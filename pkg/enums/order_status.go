package enums

import "fmt"

// OrderStatus tracks where an order sits in the kitchen pipeline.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// statusPipeline is the forward progression; cancelled sits outside it.
var statusPipeline = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusPickedUp,
}

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusPickedUp,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPickedUp || s == OrderStatusCancelled
}

// Next returns the successor in the forward pipeline. The second return
// is false for the final pipeline stage, for cancelled, and for
// unrecognized values.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, candidate := range statusPipeline {
		if candidate == s {
			if i == len(statusPipeline)-1 {
				return "", false
			}
			return statusPipeline[i+1], true
		}
	}
	return "", false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
