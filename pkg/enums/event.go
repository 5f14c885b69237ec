package enums

// Realtime event names pushed to connected clients.
const (
	EventOrderNew    = "order:new"
	EventOrderUpdate = "order:update"
	EventMenuUpdate  = "menu:update"
)
