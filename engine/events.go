package engine

import "time"

// EventType identifies a kind of engine event.
type EventType string

const (
	EventOrderCreated       EventType = "order_created"
	EventOrderStatusChanged EventType = "order_status_changed"
	EventOrderReceived      EventType = "order_received"
	EventTaskCreated        EventType = "task_created"
	EventTaskStatusChanged  EventType = "task_status_changed"
	EventStockAllocated     EventType = "stock_allocated"
	EventStockReturned      EventType = "stock_returned"
)

// Event is a typed engine event.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   interface{}
}

// OrderCreatedEvent is emitted when a part order enters the system.
type OrderCreatedEvent struct {
	OrderID   int64
	OrderUUID string
	Status    string
}

// OrderStatusChangedEvent is emitted on every order lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID   int64
	OrderUUID string
	OldStatus string
	NewStatus string
}

// OrderReceivedEvent is emitted when a received order creates warehouse stock.
type OrderReceivedEvent struct {
	OrderID     int64
	StockItemID int64
	Quantity    int64
}

// TaskCreatedEvent is emitted when routing creates a fulfillment task.
type TaskCreatedEvent struct {
	TaskID  int64
	OrderID int64
	PartyID int64
}

// TaskStatusChangedEvent is emitted when a party advances its task.
type TaskStatusChangedEvent struct {
	TaskID    int64
	OrderID   int64
	OldStatus string
	NewStatus string
}

// StockAllocatedEvent is emitted when stock is bound to a technician.
type StockAllocatedEvent struct {
	StockItemID  int64
	AllocationID int64
	Quantity     int64
}

// StockReturnedEvent is emitted when an allocation is returned to stock.
type StockReturnedEvent struct {
	StockItemID  int64
	AllocationID int64
	Quantity     int64
}
