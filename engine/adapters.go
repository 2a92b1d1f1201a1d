package engine

// Emitter adapters translate subsystem callbacks into bus events, keeping
// the domain packages free of a direct bus dependency.

type orderEmitter struct {
	bus *EventBus
}

func (e *orderEmitter) EmitOrderCreated(orderID int64, orderUUID string, status string) {
	e.bus.Emit(Event{Type: EventOrderCreated, Payload: OrderCreatedEvent{
		OrderID: orderID, OrderUUID: orderUUID, Status: status,
	}})
}

func (e *orderEmitter) EmitOrderStatusChanged(orderID int64, orderUUID, oldStatus, newStatus string) {
	e.bus.Emit(Event{Type: EventOrderStatusChanged, Payload: OrderStatusChangedEvent{
		OrderID: orderID, OrderUUID: orderUUID, OldStatus: oldStatus, NewStatus: newStatus,
	}})
}

func (e *orderEmitter) EmitOrderReceived(orderID, stockItemID int64, quantity int64) {
	e.bus.Emit(Event{Type: EventOrderReceived, Payload: OrderReceivedEvent{
		OrderID: orderID, StockItemID: stockItemID, Quantity: quantity,
	}})
}

type taskEmitter struct {
	bus *EventBus
}

func (e *taskEmitter) EmitTaskCreated(taskID, orderID, partyID int64) {
	e.bus.Emit(Event{Type: EventTaskCreated, Payload: TaskCreatedEvent{
		TaskID: taskID, OrderID: orderID, PartyID: partyID,
	}})
}

func (e *taskEmitter) EmitTaskStatusChanged(taskID, orderID int64, oldStatus, newStatus string) {
	e.bus.Emit(Event{Type: EventTaskStatusChanged, Payload: TaskStatusChangedEvent{
		TaskID: taskID, OrderID: orderID, OldStatus: oldStatus, NewStatus: newStatus,
	}})
}

type warehouseEmitter struct {
	bus *EventBus
}

func (e *warehouseEmitter) EmitStockAllocated(stockItemID, allocationID, quantity int64) {
	e.bus.Emit(Event{Type: EventStockAllocated, Payload: StockAllocatedEvent{
		StockItemID: stockItemID, AllocationID: allocationID, Quantity: quantity,
	}})
}

func (e *warehouseEmitter) EmitStockReturned(stockItemID, allocationID, quantity int64) {
	e.bus.Emit(Event{Type: EventStockReturned, Payload: StockReturnedEvent{
		StockItemID: stockItemID, AllocationID: allocationID, Quantity: quantity,
	}})
}
