package parts

// EventEmitter is the interface the parts package uses to emit events.
type EventEmitter interface {
	EmitOrderCreated(orderID int64, orderUUID string, status string)
	EmitOrderStatusChanged(orderID int64, orderUUID, oldStatus, newStatus string)
	EmitOrderReceived(orderID, stockItemID int64, quantity int64)
}
