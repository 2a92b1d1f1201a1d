package tasks

// EventEmitter is the interface the tasks package uses to emit events.
type EventEmitter interface {
	EmitTaskCreated(taskID, orderID, partyID int64)
	EmitTaskStatusChanged(taskID, orderID int64, oldStatus, newStatus string)
}
