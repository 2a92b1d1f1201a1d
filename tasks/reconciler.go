package tasks

import (
	"log"
	"sync"
	"time"

	"partsdesk/parts"
)

// Reconciler periodically re-applies the task→order status mapping for pairs
// that drifted apart. The synchronizer is fire-and-forget, so a mirror write
// can be lost; this sweep is the correctness backstop.
type Reconciler struct {
	mgr      *Manager
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewReconciler creates a reconciler. A non-positive interval disables it.
func NewReconciler(mgr *Manager, interval time.Duration) *Reconciler {
	return &Reconciler{
		mgr:      mgr,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (r *Reconciler) Start() {
	if r.interval <= 0 {
		return
	}
	r.wg.Add(1)
	go r.loop()
}

// Stop stops the sweep loop.
func (r *Reconciler) Stop() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
	r.wg.Wait()
}

func (r *Reconciler) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep compares every active task's status to its order's mirrored status
// and re-applies the mapping where they drifted. Orders that legitimately
// moved ahead (receipt, cancellation) are left alone: only transitions the
// order state machine still allows are re-applied.
func (r *Reconciler) Sweep() {
	active, err := r.mgr.db.ListActiveTasks()
	if err != nil {
		log.Printf("reconcile: list active tasks: %v", err)
		return
	}

	for i := range active {
		task := &active[i]
		target := mirrorStatus(Status(task.Status), task.PartyKind)
		if target == "" {
			continue
		}

		order, err := r.mgr.orders.Get(task.OrderID)
		if err != nil {
			log.Printf("reconcile: order %d for task %d: %v", task.OrderID, task.ID, err)
			continue
		}
		current := parts.Status(order.Status)
		if current == target || !parts.CanTransition(current, target) {
			continue
		}

		if _, err := r.mgr.orders.Transition(task.OrderID, target, "reconciler",
			"re-applied drifted task status "+task.Status); err != nil {
			log.Printf("reconcile: transition order %d to %s: %v", task.OrderID, target, err)
			continue
		}
		log.Printf("reconcile: order %d re-synced %s -> %s (task %d)", task.OrderID, current, target, task.ID)
	}
}
