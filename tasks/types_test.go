package tasks

import (
	"testing"

	"partsdesk/parts"
	"partsdesk/store"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusSeparated, true},
		{StatusPending, StatusSent, true},
		{StatusPending, StatusDelivered, false},
		{StatusSeparated, StatusSent, true},
		{StatusSeparated, StatusDelivered, false},
		{StatusSent, StatusDelivered, true},
		{StatusSent, StatusSeparated, false},
		{StatusDelivered, StatusSent, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestMirrorStatus(t *testing.T) {
	cases := []struct {
		task Status
		kind string
		want parts.Status
	}{
		{StatusPending, store.PartyPartner, parts.StatusAssignedToPartner},
		{StatusPending, store.PartySupplier, parts.StatusAssignedToSupplier},
		{StatusSeparated, store.PartyPartner, parts.StatusPartnerProcessing},
		{StatusSeparated, store.PartySupplier, parts.StatusSupplierProcessing},
		{StatusSent, store.PartyPartner, parts.StatusWaitingDelivery},
		{StatusSent, store.PartySupplier, parts.StatusWaitingDelivery},
		// Delivered stays at waiting_delivery; only an explicit receipt
		// moves the order to available.
		{StatusDelivered, store.PartyPartner, parts.StatusWaitingDelivery},
		{StatusDelivered, store.PartySupplier, parts.StatusWaitingDelivery},
		{StatusCancelled, store.PartyPartner, parts.StatusCancelled},
	}
	for _, c := range cases {
		if got := mirrorStatus(c.task, c.kind); got != c.want {
			t.Errorf("mirrorStatus(%s, %s) = %s, want %s", c.task, c.kind, got, c.want)
		}
	}
}
