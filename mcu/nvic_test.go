package mcu_test

import (
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/mcu"
)

func TestNVICLowestNumberedPendingWins(t *testing.T) {
	n := mcu.NewNVIC()
	mustNoError(t, n.Set32(0xE000E100, 1<<5|1<<2|1<<9)) // enable IRQ2, IRQ5, IRQ9

	idx, activated := n.MaybeActivateInterrupt(1<<2 | 1<<5 | 1<<9)
	if !activated || idx != 2 {
		t.Fatalf("expected lowest-numbered IRQ2 to activate, got idx=%d activated=%v", idx, activated)
	}

	// A second interrupt can't activate while one is already active.
	if _, activated := n.MaybeActivateInterrupt(1 << 5); activated {
		t.Fatal("expected no activation while IRQ2 is still active")
	}
}

func TestNVICDeactivateRestoresPendingIfLevelStillAsserted(t *testing.T) {
	n := mcu.NewNVIC()
	mustNoError(t, n.Set32(0xE000E100, 1<<3))
	idx, activated := n.MaybeActivateInterrupt(1 << 3)
	if !activated || idx != 3 {
		t.Fatalf("expected IRQ3 to activate, got idx=%d activated=%v", idx, activated)
	}

	n.DeactivateInterrupt(1 << 3) // level still asserted
	snap := n.Snapshot()
	if snap.Active != 0 {
		t.Fatalf("expected active cleared, got 0x%X", snap.Active)
	}
	if snap.Pending&(1<<3) == 0 {
		t.Fatal("expected IRQ3 to return to pending since its level is still asserted")
	}
}

func TestNVICDeactivateDropsPendingIfLevelDeasserted(t *testing.T) {
	n := mcu.NewNVIC()
	mustNoError(t, n.Set32(0xE000E100, 1<<3))
	n.MaybeActivateInterrupt(1 << 3)

	n.DeactivateInterrupt(0) // level no longer asserted
	snap := n.Snapshot()
	if snap.Pending&(1<<3) != 0 {
		t.Fatal("expected IRQ3 pending bit cleared once its level deasserted")
	}
}

func TestNVICSnapshotRoundTrip(t *testing.T) {
	n := mcu.NewNVIC()
	mustNoError(t, n.Set32(0xE000E100, 1<<7))
	n.MaybeActivateInterrupt(1 << 7)

	snap := n.Snapshot()
	other := mcu.NewNVIC()
	other.Restore(snap)
	if other.Snapshot() != snap {
		t.Fatalf("restored NVIC state %+v does not match original %+v", other.Snapshot(), snap)
	}
}

func mustNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
