package cake

import (
	"testing"
	"time"
)

// TestServiceTin_FlowIsolation verifies the flow-isolation invariant:
// a flow that floods the tin cannot starve a sparse, well-behaved flow
// sharing the same tin — the sparse flow's packets still get dequeued in
// a bounded number of turns.
func TestServiceTin_FlowIsolation(t *testing.T) {
	tin := newTin(8, 1)
	tin.shaper.setRate(0) // unshaped: quantum() falls back to mtuBytes
	now := time.Unix(0, 0)

	// Flow 0 is a bulk sender with many packets queued.
	for i := 0; i < 50; i++ {
		tin.enqueue(0, newPktNode(pkt(i, mtuBytes), now), now)
	}
	// Flow 1 is sparse: one small packet.
	tin.enqueue(1, newPktNode(pkt(999, 200), now), now)

	params := CodelParams{Target: 5 * time.Millisecond, Interval: 100 * time.Millisecond}
	overhead := RateOverhead{}

	sawFlow1 := false
	for i := 0; i < 20 && !sawFlow1; i++ {
		result, ok := serviceTin(tin, params, now, false, overhead)
		if !ok {
			break
		}
		if result.flowIdx == 1 {
			sawFlow1 = true
		}
	}
	if !sawFlow1 {
		t.Fatal("sparse flow 1 should be serviced within a bounded number of turns despite flow 0's flood")
	}
}

func TestServiceTin_DrainsEmptyTinReturnsFalse(t *testing.T) {
	tin := newTin(4, 1)
	params := CodelParams{Target: 5 * time.Millisecond, Interval: 100 * time.Millisecond}
	_, ok := serviceTin(tin, params, time.Unix(0, 0), false, RateOverhead{})
	if ok {
		t.Fatal("serviceTin on an empty tin should report ok=false")
	}
}

func TestServiceTin_BacklogAndStatsUpdateOnDequeue(t *testing.T) {
	tin := newTin(4, 1)
	now := time.Unix(0, 0)
	tin.enqueue(0, newPktNode(pkt(1, 500), now), now)

	params := CodelParams{Target: 5 * time.Millisecond, Interval: 100 * time.Millisecond}
	result, ok := serviceTin(tin, params, now, false, RateOverhead{})
	if !ok || result.node == nil {
		t.Fatal("expected a packet to be dequeued")
	}
	if tin.backlog != 0 {
		t.Fatalf("tin backlog should be back to 0, got %d", tin.backlog)
	}
	if tin.packets != 1 || tin.bytes != 500 {
		t.Fatalf("expected sent counters packets=1 bytes=500, got packets=%d bytes=%d", tin.packets, tin.bytes)
	}
}
