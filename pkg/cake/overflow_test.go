package cake

import (
	"testing"
	"time"
)

func TestDropFattestFlow_TargetsLargestBacklogAcrossTins(t *testing.T) {
	now := time.Unix(0, 0)
	small := newTin(4, 1)
	small.enqueue(0, newPktNode(pkt(1, 100), now), now)

	big := newTin(4, 2)
	bigNode := newPktNode(pkt(2, 9000), now)
	big.enqueue(0, bigNode, now)

	tins := []*tin{small, big}
	evicted, tinIdx, flowIdx := dropFattestFlow(tins)
	if evicted == nil {
		t.Fatal("expected an eviction")
	}
	if evicted != bigNode {
		t.Fatal("expected the fattest flow's packet to be evicted, not the small one")
	}
	if tinIdx != 1 || flowIdx != 0 {
		t.Fatalf("expected eviction from tin 1 flow 0, got tin %d flow %d", tinIdx, flowIdx)
	}
	if big.backlog != 0 {
		t.Fatalf("expected big tin's backlog to drop to 0, got %d", big.backlog)
	}
}

func TestDropFattestFlow_NothingToEvict(t *testing.T) {
	tins := []*tin{newTin(4, 1), newTin(4, 2)}
	evicted, tinIdx, flowIdx := dropFattestFlow(tins)
	if evicted != nil || tinIdx != noFlowIndex || flowIdx != noFlowIndex {
		t.Fatal("expected no eviction on empty tins")
	}
}

func TestDropFattestFlow_EvictsOnlyHeadOfFattestFlow(t *testing.T) {
	now := time.Unix(0, 0)
	t0 := newTin(4, 1)
	first := newPktNode(pkt(1, 5000), now)
	second := newPktNode(pkt(2, 5000), now)
	t0.enqueue(0, first, now)
	t0.enqueue(0, second, now)

	evicted, _, _ := dropFattestFlow([]*tin{t0})
	if evicted != first {
		t.Fatal("expected the head of the fattest flow's FIFO to be evicted, not an arbitrary packet")
	}
	if t0.flows[0].length != 1 {
		t.Fatalf("expected one packet remaining in the flow, got %d", t0.flows[0].length)
	}
}
