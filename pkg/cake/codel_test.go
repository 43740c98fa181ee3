package cake

import (
	"testing"
	"time"
)

func paramsFor(target, interval time.Duration) CodelParams {
	return CodelParams{Target: target, Interval: interval}
}

func TestCodelDequeue_BelowTargetAccepted(t *testing.T) {
	f := newFlow()
	now := time.Unix(0, 0)
	f.pushTail(newPktNode(pkt(1, 1000), now))

	node, drops, marks := codelDequeue(f, paramsFor(5*time.Millisecond, 100*time.Millisecond), now.Add(time.Millisecond), false)
	if node == nil {
		t.Fatal("expected packet below target to be accepted")
	}
	if drops != 0 || marks != 0 {
		t.Fatalf("expected no drops/marks, got drops=%d marks=%d", drops, marks)
	}
}

func TestCodelDequeue_ShallowQueueAlwaysOk(t *testing.T) {
	f := newFlow()
	now := time.Unix(0, 0)
	f.pushTail(newPktNode(pkt(1, 100), now))

	// Sojourn is far above target, but backlog (100B) is below the MTU
	// threshold, so CoDel must still accept it.
	node, drops, marks := codelDequeue(f, paramsFor(5*time.Millisecond, 100*time.Millisecond), now.Add(time.Second), false)
	if node == nil {
		t.Fatal("expected shallow-queue packet to be accepted regardless of sojourn")
	}
	if drops != 0 || marks != 0 {
		t.Fatalf("expected no drops/marks for shallow queue, got drops=%d marks=%d", drops, marks)
	}
}

func TestCodelDequeue_EntersDroppingAfterSustainedInterval(t *testing.T) {
	f := newFlow()
	target := 5 * time.Millisecond
	interval := 100 * time.Millisecond
	params := paramsFor(target, interval)

	base := time.Unix(0, 0)
	// First above-target packet: the code starts the grace timer and still
	// admits this one packet.
	for i := 0; i < 20; i++ {
		f.pushTail(newPktNode(pkt(i, mtuBytes), base))
	}

	now := base.Add(10 * time.Millisecond)
	node, _, _ := codelDequeue(f, params, now, false)
	if node == nil {
		t.Fatal("first above-target packet should still be accepted while grace timer runs")
	}
	if f.codel.firstAboveTime.IsZero() {
		t.Fatal("firstAboveTime should be armed once sojourn exceeds target")
	}

	// Once the grace interval has elapsed, the flow should enter the
	// dropping state and start shedding non-ECN packets.
	now2 := now.Add(interval + time.Millisecond)
	node2, drops2, marks2 := codelDequeue(f, params, now2, false)
	if node2 == nil && drops2 == 0 && marks2 == 0 {
		t.Fatal("expected either a drop or an eventual accept after entering dropping state")
	}
	if !f.codel.dropping && drops2 == 0 {
		t.Fatal("expected dropping state to be entered after sustained overload")
	}
}

func TestCodelDequeue_ECNMarksInsteadOfDroppingWhenNotOverloaded(t *testing.T) {
	f := newFlow()
	target := 5 * time.Millisecond
	interval := 100 * time.Millisecond
	params := paramsFor(target, interval)
	base := time.Unix(0, 0)

	for i := 0; i < 5; i++ {
		p := pkt(i, mtuBytes)
		p.ecn = true
		f.pushTail(newPktNode(p, base))
	}

	now := base.Add(10 * time.Millisecond)
	codelDequeue(f, params, now, false) // arms firstAboveTime

	now2 := now.Add(interval + time.Millisecond)
	node, drops, marks := codelDequeue(f, params, now2, false)
	if node == nil {
		t.Fatal("ECN-capable packet should be delivered (marked), not disappear")
	}
	if drops != 0 {
		t.Fatalf("expected no hard drops for ECN-capable flow, got %d", drops)
	}
	if marks == 0 {
		t.Fatal("expected the packet to be counted as ECN-marked")
	}
}

func TestCodelDequeue_OverloadSuppressesECNMarking(t *testing.T) {
	f := newFlow()
	target := 5 * time.Millisecond
	interval := 100 * time.Millisecond
	params := paramsFor(target, interval)
	base := time.Unix(0, 0)

	for i := 0; i < 5; i++ {
		p := pkt(i, mtuBytes)
		p.ecn = true
		f.pushTail(newPktNode(p, base))
	}

	now := base.Add(10 * time.Millisecond)
	codelDequeue(f, params, now, true)

	now2 := now.Add(interval + time.Millisecond)
	_, drops, marks := codelDequeue(f, params, now2, true)
	if marks != 0 {
		t.Fatalf("overloaded scheduler must not ECN-mark, got marks=%d", marks)
	}
	if drops == 0 {
		t.Fatal("overloaded scheduler should hard-drop an ECN-capable packet instead of marking it")
	}
}

func TestControlLaw_DecreasesWithCount(t *testing.T) {
	interval := 100 * time.Millisecond
	d1 := controlLaw(interval, 1)
	d4 := controlLaw(interval, 4)
	if d1 != interval {
		t.Fatalf("controlLaw(interval, 1) = %v, want %v", d1, interval)
	}
	if d4 >= d1 {
		t.Fatalf("controlLaw should shrink with count: count=1 -> %v, count=4 -> %v", d1, d4)
	}
}
