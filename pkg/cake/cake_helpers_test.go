package cake

import "time"

// testPacket is a minimal Packet implementation used across the package's
// tests. It optionally implements DSCPRewriter so wash-mode tests can
// observe the rewrite.
type testPacket struct {
	id       int
	length   int
	truesize int
	dscp     uint8
	ipv      uint8
	ecn      bool
}

func (p *testPacket) Len() int          { return p.length }
func (p *testPacket) Truesize() int {
	if p.truesize != 0 {
		return p.truesize
	}
	return p.length
}
func (p *testPacket) DSCP() uint8      { return p.dscp }
func (p *testPacket) IPVersion() uint8 { return p.ipv }
func (p *testPacket) ECNCapable() bool { return p.ecn }
func (p *testPacket) SetDSCP(d uint8)  { p.dscp = d }

func pkt(id, length int) *testPacket {
	return &testPacket{id: id, length: length, ipv: 4}
}

func flowKey(src, dst byte, srcPort, dstPort uint16) FlowKey {
	var k FlowKey
	k.SrcIP[15] = src
	k.DstIP[15] = dst
	k.SrcPort = srcPort
	k.DstPort = dstPort
	k.Proto = 6
	return k
}

// manualWatchdog records every ScheduleAt/Cancel call for assertions
// without needing a real timer.
type manualWatchdog struct {
	scheduled  bool
	lastTarget time.Time
	cancels    int
}

func (w *manualWatchdog) ScheduleAt(at time.Time) { w.scheduled = true; w.lastTarget = at }
func (w *manualWatchdog) Cancel()                 { w.scheduled = false; w.cancels++ }
