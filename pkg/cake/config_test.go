package cake

import "testing"

func TestConfig_ValidateRejectsBadMode(t *testing.T) {
	c := DefaultConfig()
	c.DiffservMode = Mode(99)
	if err := c.validate(); err != ErrUnknownMode {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestConfig_ValidateRejectsTargetAboveInterval(t *testing.T) {
	c := DefaultConfig()
	c.Target = c.Interval + 1
	if err := c.validate(); err != ErrBadTarget {
		t.Fatalf("expected ErrBadTarget, got %v", err)
	}
}

func TestConfig_ValidateRejectsNonPowerOfTwoFlows(t *testing.T) {
	c := DefaultConfig()
	c.FlowsPerTin = 1000
	if err := c.validate(); err != ErrFlowsNotPow2 {
		t.Fatalf("expected ErrFlowsNotPow2, got %v", err)
	}
}

func TestBuildPreset_BestEffortIsSingleTin(t *testing.T) {
	_, presets := buildPreset(ModeBestEffort)
	if len(presets) != 1 {
		t.Fatalf("besteffort should produce exactly one tin, got %d", len(presets))
	}
}

func TestBuildPreset_Diffserv4HasFourTins(t *testing.T) {
	dscpTable, presets := buildPreset(ModeDiffserv4)
	if len(presets) != 4 {
		t.Fatalf("diffserv4 should produce four tins, got %d", len(presets))
	}
	if dscpTable[dscpEF] != 3 {
		t.Fatalf("EF should land in the latency tin (3), got %d", dscpTable[dscpEF])
	}
	if dscpTable[dscpCS1] != 0 {
		t.Fatalf("CS1 should land in the background tin (0), got %d", dscpTable[dscpCS1])
	}
}

func TestBuildPreset_Diffserv8HasEightTins(t *testing.T) {
	_, presets := buildPreset(ModeDiffserv8)
	if len(presets) != CakeMaxTins {
		t.Fatalf("diffserv8 should produce %d tins, got %d", CakeMaxTins, len(presets))
	}
}

func TestBuildPreset_PrecedenceRatesDecreasePerTier(t *testing.T) {
	_, presets := buildPreset(ModePrecedence)
	for i := 1; i < len(presets); i++ {
		prevShare := float64(presets[i-1].rateNumerator) / float64(presets[i-1].rateDenominator)
		share := float64(presets[i].rateNumerator) / float64(presets[i].rateDenominator)
		if share >= prevShare {
			t.Fatalf("tin %d should have a smaller rate share than tin %d", i, i-1)
		}
	}
}
