package metrics

import "testing"

func TestRateLimitDrops(t *testing.T) {
	before := RateLimitDrops()
	IncRateLimitDrop()
	IncRateLimitDrop()
	if got := RateLimitDrops(); got != before+2 {
		t.Errorf("expected %d drops, got %d", before+2, got)
	}
}

func TestAutomationOpSnapshot(t *testing.T) {
	totalBefore, byBefore := AutomationOpSnapshot()

	IncAutomationOp("automation.created")
	IncAutomationOp("automation.created")
	IncAutomationOp("automation.deleted")

	total, by := AutomationOpSnapshot()
	if total != totalBefore+3 {
		t.Errorf("expected total %d, got %d", totalBefore+3, total)
	}
	if by["automation.created"] != byBefore["automation.created"]+2 {
		t.Errorf("created counter wrong: %d", by["automation.created"])
	}
	if by["automation.deleted"] != byBefore["automation.deleted"]+1 {
		t.Errorf("deleted counter wrong: %d", by["automation.deleted"])
	}

	// The snapshot is a copy; mutating it must not leak back.
	by["automation.created"] += 100
	_, again := AutomationOpSnapshot()
	if again["automation.created"] != byBefore["automation.created"]+2 {
		t.Error("snapshot mutation leaked into live counters")
	}
}
