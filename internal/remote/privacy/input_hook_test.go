package privacy

import "testing"

func TestClassifyHookEvent_SentinelAlwaysPasses(t *testing.T) {
	if !classifyHookEvent(syntheticInputSentinel, false) {
		t.Fatal("event stamped with the synthetic sentinel must pass even when not flagged injected")
	}
}

func TestClassifyHookEvent_InjectedWithoutSentinelPasses(t *testing.T) {
	if !classifyHookEvent(0, true) {
		t.Fatal("an injected event without the sentinel must still pass")
	}
}

func TestClassifyHookEvent_NeitherBlocked(t *testing.T) {
	if classifyHookEvent(0, false) {
		t.Fatal("an event with no sentinel and no injected flag must be blocked")
	}
}

func TestClassifyHookEvent_WrongSentinelValueBlocked(t *testing.T) {
	if classifyHookEvent(syntheticInputSentinel^0xFF, false) {
		t.Fatal("a near-miss extraInfo value must not be treated as the sentinel")
	}
}
