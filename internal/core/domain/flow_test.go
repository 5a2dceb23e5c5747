package domain

import "testing"

// Pinned names: a failure here means a metric series is being renamed.
var pinnedFlowNames = map[Flow]string{
	FlowMandatesCreate:            "MandatesCreate",
	FlowMandatesRetrieve:          "MandatesRetrieve",
	FlowMandatesRevoke:            "MandatesRevoke",
	FlowMandatesConnectorCallback: "MandatesConnectorCallback",
	FlowConfigKeyCreate:           "CreateConfigKey",
	FlowDisputesEvidenceAttach:    "AttachDisputeEvidence",
	FlowPollRetrieveStatus:        "RetrievePollStatus",
	FlowPaymentsRedirect:          "PaymentsRedirect",
}

func TestEveryFlowHasUniqueName(t *testing.T) {
	seen := make(map[string]Flow)
	for _, f := range AllFlows() {
		name := FlowName(f)
		if name == "" || name == unknownFlowName {
			t.Fatalf("flow %d has no name", int(f))
		}
		if other, dup := seen[name]; dup {
			t.Fatalf("flows %d and %d share name %q", int(other), int(f), name)
		}
		seen[name] = f
	}
	if len(AllFlows()) != len(flowNames) {
		t.Fatalf("AllFlows lists %d flows, registry has %d", len(AllFlows()), len(flowNames))
	}
}

func TestFlowNamesArePinned(t *testing.T) {
	for f, want := range pinnedFlowNames {
		if got := f.String(); got != want {
			t.Fatalf("flow %d renamed: got %q want %q", int(f), got, want)
		}
	}
}

func TestUnknownFlowName(t *testing.T) {
	if got := Flow(0).String(); got != unknownFlowName {
		t.Fatalf("expected %q, got %q", unknownFlowName, got)
	}
}
