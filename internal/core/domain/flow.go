package domain

// Flow identifies an API operation for event and metric labelling.
type Flow int

const (
	FlowMandatesCreate Flow = iota + 1
	FlowMandatesRetrieve
	FlowMandatesRetrieveByConnectorID
	FlowMandatesList
	FlowMandatesListByGlobalCustomer
	FlowMandatesUpdate
	FlowMandatesRevoke
	FlowMandatesConnectorCallback
	FlowConfigKeyCreate
	FlowConfigKeyFetch
	FlowConfigKeyUpdate
	FlowConfigKeyDelete
	FlowDisputesRetrieve
	FlowDisputesEvidenceAttach
	FlowFilesCreate
	FlowFilesRetrieve
	FlowPollRetrieveStatus
	FlowPaymentsRedirect
	FlowHealthCheck
	FlowMetrics
)

// Names are part of the metrics contract. Changing one breaks historical
// series, so new flows append and existing entries stay as they are.
var flowNames = map[Flow]string{
	FlowMandatesCreate:                "MandatesCreate",
	FlowMandatesRetrieve:              "MandatesRetrieve",
	FlowMandatesRetrieveByConnectorID: "MandatesRetrieveByConnectorId",
	FlowMandatesList:                  "MandatesList",
	FlowMandatesListByGlobalCustomer:  "MandatesListByGlobalCustomer",
	FlowMandatesUpdate:                "MandatesUpdate",
	FlowMandatesRevoke:                "MandatesRevoke",
	FlowMandatesConnectorCallback:     "MandatesConnectorCallback",
	FlowConfigKeyCreate:               "CreateConfigKey",
	FlowConfigKeyFetch:                "ConfigKeyFetch",
	FlowConfigKeyUpdate:               "ConfigKeyUpdate",
	FlowConfigKeyDelete:               "ConfigKeyDelete",
	FlowDisputesRetrieve:              "DisputesRetrieve",
	FlowDisputesEvidenceAttach:        "AttachDisputeEvidence",
	FlowFilesCreate:                   "CreateFile",
	FlowFilesRetrieve:                 "RetrieveFile",
	FlowPollRetrieveStatus:            "RetrievePollStatus",
	FlowPaymentsRedirect:              "PaymentsRedirect",
	FlowHealthCheck:                   "HealthCheck",
	FlowMetrics:                       "Metrics",
}

const unknownFlowName = "UnknownFlow"

func (f Flow) String() string {
	if name, ok := flowNames[f]; ok {
		return name
	}
	return unknownFlowName
}

func FlowName(f Flow) string {
	return f.String()
}

// AllFlows lists every supported flow in declaration order.
func AllFlows() []Flow {
	flows := make([]Flow, 0, len(flowNames))
	for f := FlowMandatesCreate; f <= FlowMetrics; f++ {
		flows = append(flows, f)
	}
	return flows
}
