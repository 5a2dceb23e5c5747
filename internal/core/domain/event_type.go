package domain

// EventType classifies the domain sub-event carried by an ApiEvent. The set
// is closed: variants live in this package and implement the unexported
// wireFields method.
type EventType interface {
	EventTypeName() string
	wireFields() map[string]any
}

// ApiEventMetric is implemented by request and response payloads that know
// their own event classification.
type ApiEventMetric interface {
	APIEventType() EventType
}

// EventTypeOf classifies payload, falling back to MiscellaneousEvent.
func EventTypeOf(payload any) EventType {
	if m, ok := payload.(ApiEventMetric); ok {
		if et := m.APIEventType(); et != nil {
			return et
		}
	}
	return MiscellaneousEvent{}
}

type MiscellaneousEvent struct{}

func (MiscellaneousEvent) EventTypeName() string { return "miscellaneous" }

func (MiscellaneousEvent) wireFields() map[string]any { return nil }

type MandateEvent struct {
	MandateID string
}

func (MandateEvent) EventTypeName() string { return "mandate" }

func (e MandateEvent) wireFields() map[string]any {
	return map[string]any{"mandate_id": e.MandateID}
}

type DisputeEvent struct {
	DisputeID string
}

func (DisputeEvent) EventTypeName() string { return "dispute" }

func (e DisputeEvent) wireFields() map[string]any {
	return map[string]any{"dispute_id": e.DisputeID}
}

type PollEvent struct {
	PollID string
}

func (PollEvent) EventTypeName() string { return "poll" }

func (e PollEvent) wireFields() map[string]any {
	return map[string]any{"poll_id": e.PollID}
}

// PaymentRedirectionEvent records a redirect outcome. PaymentID is nil when
// the redirect was not keyed by a payment intent.
type PaymentRedirectionEvent struct {
	Connector string
	PaymentID *string
}

func (PaymentRedirectionEvent) EventTypeName() string { return "payment_redirection_response" }

func (e PaymentRedirectionEvent) wireFields() map[string]any {
	return map[string]any{"connector": e.Connector, "payment_id": e.PaymentID}
}
