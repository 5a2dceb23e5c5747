package domain

import "encoding/json"

type Config struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type ConfigUpdate struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type CreateFileRequest struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	Purpose  string `json:"purpose"`
}

type FileID struct {
	FileID string `json:"file_id"`
}

type AttachEvidenceRequest struct {
	DisputeID    string `json:"dispute_id"`
	EvidenceType string `json:"evidence_type"`
	FileID       string `json:"file_id"`
}

type DisputeID struct {
	DisputeID string `json:"dispute_id"`
}

type PollID struct {
	PollID string `json:"poll_id"`
}

type MandateID struct {
	MandateID string `json:"mandate_id"`
}

// PaymentsRedirectResponse is the connector redirect callback payload.
type PaymentsRedirectResponse struct {
	Connector string          `json:"connector"`
	PaymentID string          `json:"payment_id,omitempty"`
	Params    string          `json:"param,omitempty"`
	JSONBody  json.RawMessage `json:"json_payload,omitempty"`
}

func (Config) APIEventType() EventType                { return MiscellaneousEvent{} }
func (ConfigUpdate) APIEventType() EventType          { return MiscellaneousEvent{} }
func (CreateFileRequest) APIEventType() EventType     { return MiscellaneousEvent{} }
func (FileID) APIEventType() EventType                { return MiscellaneousEvent{} }
func (AttachEvidenceRequest) APIEventType() EventType { return MiscellaneousEvent{} }

func (d DisputeID) APIEventType() EventType {
	return DisputeEvent{DisputeID: d.DisputeID}
}

func (p PollID) APIEventType() EventType {
	return PollEvent{PollID: p.PollID}
}

func (m MandateID) APIEventType() EventType {
	return MandateEvent{MandateID: m.MandateID}
}

func (m Mandate) APIEventType() EventType {
	return MandateEvent{MandateID: m.MandateID}
}

func (m MandateNew) APIEventType() EventType {
	return MandateEvent{MandateID: m.MandateID}
}

func (r PaymentsRedirectResponse) APIEventType() EventType {
	ev := PaymentRedirectionEvent{Connector: r.Connector}
	if r.PaymentID != "" {
		id := r.PaymentID
		ev.PaymentID = &id
	}
	return ev
}
