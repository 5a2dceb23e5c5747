package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/usecase"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

type customerAcceptance struct {
	IPAddress  string     `json:"ip_address,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

type createMandateRequest struct {
	MandateID          string               `json:"mandate_id,omitempty"`
	CustomerID         string               `json:"customer_id"`
	PaymentMethodID    string               `json:"payment_method_id,omitempty"`
	Connector          string               `json:"connector"`
	ConnectorMandateID *string              `json:"connector_mandate_id,omitempty"`
	Status             domain.MandateStatus `json:"status,omitempty"`
	MandateType        domain.MandateType   `json:"mandate_type"`
	Amount             *int64               `json:"amount,omitempty"`
	Currency           *string              `json:"currency,omitempty"`
	StartDate          *time.Time           `json:"start_date,omitempty"`
	EndDate            *time.Time           `json:"end_date,omitempty"`
	CustomerAcceptance *customerAcceptance  `json:"customer_acceptance,omitempty"`
	Metadata           json.RawMessage      `json:"metadata,omitempty"`
}

type updateMandateRequest struct {
	Status             *domain.MandateStatus `json:"status,omitempty"`
	ConnectorMandateID *string               `json:"connector_mandate_id,omitempty"`
	Connector          *string               `json:"connector,omitempty"`
	PaymentMethodID    *string               `json:"payment_method_id,omitempty"`
	AmountCaptured     *int64                `json:"amount_captured,omitempty"`
	EndDate            *time.Time            `json:"end_date,omitempty"`
	Metadata           json.RawMessage       `json:"metadata,omitempty"`
}

type registrationRequest struct {
	ConnectorMandateID string `json:"connector_mandate_id"`
	PaymentMethodID    string `json:"payment_method_id,omitempty"`
}

type mandateResponse struct {
	MandateID          string              `json:"mandate_id"`
	MerchantID         string              `json:"merchant_id"`
	CustomerID         string              `json:"customer_id"`
	PaymentMethodID    string              `json:"payment_method_id,omitempty"`
	Connector          string              `json:"connector"`
	ConnectorMandateID *string             `json:"connector_mandate_id"`
	Status             string              `json:"status"`
	MandateType        string              `json:"mandate_type"`
	Amount             *int64              `json:"amount,omitempty"`
	Currency           *string             `json:"currency,omitempty"`
	AmountCaptured     *int64              `json:"amount_captured,omitempty"`
	StartDate          string              `json:"start_date,omitempty"`
	EndDate            string              `json:"end_date,omitempty"`
	CustomerAcceptance *customerAcceptance `json:"customer_acceptance,omitempty"`
	Metadata           json.RawMessage     `json:"metadata,omitempty"`
	CreatedAt          string              `json:"created_at"`
	UpdatedAt          string              `json:"updated_at"`
}

// APIEventType lets a mandate response classify its own api event.
func (m mandateResponse) APIEventType() domain.EventType {
	return domain.MandateEvent{MandateID: m.MandateID}
}

func (h *Handler) createMandate(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil || !json.Valid(raw) {
		fail(w, r, http.StatusBadRequest, "invalid json body", err)
		return
	}
	if err := validateBody(mandateCreateSchema, raw); err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req createMandateRequest
	if err := decodeStrict(raw, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid json body", err)
		return
	}

	merchant := merchantScope(r.Context())
	m := domain.MandateNew{
		TenantID:           merchant.TenantID,
		MandateID:          req.MandateID,
		MerchantID:         merchant.MerchantID,
		CustomerID:         req.CustomerID,
		PaymentMethodID:    req.PaymentMethodID,
		Connector:          req.Connector,
		ConnectorMandateID: req.ConnectorMandateID,
		Status:             req.Status,
		MandateType:        req.MandateType,
		Amount:             req.Amount,
		Currency:           req.Currency,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Metadata:           []byte(req.Metadata),
	}
	if ca := req.CustomerAcceptance; ca != nil {
		m.CustomerIPAddress = ca.IPAddress
		m.CustomerUserAgent = ca.UserAgent
		m.CustomerAcceptedAt = ca.AcceptedAt
	}

	m = usecase.NormalizeMandate(m)
	created, err := observe(r, m, func(ctx context.Context) (domain.Mandate, error) {
		return h.mandates.Create(ctx, m)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	h.mandateEvent(r, created.MandateID)
	respond(w, r, http.StatusCreated, toMandateResponse(created))
}

func (h *Handler) getMandate(w http.ResponseWriter, r *http.Request) {
	mandateID := chi.URLParam(r, "mandate_id")
	merchant := merchantScope(r.Context())

	m, err := observe(r, domain.MandateID{MandateID: mandateID}, func(ctx context.Context) (domain.Mandate, error) {
		return h.mandates.FindByMerchantAndMandateID(ctx, merchant, mandateID)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, toMandateResponse(m))
}

func (h *Handler) getMandateByConnectorID(w http.ResponseWriter, r *http.Request) {
	connectorMandateID := chi.URLParam(r, "connector_mandate_id")
	merchant := merchantScope(r.Context())

	request := map[string]string{"connector_mandate_id": connectorMandateID}
	m, err := observe(r, request, func(ctx context.Context) (domain.Mandate, error) {
		return h.mandates.FindByMerchantAndConnectorMandateID(ctx, merchant, connectorMandateID)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	h.mandateEvent(r, m.MandateID)
	respond(w, r, http.StatusOK, toMandateResponse(m))
}

func (h *Handler) listCustomerMandates(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	merchant := merchantScope(r.Context())

	request := map[string]string{"customer_id": customerID}
	list, err := observe(r, request, func(ctx context.Context) ([]domain.Mandate, error) {
		return h.mandates.FindAllByMerchantAndCustomer(ctx, merchant, customerID)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"items": toMandateResponses(list)})
}

func (h *Handler) listGlobalCustomerMandates(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	merchant := merchantScope(r.Context())

	request := map[string]string{"customer_id": customerID}
	list, err := observe(r, request, func(ctx context.Context) ([]domain.Mandate, error) {
		return h.mandates.FindAllByGlobalCustomer(ctx, merchant, customerID)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"items": toMandateResponses(list)})
}

func (h *Handler) updateMandate(w http.ResponseWriter, r *http.Request) {
	mandateID := chi.URLParam(r, "mandate_id")
	merchant := merchantScope(r.Context())
	h.mandateEvent(r, mandateID)

	var req updateMandateRequest
	if _, err := decodeBody(w, r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid json body", err)
		return
	}
	patch := domain.MandateUpdate{
		Status:             req.Status,
		ConnectorMandateID: req.ConnectorMandateID,
		Connector:          req.Connector,
		PaymentMethodID:    req.PaymentMethodID,
		AmountCaptured:     req.AmountCaptured,
		EndDate:            req.EndDate,
		Metadata:           []byte(req.Metadata),
	}

	m, err := observe(r, req, func(ctx context.Context) (domain.Mandate, error) {
		return h.mandates.UpdateByMerchantAndMandateID(ctx, merchant, mandateID, patch)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, toMandateResponse(m))
}

func (h *Handler) revokeMandate(w http.ResponseWriter, r *http.Request) {
	mandateID := chi.URLParam(r, "mandate_id")
	merchant := merchantScope(r.Context())

	m, err := observe(r, domain.MandateID{MandateID: mandateID}, func(ctx context.Context) (domain.Mandate, error) {
		return h.mandates.Revoke(ctx, merchant, mandateID)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, toMandateResponse(m))
}

func (h *Handler) registerConnectorMandate(w http.ResponseWriter, r *http.Request) {
	connector := chi.URLParam(r, "connector")
	mandateID := chi.URLParam(r, "mandate_id")
	merchant := merchantScope(r.Context())
	h.mandateEvent(r, mandateID)

	var req registrationRequest
	if _, err := decodeBody(w, r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid json body", err)
		return
	}

	m, err := observe(r, req, func(ctx context.Context) (domain.Mandate, error) {
		return h.mandates.RegisterConnectorMandate(ctx, merchant, mandateID, connector, req.ConnectorMandateID, req.PaymentMethodID)
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, toMandateResponse(m))
}

func (h *Handler) mandateEvent(r *http.Request, mandateID string) {
	if sc := scopeFrom(r.Context()); sc != nil && mandateID != "" {
		sc.setEventType(domain.MandateEvent{MandateID: mandateID})
	}
}

func toMandateResponses(list []domain.Mandate) []mandateResponse {
	out := make([]mandateResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMandateResponse(m))
	}
	return out
}

func toMandateResponse(m domain.Mandate) mandateResponse {
	resp := mandateResponse{
		MandateID:          m.MandateID,
		MerchantID:         m.MerchantID,
		CustomerID:         m.CustomerID,
		PaymentMethodID:    m.PaymentMethodID,
		Connector:          m.Connector,
		ConnectorMandateID: m.ConnectorMandateID,
		Status:             string(m.Status),
		MandateType:        string(m.MandateType),
		Amount:             m.Amount,
		Currency:           m.Currency,
		AmountCaptured:     m.AmountCaptured,
		StartDate:          formatTime(m.StartDate),
		EndDate:            formatTime(m.EndDate),
		Metadata:           json.RawMessage(m.Metadata),
		CreatedAt:          m.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:          m.UpdatedAt.UTC().Format(timeFormat),
	}
	if m.CustomerIPAddress != "" || m.CustomerUserAgent != "" || m.CustomerAcceptedAt != nil {
		resp.CustomerAcceptance = &customerAcceptance{
			IPAddress:  m.CustomerIPAddress,
			UserAgent:  m.CustomerUserAgent,
			AcceptedAt: m.CustomerAcceptedAt,
		}
	}
	return resp
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeFormat)
}
