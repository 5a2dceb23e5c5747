package domain

import (
	"encoding/json"
	"time"
)

type MandateStatus string

const (
	MandateStatusPending  MandateStatus = "pending"
	MandateStatusActive   MandateStatus = "active"
	MandateStatusInactive MandateStatus = "inactive"
	MandateStatusRevoked  MandateStatus = "revoked"
)

func (s MandateStatus) Valid() bool {
	switch s {
	case MandateStatusPending, MandateStatusActive, MandateStatusInactive, MandateStatusRevoked:
		return true
	}
	return false
}

type MandateType string

const (
	MandateTypeSingleUse MandateType = "single_use"
	MandateTypeMultiUse  MandateType = "multi_use"
)

// Mandate is a customer's standing authorization for a merchant to charge
// through a connector. Rows are never deleted; revocation is a status change.
type Mandate struct {
	ID                 int64
	TenantID           string
	MandateID          string
	MerchantID         string
	CustomerID         string
	PaymentMethodID    string
	Connector          string
	ConnectorMandateID *string
	Status             MandateStatus
	MandateType        MandateType
	Amount             *int64
	Currency           *string
	AmountCaptured     *int64
	StartDate          *time.Time
	EndDate            *time.Time
	CustomerIPAddress  string
	CustomerUserAgent  string
	CustomerAcceptedAt *time.Time
	Metadata           json.RawMessage
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MandateNew is the insertable shape of a mandate.
type MandateNew struct {
	TenantID           string          `json:"tenant_id" validate:"required,max=64,printascii"`
	MandateID          string          `json:"mandate_id" validate:"required,max=64,printascii"`
	MerchantID         string          `json:"merchant_id" validate:"required,max=64,printascii"`
	CustomerID         string          `json:"customer_id" validate:"required,max=64,printascii"`
	PaymentMethodID    string          `json:"payment_method_id" validate:"max=64"`
	Connector          string          `json:"connector" validate:"required,max=64"`
	ConnectorMandateID *string         `json:"connector_mandate_id,omitempty" validate:"omitempty,min=1,max=128"`
	Status             MandateStatus   `json:"status" validate:"required,oneof=pending active inactive revoked"`
	MandateType        MandateType     `json:"mandate_type" validate:"required,oneof=single_use multi_use"`
	Amount             *int64          `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Currency           *string         `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	StartDate          *time.Time      `json:"start_date,omitempty"`
	EndDate            *time.Time      `json:"end_date,omitempty"`
	CustomerIPAddress  string          `json:"customer_ip_address,omitempty" validate:"omitempty,ip"`
	CustomerUserAgent  string          `json:"customer_user_agent,omitempty" validate:"max=512"`
	CustomerAcceptedAt *time.Time      `json:"customer_accepted_at,omitempty"`
	Metadata           json.RawMessage `json:"metadata,omitempty"`
}

// MandateUpdate is a partial update; nil fields are left untouched.
type MandateUpdate struct {
	Status             *MandateStatus
	ConnectorMandateID *string
	Connector          *string
	PaymentMethodID    *string
	AmountCaptured     *int64
	EndDate            *time.Time
	Metadata           json.RawMessage
}

func (u MandateUpdate) IsEmpty() bool {
	return u.Status == nil &&
		u.ConnectorMandateID == nil &&
		u.Connector == nil &&
		u.PaymentMethodID == nil &&
		u.AmountCaptured == nil &&
		u.EndDate == nil &&
		len(u.Metadata) == 0
}

func StatusUpdate(status MandateStatus) MandateUpdate {
	return MandateUpdate{Status: &status}
}

func ConnectorReferenceUpdate(connectorMandateID string) MandateUpdate {
	return MandateUpdate{ConnectorMandateID: &connectorMandateID}
}

func CaptureAmountUpdate(amountCaptured int64) MandateUpdate {
	return MandateUpdate{AmountCaptured: &amountCaptured}
}

// ConnectorMandateIDUpdate records the connector registration outcome.
func ConnectorMandateIDUpdate(connector, connectorMandateID, paymentMethodID string, status MandateStatus) MandateUpdate {
	u := MandateUpdate{
		Status:             &status,
		Connector:          &connector,
		ConnectorMandateID: &connectorMandateID,
	}
	if paymentMethodID != "" {
		u.PaymentMethodID = &paymentMethodID
	}
	return u
}

// MerchantScope identifies a merchant within its tenant. Merchant ids are
// only unique per tenant.
type MerchantScope struct {
	TenantID   string
	MerchantID string
}

const (
	ColID                 Column = "id"
	ColTenantID           Column = "tenant_id"
	ColMandateID          Column = "mandate_id"
	ColMerchantID         Column = "merchant_id"
	ColCustomerID         Column = "customer_id"
	ColConnectorMandateID Column = "connector_mandate_id"
	ColStatus             Column = "status"
)

func ByMerchantAndMandateID(merchant MerchantScope, mandateID string) Predicate {
	return Where(Eq(ColTenantID, merchant.TenantID), Eq(ColMerchantID, merchant.MerchantID), Eq(ColMandateID, mandateID))
}

func ByMerchantAndConnectorMandateID(merchant MerchantScope, connectorMandateID string) Predicate {
	return Where(Eq(ColTenantID, merchant.TenantID), Eq(ColMerchantID, merchant.MerchantID), Eq(ColConnectorMandateID, connectorMandateID))
}

func ByMerchantAndCustomer(merchant MerchantScope, customerID string) Predicate {
	return Where(Eq(ColTenantID, merchant.TenantID), Eq(ColMerchantID, merchant.MerchantID), Eq(ColCustomerID, customerID))
}

// ByGlobalCustomer spans every merchant of one tenant.
func ByGlobalCustomer(tenantID, customerID string) Predicate {
	return Where(Eq(ColTenantID, tenantID), Eq(ColCustomerID, customerID))
}
