package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type MandateConfig struct {
	Generation domain.SchemaGeneration
	Policy     domain.TransitionPolicy
}

// MandateService validates mandate requests and coordinates predicate-scoped
// updates against the store. It holds no locks; the database serialises
// concurrent writers.
type MandateService struct {
	store      ports.MandateStore
	generation domain.SchemaGeneration
	policy     domain.TransitionPolicy
}

func NewMandateService(store ports.MandateStore, cfg MandateConfig) *MandateService {
	gen := cfg.Generation
	if gen == 0 {
		gen = domain.GenerationV1
	}
	return &MandateService{store: store, generation: gen, policy: cfg.Policy}
}

func (s *MandateService) Generation() domain.SchemaGeneration {
	return s.generation
}

func NewMandateID() string {
	return "man_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NormalizeMandate fills the defaults Create applies: a generated mandate
// id and the pending status. Already populated fields are kept.
func NormalizeMandate(m domain.MandateNew) domain.MandateNew {
	if m.MandateID == "" {
		m.MandateID = NewMandateID()
	}
	if m.Status == "" {
		m.Status = domain.MandateStatusPending
	}
	return m
}

func (s *MandateService) Create(ctx context.Context, m domain.MandateNew) (domain.Mandate, error) {
	m = NormalizeMandate(m)
	if err := validate.Struct(m); err != nil {
		return domain.Mandate{}, fmt.Errorf("%w: %w", domain.ErrInvalidMandate, err)
	}
	if err := s.generation.ValidateCustomerID(m.CustomerID); err != nil {
		return domain.Mandate{}, err
	}
	if m.StartDate != nil && m.EndDate != nil && !m.EndDate.After(*m.StartDate) {
		return domain.Mandate{}, fmt.Errorf("%w: end_date must be after start_date", domain.ErrInvalidMandate)
	}
	if len(m.Metadata) > 0 && !json.Valid(m.Metadata) {
		return domain.Mandate{}, fmt.Errorf("%w: metadata must be valid json", domain.ErrInvalidMandate)
	}
	return s.store.Insert(ctx, m)
}

func (s *MandateService) FindByMerchantAndMandateID(ctx context.Context, merchant domain.MerchantScope, mandateID string) (domain.Mandate, error) {
	if err := requireIDs(merchant.TenantID, merchant.MerchantID, mandateID); err != nil {
		return domain.Mandate{}, err
	}
	return s.store.FindByMerchantAndMandateID(ctx, merchant, mandateID)
}

func (s *MandateService) FindByMerchantAndConnectorMandateID(ctx context.Context, merchant domain.MerchantScope, connectorMandateID string) (domain.Mandate, error) {
	if err := requireIDs(merchant.TenantID, merchant.MerchantID, connectorMandateID); err != nil {
		return domain.Mandate{}, err
	}
	return s.store.FindByMerchantAndConnectorMandateID(ctx, merchant, connectorMandateID)
}

func (s *MandateService) FindAllByMerchantAndCustomer(ctx context.Context, merchant domain.MerchantScope, customerID string) ([]domain.Mandate, error) {
	if err := requireIDs(merchant.TenantID, merchant.MerchantID, customerID); err != nil {
		return nil, err
	}
	return s.store.FindAllByMerchantAndCustomer(ctx, merchant, customerID)
}

// FindAllByGlobalCustomer lists the caller merchant's mandates for a global
// customer. The store lookup spans the tenant's merchants; rows owned by
// other merchants are never returned. Only generation 2 deployments key
// mandates by global customer.
func (s *MandateService) FindAllByGlobalCustomer(ctx context.Context, merchant domain.MerchantScope, customerID string) ([]domain.Mandate, error) {
	if !s.generation.GlobalCustomers() {
		return nil, domain.ErrGenerationUnsupported
	}
	if err := requireIDs(merchant.TenantID, merchant.MerchantID); err != nil {
		return nil, err
	}
	if err := s.generation.ValidateCustomerID(customerID); err != nil {
		return nil, err
	}
	rows, err := s.store.FindAllByGlobalCustomer(ctx, merchant.TenantID, customerID)
	if err != nil {
		return nil, err
	}
	owned := make([]domain.Mandate, 0, len(rows))
	for _, m := range rows {
		if m.TenantID == merchant.TenantID && m.MerchantID == merchant.MerchantID {
			owned = append(owned, m)
		}
	}
	return owned, nil
}

// UpdateByMerchantAndMandateID applies patch atomically and returns the
// updated mandate. It never reports success when nothing matched.
func (s *MandateService) UpdateByMerchantAndMandateID(ctx context.Context, merchant domain.MerchantScope, mandateID string, patch domain.MandateUpdate) (domain.Mandate, error) {
	if err := requireIDs(merchant.TenantID, merchant.MerchantID, mandateID); err != nil {
		return domain.Mandate{}, err
	}
	if patch.IsEmpty() {
		return domain.Mandate{}, domain.ErrEmptyPatch
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Mandate{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidMandate, *patch.Status)
	}
	if patch.ConnectorMandateID != nil && *patch.ConnectorMandateID == "" {
		return domain.Mandate{}, fmt.Errorf("%w: connector_mandate_id must not be empty", domain.ErrInvalidMandate)
	}
	if len(patch.Metadata) > 0 && !json.Valid(patch.Metadata) {
		return domain.Mandate{}, fmt.Errorf("%w: metadata must be valid json", domain.ErrInvalidMandate)
	}

	rows, err := s.store.UpdateByMerchantAndMandateID(ctx, merchant, mandateID, patch, s.guards(patch)...)
	if err != nil {
		return domain.Mandate{}, err
	}
	if len(rows) == 0 {
		return domain.Mandate{}, domain.ErrNotFound
	}
	return rows[0], nil
}

func (s *MandateService) Revoke(ctx context.Context, merchant domain.MerchantScope, mandateID string) (domain.Mandate, error) {
	return s.UpdateByMerchantAndMandateID(ctx, merchant, mandateID, domain.StatusUpdate(domain.MandateStatusRevoked))
}

// RegisterConnectorMandate records the connector's reference for a mandate and
// activates it.
func (s *MandateService) RegisterConnectorMandate(ctx context.Context, merchant domain.MerchantScope, mandateID, connector, connectorMandateID, paymentMethodID string) (domain.Mandate, error) {
	if err := requireIDs(connector, connectorMandateID); err != nil {
		return domain.Mandate{}, err
	}
	patch := domain.ConnectorMandateIDUpdate(connector, connectorMandateID, paymentMethodID, domain.MandateStatusActive)
	return s.UpdateByMerchantAndMandateID(ctx, merchant, mandateID, patch)
}

func (s *MandateService) guards(patch domain.MandateUpdate) []ports.Guard {
	var guards []ports.Guard
	if patch.ConnectorMandateID != nil {
		guards = append(guards, ports.Guard{
			Condition: domain.NullOrEq(domain.ColConnectorMandateID, *patch.ConnectorMandateID),
			Err:       fmt.Errorf("%w: connector_mandate_id already set", domain.ErrConflict),
		})
	}
	if patch.Status != nil {
		if from, constrained := s.policy.AllowedFrom(*patch.Status); constrained {
			values := make([]any, 0, len(from))
			for _, st := range from {
				values = append(values, string(st))
			}
			guards = append(guards, ports.Guard{
				Condition: domain.In(domain.ColStatus, values...),
				Err:       fmt.Errorf("%w: to %s", domain.ErrInvalidTransition, *patch.Status),
			})
		}
	}
	return guards
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: identifier must not be empty", domain.ErrInvalidMandate)
		}
	}
	return nil
}
