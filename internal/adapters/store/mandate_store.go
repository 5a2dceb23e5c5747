package store

import (
	"context"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/adapters/gormdb"
	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
	"gorm.io/datatypes"
)

type mandateModel struct {
	ID                 int64          `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID           string         `gorm:"column:tenant_id;not null"`
	MandateID          string         `gorm:"column:mandate_id;not null"`
	MerchantID         string         `gorm:"column:merchant_id;not null"`
	CustomerID         string         `gorm:"column:customer_id;not null"`
	PaymentMethodID    string         `gorm:"column:payment_method_id;not null"`
	Connector          string         `gorm:"column:connector;not null"`
	ConnectorMandateID *string        `gorm:"column:connector_mandate_id"`
	Status             string         `gorm:"column:status;not null"`
	MandateType        string         `gorm:"column:mandate_type;not null"`
	Amount             *int64         `gorm:"column:amount"`
	Currency           *string        `gorm:"column:currency"`
	AmountCaptured     *int64         `gorm:"column:amount_captured"`
	StartDate          *time.Time     `gorm:"column:start_date"`
	EndDate            *time.Time     `gorm:"column:end_date"`
	CustomerIPAddress  string         `gorm:"column:customer_ip_address;not null"`
	CustomerUserAgent  string         `gorm:"column:customer_user_agent;not null"`
	CustomerAcceptedAt *time.Time     `gorm:"column:customer_accepted_at"`
	Metadata           datatypes.JSON `gorm:"column:metadata"`
	CreatedAt          time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;not null"`
}

func (mandateModel) TableName() string {
	return "mandates"
}

// MandateStore keeps mandates in a relational table. Every lookup and update
// is driven by a domain.Predicate.
type MandateStore struct {
	db  *gormdb.DB
	now func() time.Time
}

func NewMandateStore(db *gormdb.DB) *MandateStore {
	return &MandateStore{db: db, now: time.Now}
}

var _ ports.MandateStore = (*MandateStore)(nil)

func (s *MandateStore) Insert(ctx context.Context, m domain.MandateNew) (domain.Mandate, error) {
	now := s.timestamp()
	model := mandateModel{
		TenantID:           m.TenantID,
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
		StartDate:          utcPtr(m.StartDate),
		EndDate:            utcPtr(m.EndDate),
		CustomerIPAddress:  m.CustomerIPAddress,
		CustomerUserAgent:  m.CustomerUserAgent,
		CustomerAcceptedAt: utcPtr(m.CustomerAcceptedAt),
		Metadata:           datatypes.JSON(m.Metadata),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Mandate{}, mapWriteError("insert mandate", err)
	}
	return toMandate(model), nil
}

func (s *MandateStore) FindByMerchantAndMandateID(ctx context.Context, merchant domain.MerchantScope, mandateID string) (domain.Mandate, error) {
	return s.findOne(ctx, domain.ByMerchantAndMandateID(merchant, mandateID))
}

func (s *MandateStore) FindByMerchantAndConnectorMandateID(ctx context.Context, merchant domain.MerchantScope, connectorMandateID string) (domain.Mandate, error) {
	return s.findOne(ctx, domain.ByMerchantAndConnectorMandateID(merchant, connectorMandateID))
}

func (s *MandateStore) FindAllByMerchantAndCustomer(ctx context.Context, merchant domain.MerchantScope, customerID string) ([]domain.Mandate, error) {
	return s.findMany(ctx, domain.ByMerchantAndCustomer(merchant, customerID))
}

func (s *MandateStore) FindAllByGlobalCustomer(ctx context.Context, tenantID, customerID string) ([]domain.Mandate, error) {
	return s.findMany(ctx, domain.ByGlobalCustomer(tenantID, customerID))
}

func (s *MandateStore) UpdateByMerchantAndMandateID(ctx context.Context, merchant domain.MerchantScope, mandateID string, patch domain.MandateUpdate, guards ...ports.Guard) ([]domain.Mandate, error) {
	return s.updateWhere(ctx, domain.ByMerchantAndMandateID(merchant, mandateID), guards, patch)
}

func (s *MandateStore) findOne(ctx context.Context, where domain.Predicate) (domain.Mandate, error) {
	if err := where.Validate(); err != nil {
		return domain.Mandate{}, err
	}
	clause, args := where.SQL()

	var model mandateModel
	err := s.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where(clause, args...).First(&model).Error
	})
	if err != nil {
		return domain.Mandate{}, mapReadError("find mandate", err)
	}
	return toMandate(model), nil
}

func (s *MandateStore) findMany(ctx context.Context, where domain.Predicate) ([]domain.Mandate, error) {
	if err := where.Validate(); err != nil {
		return nil, err
	}
	clause, args := where.SQL()

	var models []mandateModel
	err := s.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where(clause, args...).Order("id ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list mandates: %w", err)
	}
	return toMandates(models), nil
}

// updateWhere runs the guarded update and the read-back in one write
// transaction. When nothing matched it distinguishes a missing row from a
// row that failed a guard.
func (s *MandateStore) updateWhere(ctx context.Context, where domain.Predicate, guards []ports.Guard, patch domain.MandateUpdate) ([]domain.Mandate, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrEmptyPatch
	}
	full := where
	for _, g := range guards {
		full = full.And(g.Condition)
	}
	if err := full.Validate(); err != nil {
		return nil, err
	}
	updates := patchColumns(patch, s.timestamp())

	var models []mandateModel
	err := s.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		clause, args := full.SQL()
		res := tx.Model(&mandateModel{}).Where(clause, args...).Updates(updates)
		if res.Error != nil {
			return mapWriteError("update mandate", res.Error)
		}
		if res.RowsAffected == 0 {
			return classifyMiss(tx, where, guards)
		}
		baseClause, baseArgs := where.SQL()
		if err := tx.Where(baseClause, baseArgs...).Order("id ASC").Find(&models).Error; err != nil {
			return fmt.Errorf("reload mandate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toMandates(models), nil
}

func classifyMiss(tx *gormdb.Tx, where domain.Predicate, guards []ports.Guard) error {
	exists, err := countWhere(tx, where)
	if err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrNotFound
	}
	for _, g := range guards {
		n, err := countWhere(tx, where.And(g.Condition))
		if err != nil {
			return err
		}
		if n == 0 {
			if g.Err != nil {
				return g.Err
			}
			return domain.ErrConflict
		}
	}
	return fmt.Errorf("mandate changed concurrently: %w", domain.ErrConflict)
}

func countWhere(tx *gormdb.Tx, where domain.Predicate) (int64, error) {
	clause, args := where.SQL()
	var n int64
	if err := tx.Model(&mandateModel{}).Where(clause, args...).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count mandates: %w", err)
	}
	return n, nil
}

func patchColumns(patch domain.MandateUpdate, now time.Time) map[string]any {
	updates := map[string]any{"updated_at": now}
	if patch.Status != nil {
		updates[string(domain.ColStatus)] = string(*patch.Status)
	}
	if patch.ConnectorMandateID != nil {
		updates[string(domain.ColConnectorMandateID)] = *patch.ConnectorMandateID
	}
	if patch.Connector != nil {
		updates["connector"] = *patch.Connector
	}
	if patch.PaymentMethodID != nil {
		updates["payment_method_id"] = *patch.PaymentMethodID
	}
	if patch.AmountCaptured != nil {
		updates["amount_captured"] = *patch.AmountCaptured
	}
	if patch.EndDate != nil {
		updates["end_date"] = patch.EndDate.UTC()
	}
	if len(patch.Metadata) > 0 {
		updates["metadata"] = datatypes.JSON(patch.Metadata)
	}
	return updates
}

func (s *MandateStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func toMandates(models []mandateModel) []domain.Mandate {
	out := make([]domain.Mandate, 0, len(models))
	for _, m := range models {
		out = append(out, toMandate(m))
	}
	return out
}

func toMandate(m mandateModel) domain.Mandate {
	var metadata []byte
	if len(m.Metadata) > 0 {
		metadata = append([]byte(nil), m.Metadata...)
	}
	return domain.Mandate{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		MandateID:          m.MandateID,
		MerchantID:         m.MerchantID,
		CustomerID:         m.CustomerID,
		PaymentMethodID:    m.PaymentMethodID,
		Connector:          m.Connector,
		ConnectorMandateID: m.ConnectorMandateID,
		Status:             domain.MandateStatus(m.Status),
		MandateType:        domain.MandateType(m.MandateType),
		Amount:             m.Amount,
		Currency:           m.Currency,
		AmountCaptured:     m.AmountCaptured,
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
		CustomerIPAddress:  m.CustomerIPAddress,
		CustomerUserAgent:  m.CustomerUserAgent,
		CustomerAcceptedAt: m.CustomerAcceptedAt,
		Metadata:           metadata,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
