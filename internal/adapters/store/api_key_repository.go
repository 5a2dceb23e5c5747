package store

import (
	"context"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/adapters/gormdb"
	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"gorm.io/gorm/clause"
)

type apiKeyModel struct {
	TokenHash  string    `gorm:"column:token_hash;primaryKey"`
	TenantID   string    `gorm:"column:tenant_id;not null"`
	MerchantID string    `gorm:"column:merchant_id;not null"`
	Kind       string    `gorm:"column:kind;not null"`
	Name       string    `gorm:"column:name;not null"`
	Active     bool      `gorm:"column:active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (apiKeyModel) TableName() string {
	return "api_keys"
}

type APIKeyRepository struct {
	db *gormdb.DB
}

func NewAPIKeyRepository(db *gormdb.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) FindByTokenHash(ctx context.Context, tokenHash string) (domain.APIKey, error) {
	var model apiKeyModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("token_hash = ?", tokenHash).First(&model).Error
	})
	if err != nil {
		return domain.APIKey{}, mapReadError("find api key", err)
	}

	return domain.APIKey{
		TokenHash:  model.TokenHash,
		TenantID:   model.TenantID,
		MerchantID: model.MerchantID,
		Kind:       domain.AuthKind(model.Kind),
		Name:       model.Name,
		Active:     model.Active,
		CreatedAt:  model.CreatedAt,
	}, nil
}

func (r *APIKeyRepository) Upsert(ctx context.Context, key domain.APIKey) error {
	model := apiKeyModel{
		TokenHash:  key.TokenHash,
		TenantID:   key.TenantID,
		MerchantID: key.MerchantID,
		Kind:       string(key.Kind),
		Name:       key.Name,
		Active:     key.Active,
		CreatedAt:  key.CreatedAt,
	}

	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"tenant_id", "merchant_id", "kind", "name", "active"}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("upsert api key: %w", err)
	}
	return nil
}
