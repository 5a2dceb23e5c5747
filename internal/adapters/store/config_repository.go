package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/adapters/gormdb"
	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
)

type configModel struct {
	TenantID  string    `gorm:"column:tenant_id;primaryKey"`
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (configModel) TableName() string {
	return "config_entries"
}

type ConfigRepository struct {
	db *gormdb.DB
}

func NewConfigRepository(db *gormdb.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) Insert(ctx context.Context, entry domain.ConfigEntry) (domain.ConfigEntry, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	model := configModel{
		TenantID:  entry.TenantID,
		Key:       entry.Key,
		Value:     string(entry.Value),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.ConfigEntry{}, mapWriteError("insert config", err)
	}
	return toConfigEntry(model), nil
}

func (r *ConfigRepository) Update(ctx context.Context, entry domain.ConfigEntry) (domain.ConfigEntry, error) {
	var model configModel
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		res := tx.Model(&configModel{}).
			Where("tenant_id = ? AND key = ?", entry.TenantID, entry.Key).
			Updates(map[string]any{
				"value":      string(entry.Value),
				"updated_at": time.Now().UTC().Truncate(time.Microsecond),
			})
		if res.Error != nil {
			return fmt.Errorf("update config: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return tx.Where("tenant_id = ? AND key = ?", entry.TenantID, entry.Key).First(&model).Error
	})
	if err != nil {
		return domain.ConfigEntry{}, mapReadError("reload config", err)
	}
	return toConfigEntry(model), nil
}

func (r *ConfigRepository) Get(ctx context.Context, tenantID, key string) (domain.ConfigEntry, error) {
	var model configModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("tenant_id = ? AND key = ?", tenantID, key).First(&model).Error
	})
	if err != nil {
		return domain.ConfigEntry{}, mapReadError("get config", err)
	}
	return toConfigEntry(model), nil
}

func (r *ConfigRepository) Delete(ctx context.Context, tenantID, key string) (bool, error) {
	var affected int64
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		res := tx.Where("tenant_id = ? AND key = ?", tenantID, key).Delete(&configModel{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("delete config: %w", err)
	}
	return affected > 0, nil
}

func toConfigEntry(model configModel) domain.ConfigEntry {
	return domain.ConfigEntry{
		TenantID:  model.TenantID,
		Key:       model.Key,
		Value:     json.RawMessage(model.Value),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
