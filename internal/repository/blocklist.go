package repository

import (
	"errors"

	"clickguard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormBlockStore struct {
	db *gorm.DB
}

func NewGormBlockStore(db *gorm.DB) *GormBlockStore {
	return &GormBlockStore{db: db}
}

// Upsert inserts the block row or, when the IP already exists, refreshes
// the fraud fields and reactivates it. Last writer wins; concurrent
// blocks of the same IP both succeed.
func (r *GormBlockStore) Upsert(block *models.BlockedIP) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ip_address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"reason", "risk_score", "is_vpn", "is_proxy",
			"country", "city", "user_agent", "notes",
			"is_active", "last_click_at", "updated_at",
		}),
	}).Create(block).Error
}

func (r *GormBlockStore) FindActive(ip string) (*models.BlockedIP, error) {
	var block models.BlockedIP
	err := r.db.Where("ip_address = ? AND is_active = ?", ip, true).First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *GormBlockStore) Deactivate(ip string) (bool, error) {
	result := r.db.Model(&models.BlockedIP{}).
		Where("ip_address = ?", ip).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormBlockStore) ListActive(limit, offset int) ([]models.BlockedIP, error) {
	var blocks []models.BlockedIP
	err := r.db.Where("is_active = ?", true).
		Order("blocked_at DESC").
		Limit(limit).Offset(offset).
		Find(&blocks).Error
	return blocks, err
}

func (r *GormBlockStore) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.BlockedIP{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}
