package repository

import (
	"clickguard/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type GormExclusionStore struct {
	db *gorm.DB
}

func NewGormExclusionStore(db *gorm.DB) *GormExclusionStore {
	return &GormExclusionStore{db: db}
}

func (r *GormExclusionStore) CreateBatch(exclusions []models.GoogleAdsExclusion) error {
	if len(exclusions) == 0 {
		return nil
	}
	return r.db.Create(&exclusions).Error
}

func (r *GormExclusionStore) List(limit, offset int) ([]models.GoogleAdsExclusion, error) {
	var exclusions []models.GoogleAdsExclusion
	err := r.db.Order("excluded_at DESC").
		Limit(limit).Offset(offset).
		Find(&exclusions).Error
	return exclusions, err
}

// NewGormStore wires the four gorm-backed stores into one Store.
func NewGormStore(db *gorm.DB, logger *logrus.Logger) Store {
	return Store{
		Clicks:     NewGormClickStore(db, logger),
		Blocks:     NewGormBlockStore(db),
		Rules:      NewGormRuleStore(db),
		Exclusions: NewGormExclusionStore(db),
	}
}
