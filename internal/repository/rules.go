package repository

import (
	"errors"

	"clickguard/internal/models"

	"gorm.io/gorm"
)

type GormRuleStore struct {
	db *gorm.DB
}

func NewGormRuleStore(db *gorm.DB) *GormRuleStore {
	return &GormRuleStore{db: db}
}

func (r *GormRuleStore) SeedDefaults(rules []models.FraudDetectionRule) (int, error) {
	created := 0
	for i := range rules {
		var count int64
		if err := r.db.Model(&models.FraudDetectionRule{}).
			Where("name = ?", rules[i].Name).
			Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}
		if err := r.db.Create(&rules[i]).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (r *GormRuleStore) List() ([]models.FraudDetectionRule, error) {
	var rules []models.FraudDetectionRule
	err := r.db.Order("id ASC").Find(&rules).Error
	return rules, err
}

func (r *GormRuleStore) Update(id uint, req models.RuleUpdateRequest) (*models.FraudDetectionRule, error) {
	var rule models.FraudDetectionRule
	err := r.db.First(&rule, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	applyRuleUpdate(&rule, req)

	if err := r.db.Save(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func applyRuleUpdate(rule *models.FraudDetectionRule, req models.RuleUpdateRequest) {
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.Conditions != nil {
		rule.Conditions = *req.Conditions
	}
	if req.Action != nil {
		rule.Action = *req.Action
	}
	if req.Severity != nil {
		rule.Severity = *req.Severity
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
}
