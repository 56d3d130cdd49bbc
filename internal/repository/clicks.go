package repository

import (
	"time"

	"clickguard/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type GormClickStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormClickStore(db *gorm.DB, logger *logrus.Logger) *GormClickStore {
	return &GormClickStore{db: db, logger: logger}
}

func (r *GormClickStore) Create(event *models.ClickEvent) error {
	return r.db.Create(event).Error
}

func (r *GormClickStore) ListByIPSince(ip string, since, before time.Time) ([]models.ClickEvent, error) {
	var events []models.ClickEvent
	err := r.db.
		Where("ip_address = ? AND timestamp >= ? AND timestamp < ?", ip, since, before).
		Order("timestamp ASC").
		Find(&events).Error
	return events, err
}

func (r *GormClickStore) List(fraudulentOnly bool, limit, offset int) ([]models.ClickEvent, error) {
	var events []models.ClickEvent
	q := r.db.Order("timestamp DESC").Limit(limit).Offset(offset)
	if fraudulentOnly {
		q = q.Where("is_fraudulent = ?", true)
	}
	err := q.Find(&events).Error
	return events, err
}

func (r *GormClickStore) CountSince(since time.Time) (int64, int64, error) {
	var total, fraudulent int64

	if err := r.db.Model(&models.ClickEvent{}).
		Where("timestamp >= ?", since).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}

	if err := r.db.Model(&models.ClickEvent{}).
		Where("timestamp >= ? AND is_fraudulent = ?", since, true).
		Count(&fraudulent).Error; err != nil {
		return 0, 0, err
	}

	return total, fraudulent, nil
}

// TopReasons splits the comma-joined factor lists server-side so each
// individual factor is counted, not each distinct combination.
func (r *GormClickStore) TopReasons(since time.Time, limit int) ([]models.ReasonCount, error) {
	var results []models.ReasonCount

	query := `
		SELECT trim(reason) AS reason, COUNT(*) AS count
		FROM click_events,
		     unnest(string_to_array(fraud_reason, ',')) AS reason
		WHERE timestamp >= ?
		  AND fraud_reason <> ''
		GROUP BY trim(reason)
		ORDER BY count DESC
		LIMIT ?
	`

	if err := r.db.Raw(query, since, limit).Scan(&results).Error; err != nil {
		r.logger.WithError(err).Error("Failed to aggregate fraud reasons")
		return nil, err
	}

	return results, nil
}

func (r *GormClickStore) CountByCountry(since time.Time) ([]models.CountryCount, error) {
	var results []models.CountryCount
	err := r.db.Model(&models.ClickEvent{}).
		Select("country, COUNT(*) AS count").
		Where("timestamp >= ? AND country <> ''", since).
		Group("country").
		Order("count DESC").
		Scan(&results).Error
	return results, err
}
