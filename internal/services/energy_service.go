package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"homedash/internal/config"
	"homedash/internal/models"
)

type EnergyService struct {
	db     *gorm.DB
	logger *logrus.Logger
	cfg    config.EnergyConfig
}

func NewEnergyService(db *gorm.DB, logger *logrus.Logger, cfg config.EnergyConfig) *EnergyService {
	return &EnergyService{db: db, logger: logger, cfg: cfg}
}

type EnergyReadingRequest struct {
	Meter      string     `json:"meter"`
	KWh        float64    `json:"kwh"`
	RecordedAt *time.Time `json:"recorded_at"`
}

type EnergyListOptions struct {
	Meter string
	From  *time.Time
	To    *time.Time
	Limit int
}

// EnergySummary aggregates consumption over a window and prices it with
// the configured flat tariff.
type EnergySummary struct {
	Meter    string     `json:"meter,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	TotalKWh float64    `json:"total_kwh"`
	Cost     float64    `json:"cost"`
	Currency string     `json:"currency"`
	Readings int64      `json:"readings"`
}

func (s *EnergyService) Record(ctx context.Context, req *EnergyReadingRequest) (*models.EnergyReading, error) {
	reading := models.EnergyReading{
		Meter:      req.Meter,
		KWh:        req.KWh,
		RecordedAt: time.Now(),
	}
	if req.RecordedAt != nil {
		reading.RecordedAt = *req.RecordedAt
	}

	if err := s.db.WithContext(ctx).Create(&reading).Error; err != nil {
		s.logger.WithError(err).Error("Failed to record energy reading")
		return nil, err
	}
	return &reading, nil
}

func (s *EnergyService) List(ctx context.Context, opts *EnergyListOptions) ([]models.EnergyReading, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := s.rangeQuery(ctx, opts.Meter, opts.From, opts.To)

	var readings []models.EnergyReading
	if err := query.Order("recorded_at desc").Limit(limit).Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func (s *EnergyService) Summary(ctx context.Context, meter string, from, to *time.Time) (*EnergySummary, error) {
	query := s.rangeQuery(ctx, meter, from, to)

	var agg struct {
		Total float64
		Count int64
	}
	err := query.
		Select("COALESCE(SUM(kwh), 0) AS total, COUNT(*) AS count").
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	return &EnergySummary{
		Meter:    meter,
		From:     from,
		To:       to,
		TotalKWh: agg.Total,
		Cost:     agg.Total * s.cfg.PricePerKWh,
		Currency: s.cfg.Currency,
		Readings: agg.Count,
	}, nil
}

// Delete removes a mis-entered reading.
func (s *EnergyService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.EnergyReading{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReadingNotFound
	}
	return nil
}

func (s *EnergyService) rangeQuery(ctx context.Context, meter string, from, to *time.Time) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.EnergyReading{})
	if meter != "" {
		query = query.Where("meter = ?", meter)
	}
	if from != nil {
		query = query.Where("recorded_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("recorded_at <= ?", *to)
	}
	return query
}
