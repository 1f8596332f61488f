package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/ephem/internal/log"
	"github.com/chrissnell/ephem/internal/types"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// chartRecord is the gorm model behind PostgresStore
type chartRecord struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"not null"`
	TimestampUTC   string `gorm:"column:timestamp_utc;not null"`
	TimestampLocal string `gorm:"column:timestamp_local;not null"`
	Latitude       *float64
	Longitude      *float64
}

func (chartRecord) TableName() string { return "charts" }

func recordFrom(c types.SavedChart) chartRecord {
	return chartRecord{
		Name:           c.Name,
		TimestampUTC:   c.TimestampUTC,
		TimestampLocal: c.TimestampLocal,
		Latitude:       c.Latitude,
		Longitude:      c.Longitude,
	}
}

func (r chartRecord) saved() types.SavedChart {
	return types.SavedChart{
		ID:             r.ID,
		Name:           r.Name,
		TimestampUTC:   r.TimestampUTC,
		TimestampLocal: r.TimestampLocal,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
	}
}

// PostgresStore keeps charts in a shared PostgreSQL database
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to dsn and creates the charts table if needed
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Debug("connecting to PostgreSQL...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to PostgreSQL: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&chartRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate charts table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Add(ctx context.Context, c types.SavedChart) (int64, error) {
	r := recordFrom(c)
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return 0, fmt.Errorf("failed to insert chart: %w", err)
	}
	return r.ID, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (types.SavedChart, error) {
	var r chartRecord
	err := s.db.WithContext(ctx).First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.SavedChart{}, notFound(id)
	}
	if err != nil {
		return types.SavedChart{}, fmt.Errorf("failed to get chart %d: %w", id, err)
	}
	return r.saved(), nil
}

func (s *PostgresStore) List(ctx context.Context) ([]types.SavedChart, error) {
	var records []chartRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list charts: %w", err)
	}

	charts := make([]types.SavedChart, 0, len(records))
	for _, r := range records {
		charts = append(charts, r.saved())
	}
	return charts, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&chartRecord{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete chart %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
