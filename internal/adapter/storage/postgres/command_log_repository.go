package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/armvoice/internal/domain"
	"github.com/seu-repo/armvoice/internal/observability/telemetry"
	"github.com/seu-repo/armvoice/internal/ports"
)

const maxListLimit = 500

type CommandLogRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCommandLogRepository(db *gorm.DB, log *zap.Logger) ports.CommandLogRepository {
	return &CommandLogRepository{
		db:  db,
		log: log,
	}
}

func (r *CommandLogRepository) Save(ctx context.Context, entry *domain.CommandLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	start := time.Now()
	err := r.db.WithContext(ctx).Create(entry).Error
	telemetry.DatabaseLatency.Observe(time.Since(start).Seconds())
	return err
}

// FindByDevice returns the newest entries first.
func (r *CommandLogRepository) FindByDevice(ctx context.Context, deviceID string, limit int) ([]domain.CommandLog, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var entries []domain.CommandLog
	start := time.Now()
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	telemetry.DatabaseLatency.Observe(time.Since(start).Seconds())
	return entries, err
}
