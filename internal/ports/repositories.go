package ports

import (
	"context"

	"github.com/seu-repo/armvoice/internal/domain"
)

type CommandLogRepository interface {
	Save(ctx context.Context, entry *domain.CommandLog) error
	FindByDevice(ctx context.Context, deviceID string, limit int) ([]domain.CommandLog, error)
}
