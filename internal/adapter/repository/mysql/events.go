package mysql

import (
	"context"

	"gorm.io/gorm"

	eventDomain "nftlend-backend/internal/domain/event"
)

type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

func (r *EventRepository) Append(ctx context.Context, e *eventDomain.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ListByType returns events of one type in insertion order, for external
// consumers polling the log.
func (r *EventRepository) ListByType(ctx context.Context, eventType string) ([]eventDomain.Event, error) {
	var out []eventDomain.Event
	res := r.db.WithContext(ctx).
		Where("type = ?", eventType).
		Order("recorded_at ASC").
		Find(&out)
	return out, res.Error
}
