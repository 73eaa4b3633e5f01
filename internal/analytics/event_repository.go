package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/harsh-haria/unified-event-analytics-engine/model"
	"gorm.io/gorm"
)

// SummaryScope is the row filter both aggregate queries share. AppID scopes
// to a single application; when it is zero the scope fans out to every
// application owned by OwnerID.
type SummaryScope struct {
	Event   string
	Start   *time.Time
	End     *time.Time
	AppID   uint
	OwnerID uint
}

type DeviceCount struct {
	Device string
	Count  int64
}

type EventRepository interface {
	WithTx(tx *gorm.DB) EventRepository
	Create(ctx context.Context, event *model.Event) error
	DeviceCounts(ctx context.Context, scope SummaryScope) ([]DeviceCount, error)
	DistinctEndUsers(ctx context.Context, scope SummaryScope) (int64, error)
	CountByEndUser(ctx context.Context, endUserID string) (int64, error)
	LastByEndUser(ctx context.Context, endUserID string) (*model.Event, error)
}

type eventRepository struct {
	db *gorm.DB
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) scoped(ctx context.Context, scope SummaryScope) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Event{}).Where("event = ?", scope.Event)
	if scope.Start != nil {
		q = q.Where("timestamp >= ?", *scope.Start)
	}
	if scope.End != nil {
		q = q.Where("timestamp <= ?", *scope.End)
	}
	if scope.AppID != 0 {
		q = q.Where("app_id = ?", scope.AppID)
	} else {
		owned := r.db.Model(&model.Application{}).Select("id").Where("user_id = ?", scope.OwnerID)
		q = q.Where("app_id IN (?)", owned)
	}
	return q
}

func (r *eventRepository) DeviceCounts(ctx context.Context, scope SummaryScope) ([]DeviceCount, error) {
	var rows []DeviceCount
	err := r.scoped(ctx, scope).
		Select("device, COUNT(*) AS count").
		Group("device").
		Scan(&rows).Error
	return rows, err
}

func (r *eventRepository) DistinctEndUsers(ctx context.Context, scope SummaryScope) (int64, error) {
	var count int64
	err := r.scoped(ctx, scope).Distinct("user_id").Count(&count).Error
	return count, err
}

func (r *eventRepository) CountByEndUser(ctx context.Context, endUserID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("user_id = ?", endUserID).
		Count(&count).Error
	return count, err
}

func (r *eventRepository) LastByEndUser(ctx context.Context, endUserID string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("user_id = ?", endUserID).
		Order("timestamp DESC").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) WithTx(tx *gorm.DB) EventRepository {
	return NewEventRepository(tx)
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db}
}
