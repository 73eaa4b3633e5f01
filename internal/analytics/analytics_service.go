package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/harsh-haria/unified-event-analytics-engine/model"
)

type SubmitEventInput struct {
	Event     string
	URL       string
	Referrer  string
	Device    string
	IPAddress string
	Timestamp time.Time
	Metadata  string // serialized JSON object
	EndUserID string
	AppID     uint // resolved from the credential, never from the request body
}

type Summary struct {
	Event       string           `json:"event"`
	Count       int64            `json:"count"`
	UniqueUsers int64            `json:"uniqueUsers"`
	DeviceData  map[string]int64 `json:"deviceData"`
}

type UserStats struct {
	UserID        string `json:"userId"`
	TotalEvents   int64  `json:"totalEvents"`
	DeviceDetails any    `json:"deviceDetails"`
	IPAddress     string `json:"ipAddress"`
}

type AnalyticsService struct {
	eventRepo EventRepository
}

func NewAnalyticsService(eventRepo EventRepository) *AnalyticsService {
	return &AnalyticsService{eventRepo: eventRepo}
}

// SubmitEvent persists one event row. Purely additive: no dedup, no updates.
// The timestamp is normalized to UTC at second resolution before storage.
func (s *AnalyticsService) SubmitEvent(ctx context.Context, input SubmitEventInput) error {
	return s.eventRepo.Create(ctx, &model.Event{
		Event:     input.Event,
		URL:       input.URL,
		Referrer:  input.Referrer,
		Device:    input.Device,
		IPAddress: input.IPAddress,
		Timestamp: input.Timestamp.UTC().Truncate(time.Second),
		Metadata:  input.Metadata,
		UserID:    input.EndUserID,
		AppID:     input.AppID,
	})
}

// EventSummary aggregates events named eventName within the optional
// [start, end] bounds. A non-zero appID scopes the summary to that one
// application (the caller must have passed an ownership check for it);
// otherwise the scope is every application owned by ownerID.
//
// Count is derived by summing the device groups so it can never disagree
// with DeviceData.
func (s *AnalyticsService) EventSummary(ctx context.Context, eventName string, start, end *time.Time, appID uint, ownerID uint) (*Summary, error) {
	scope := SummaryScope{
		Event:   eventName,
		Start:   start,
		End:     end,
		AppID:   appID,
		OwnerID: ownerID,
	}

	uniqueUsers, err := s.eventRepo.DistinctEndUsers(ctx, scope)
	if err != nil {
		return nil, err
	}

	rows, err := s.eventRepo.DeviceCounts(ctx, scope)
	if err != nil {
		return nil, err
	}

	summary := Summary{
		Event:       eventName,
		UniqueUsers: uniqueUsers,
		DeviceData:  make(map[string]int64, len(rows)),
	}
	for _, row := range rows {
		summary.Count += row.Count
		summary.DeviceData[row.Device] = row.Count
	}
	return &summary, nil
}

// GetUserStats reports per-end-user usage. An end user with no events yields
// a zeroed record, not an error. Device details come from the most recent
// event's metadata; when that is not valid JSON the raw stored value is
// returned instead.
func (s *AnalyticsService) GetUserStats(ctx context.Context, endUserID string) (*UserStats, error) {
	total, err := s.eventRepo.CountByEndUser(ctx, endUserID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &UserStats{
			UserID:        endUserID,
			DeviceDetails: map[string]any{},
		}, nil
	}

	last, err := s.eventRepo.LastByEndUser(ctx, endUserID)
	if err != nil {
		return nil, err
	}
	stats := UserStats{
		UserID:      endUserID,
		TotalEvents: total,
	}
	if last == nil {
		stats.DeviceDetails = map[string]any{}
		return &stats, nil
	}

	var details map[string]any
	if err := json.Unmarshal([]byte(last.Metadata), &details); err != nil {
		stats.DeviceDetails = last.Metadata
	} else {
		stats.DeviceDetails = details
	}
	stats.IPAddress = last.IPAddress
	return &stats, nil
}
