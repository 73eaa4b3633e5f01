package analytics

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/harsh-haria/unified-event-analytics-engine/model"
	"gorm.io/gorm"
)

// fakeEventRepository evaluates SummaryScope against an in-memory event slice
// the same way the real queries filter rows: by event name, optional time
// bounds, and either one app id or every app of the owner.
type fakeEventRepository struct {
	events    []*model.Event
	apps      map[uint]uint // app id -> owner id
	lastScope SummaryScope
}

func (r *fakeEventRepository) WithTx(tx *gorm.DB) EventRepository { return r }

func (r *fakeEventRepository) Create(ctx context.Context, event *model.Event) error {
	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

func (r *fakeEventRepository) inScope(event *model.Event, scope SummaryScope) bool {
	if event.Event != scope.Event {
		return false
	}
	if scope.Start != nil && event.Timestamp.Before(*scope.Start) {
		return false
	}
	if scope.End != nil && event.Timestamp.After(*scope.End) {
		return false
	}
	if scope.AppID != 0 {
		return event.AppID == scope.AppID
	}
	return r.apps[event.AppID] == scope.OwnerID
}

func (r *fakeEventRepository) DeviceCounts(ctx context.Context, scope SummaryScope) ([]DeviceCount, error) {
	r.lastScope = scope
	counts := make(map[string]int64)
	for _, event := range r.events {
		if r.inScope(event, scope) {
			counts[event.Device]++
		}
	}
	rows := make([]DeviceCount, 0, len(counts))
	for device, count := range counts {
		rows = append(rows, DeviceCount{Device: device, Count: count})
	}
	return rows, nil
}

func (r *fakeEventRepository) DistinctEndUsers(ctx context.Context, scope SummaryScope) (int64, error) {
	seen := make(map[string]bool)
	for _, event := range r.events {
		if r.inScope(event, scope) {
			seen[event.UserID] = true
		}
	}
	return int64(len(seen)), nil
}

func (r *fakeEventRepository) CountByEndUser(ctx context.Context, endUserID string) (int64, error) {
	var count int64
	for _, event := range r.events {
		if event.UserID == endUserID {
			count++
		}
	}
	return count, nil
}

func (r *fakeEventRepository) LastByEndUser(ctx context.Context, endUserID string) (*model.Event, error) {
	var last *model.Event
	for _, event := range r.events {
		if event.UserID != endUserID {
			continue
		}
		if last == nil || event.Timestamp.After(last.Timestamp) {
			last = event
		}
	}
	return last, nil
}

func (r *fakeEventRepository) seed(appID uint, name, device, endUser string, ts time.Time) {
	r.events = append(r.events, &model.Event{
		Event:     name,
		Device:    device,
		UserID:    endUser,
		AppID:     appID,
		Timestamp: ts,
	})
}

func TestSubmitEvent_NormalizesTimestamp(t *testing.T) {
	repo := &fakeEventRepository{}
	service := NewAnalyticsService(repo)

	loc := time.FixedZone("IST", 5*3600+1800)
	input := SubmitEventInput{
		Event:     "login_form_cta_click",
		URL:       "https://example.com",
		Device:    "mobile",
		IPAddress: "203.0.113.10",
		Timestamp: time.Date(2024, 2, 20, 18, 30, 0, 123456789, loc),
		Metadata:  `{"browser":"Chrome"}`,
		EndUserID: "user789",
		AppID:     42,
	}
	if err := service.SubmitEvent(context.Background(), input); err != nil {
		t.Fatalf("SubmitEvent failed: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("Stored %d events, want 1", len(repo.events))
	}
	stored := repo.events[0]

	want := time.Date(2024, 2, 20, 13, 0, 0, 0, time.UTC)
	if !stored.Timestamp.Equal(want) {
		t.Errorf("Stored timestamp %v, want %v", stored.Timestamp, want)
	}
	if stored.Timestamp.Location() != time.UTC {
		t.Errorf("Stored timestamp is in %v, want UTC", stored.Timestamp.Location())
	}
	if stored.AppID != 42 {
		t.Errorf("Stored app id %d, want 42", stored.AppID)
	}
}

func TestEventSummary_CountMatchesDeviceData(t *testing.T) {
	repo := &fakeEventRepository{apps: map[uint]uint{10: 7}}
	now := time.Now().UTC()
	repo.seed(10, "login_form_cta_click", "mobile", "u1", now)
	repo.seed(10, "login_form_cta_click", "mobile", "u2", now)
	repo.seed(10, "login_form_cta_click", "mobile", "u1", now)
	repo.seed(10, "login_form_cta_click", "desktop", "u3", now)
	repo.seed(10, "login_form_cta_click", "desktop", "u3", now)
	repo.seed(10, "other_event", "tablet", "u4", now)
	service := NewAnalyticsService(repo)

	summary, err := service.EventSummary(context.Background(), "login_form_cta_click", nil, nil, 0, 7)
	if err != nil {
		t.Fatalf("EventSummary failed: %v", err)
	}

	if summary.Event != "login_form_cta_click" {
		t.Errorf("Event is %q", summary.Event)
	}
	if summary.Count != 5 {
		t.Errorf("Count is %d, want the device totals summed to 5", summary.Count)
	}
	if summary.UniqueUsers != 3 {
		t.Errorf("UniqueUsers is %d, want 3", summary.UniqueUsers)
	}
	wantDevices := map[string]int64{"mobile": 3, "desktop": 2}
	if !reflect.DeepEqual(summary.DeviceData, wantDevices) {
		t.Errorf("DeviceData is %v, want %v", summary.DeviceData, wantDevices)
	}
}

func TestEventSummary_FanOutEqualsPerAppSums(t *testing.T) {
	repo := &fakeEventRepository{apps: map[uint]uint{10: 7, 11: 7, 20: 2}}
	now := time.Now().UTC()
	repo.seed(10, "click", "mobile", "a1", now)
	repo.seed(10, "click", "mobile", "a2", now)
	repo.seed(11, "click", "desktop", "b1", now)
	repo.seed(11, "click", "desktop", "b2", now)
	repo.seed(11, "click", "desktop", "b1", now)
	repo.seed(11, "click", "mobile", "b2", now)
	repo.seed(20, "click", "tablet", "c1", now) // another owner's app
	service := NewAnalyticsService(repo)
	ctx := context.Background()

	perApp := make(map[uint]*Summary)
	for _, appID := range []uint{10, 11} {
		summary, err := service.EventSummary(ctx, "click", nil, nil, appID, 7)
		if err != nil {
			t.Fatalf("EventSummary for app %d failed: %v", appID, err)
		}
		perApp[appID] = summary
	}

	fanOut, err := service.EventSummary(ctx, "click", nil, nil, 0, 7)
	if err != nil {
		t.Fatalf("Fan-out EventSummary failed: %v", err)
	}

	var wantCount, wantUnique int64
	wantDevices := make(map[string]int64)
	for _, summary := range perApp {
		wantCount += summary.Count
		wantUnique += summary.UniqueUsers
		for device, count := range summary.DeviceData {
			wantDevices[device] += count
		}
	}

	if fanOut.Count != wantCount {
		t.Errorf("Fan-out count is %d, want the per-app sum %d", fanOut.Count, wantCount)
	}
	// end-user sets per app are disjoint here, so unique users add up too
	if fanOut.UniqueUsers != wantUnique {
		t.Errorf("Fan-out unique users is %d, want the per-app sum %d", fanOut.UniqueUsers, wantUnique)
	}
	if !reflect.DeepEqual(fanOut.DeviceData, wantDevices) {
		t.Errorf("Fan-out device data is %v, want the per-app merge %v", fanOut.DeviceData, wantDevices)
	}
	if _, ok := fanOut.DeviceData["tablet"]; ok {
		t.Error("Fan-out included another owner's events")
	}
}

func TestEventSummary_TimeBounds(t *testing.T) {
	repo := &fakeEventRepository{apps: map[uint]uint{10: 7}}
	repo.seed(10, "click", "mobile", "u1", time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC))
	repo.seed(10, "click", "mobile", "u2", time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC))
	repo.seed(10, "click", "mobile", "u3", time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC))
	service := NewAnalyticsService(repo)

	start := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 18, 0, 0, 0, 0, time.UTC)
	summary, err := service.EventSummary(context.Background(), "click", &start, &end, 0, 7)
	if err != nil {
		t.Fatalf("EventSummary failed: %v", err)
	}
	if summary.Count != 1 {
		t.Errorf("Count is %d, want only the event inside [start, end]", summary.Count)
	}

	// start-only bound applies independently
	summary, err = service.EventSummary(context.Background(), "click", &start, nil, 0, 7)
	if err != nil {
		t.Fatalf("EventSummary failed: %v", err)
	}
	if summary.Count != 2 {
		t.Errorf("Count is %d with a start bound only, want 2", summary.Count)
	}
}

func TestEventSummary_Scope(t *testing.T) {
	repo := &fakeEventRepository{apps: map[uint]uint{12: 7}}
	service := NewAnalyticsService(repo)
	ctx := context.Background()

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)

	if _, err := service.EventSummary(ctx, "click", &start, &end, 12, 7); err != nil {
		t.Fatalf("EventSummary failed: %v", err)
	}
	if repo.lastScope.AppID != 12 || repo.lastScope.OwnerID != 7 {
		t.Errorf("Scope is %+v, want app 12 under owner 7", repo.lastScope)
	}
	if repo.lastScope.Start == nil || !repo.lastScope.Start.Equal(start) {
		t.Errorf("Scope start is %v, want %v", repo.lastScope.Start, start)
	}
	if repo.lastScope.End == nil || !repo.lastScope.End.Equal(end) {
		t.Errorf("Scope end is %v, want %v", repo.lastScope.End, end)
	}

	// no app id: fan out across the owner's applications
	if _, err := service.EventSummary(ctx, "click", nil, nil, 0, 7); err != nil {
		t.Fatalf("EventSummary failed: %v", err)
	}
	if repo.lastScope.AppID != 0 || repo.lastScope.OwnerID != 7 {
		t.Errorf("Scope is %+v, want owner-wide fan-out", repo.lastScope)
	}
}

func TestEventSummary_NoEvents(t *testing.T) {
	service := NewAnalyticsService(&fakeEventRepository{})

	summary, err := service.EventSummary(context.Background(), "never_fired", nil, nil, 0, 7)
	if err != nil {
		t.Fatalf("EventSummary failed: %v", err)
	}
	if summary.Count != 0 || summary.UniqueUsers != 0 {
		t.Errorf("Summary is %+v, want zero counts", summary)
	}
	if len(summary.DeviceData) != 0 {
		t.Errorf("DeviceData is %v, want empty", summary.DeviceData)
	}
}

func TestGetUserStats(t *testing.T) {
	repo := &fakeEventRepository{}
	service := NewAnalyticsService(repo)
	ctx := context.Background()

	base := time.Date(2024, 2, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		repo.events = append(repo.events, &model.Event{
			UserID:    "user789",
			IPAddress: "203.0.113.10",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Metadata:  `{"browser":"Chrome","os":"Android"}`,
		})
	}
	repo.events[2].Metadata = `{"browser":"Firefox","os":"Linux"}`
	repo.events[2].IPAddress = "198.51.100.2"

	stats, err := service.GetUserStats(ctx, "user789")
	if err != nil {
		t.Fatalf("GetUserStats failed: %v", err)
	}
	if stats.TotalEvents != 3 {
		t.Errorf("TotalEvents is %d, want 3", stats.TotalEvents)
	}
	if stats.IPAddress != "198.51.100.2" {
		t.Errorf("IPAddress is %q, want the most recent event's", stats.IPAddress)
	}
	details, ok := stats.DeviceDetails.(map[string]any)
	if !ok {
		t.Fatalf("DeviceDetails is %T, want a decoded object", stats.DeviceDetails)
	}
	if details["browser"] != "Firefox" {
		t.Errorf("DeviceDetails browser is %v, want the most recent event's", details["browser"])
	}
}

func TestGetUserStats_NoEvents(t *testing.T) {
	service := NewAnalyticsService(&fakeEventRepository{})

	stats, err := service.GetUserStats(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("GetUserStats failed: %v", err)
	}
	if stats.UserID != "ghost" {
		t.Errorf("UserID is %q, want %q", stats.UserID, "ghost")
	}
	if stats.TotalEvents != 0 {
		t.Errorf("TotalEvents is %d, want 0", stats.TotalEvents)
	}
	details, ok := stats.DeviceDetails.(map[string]any)
	if !ok || len(details) != 0 {
		t.Errorf("DeviceDetails is %v, want an empty object", stats.DeviceDetails)
	}
}

func TestGetUserStats_MalformedMetadata(t *testing.T) {
	repo := &fakeEventRepository{
		events: []*model.Event{{
			UserID:    "user789",
			IPAddress: "203.0.113.10",
			Timestamp: time.Now(),
			Metadata:  "not json at all",
		}},
	}
	service := NewAnalyticsService(repo)

	stats, err := service.GetUserStats(context.Background(), "user789")
	if err != nil {
		t.Fatalf("GetUserStats failed: %v", err)
	}
	raw, ok := stats.DeviceDetails.(string)
	if !ok {
		t.Fatalf("DeviceDetails is %T, want the raw stored string", stats.DeviceDetails)
	}
	if raw != "not json at all" {
		t.Errorf("DeviceDetails is %q, want the stored value verbatim", raw)
	}
}
