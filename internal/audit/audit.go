package audit

import (
	"context"
	"sync"

	"github.com/harsh-haria/unified-event-analytics-engine/model"
)

var auditRepo AuditEventRepository
var initOnce sync.Once

func Initialize(repo AuditEventRepository) {
	initOnce.Do(func() {
		auditRepo = repo
	})
}

const (
	EventTypeLoginSuccess  = "login_success"
	EventTypeSignup        = "signup"
	EventTypeAppCreated    = "app_created"
	EventTypeApiKeyIssued  = "api_key_issued"
	EventTypeApiKeyRevoked = "api_key_revoked"
)

type LoginRecord struct {
	UserID    uint
	FirstTime bool
	IP        string
	UserAgent string
}

type AppRecord struct {
	UserID    uint
	AppID     uint
	AppName   string
	IP        string
	UserAgent string
}

type KeyRecord struct {
	UserID    uint
	AppID     uint
	KeyDigest string
	IP        string
	UserAgent string
}

func RecordLogin(ctx context.Context, record LoginRecord) error {
	eventType := EventTypeLoginSuccess
	if record.FirstTime {
		eventType = EventTypeSignup
	}
	return recordEvent(ctx, &model.AuditEvent{
		UserID:    record.UserID,
		EventType: eventType,
		IP:        record.IP,
		UserAgent: record.UserAgent,
	})
}

func RecordAppCreated(ctx context.Context, record AppRecord) error {
	return recordEvent(ctx, &model.AuditEvent{
		UserID:    record.UserID,
		EventType: EventTypeAppCreated,
		AppID:     record.AppID,
		Reason:    record.AppName,
		IP:        record.IP,
		UserAgent: record.UserAgent,
	})
}

func RecordKeyIssued(ctx context.Context, record KeyRecord) error {
	return recordEvent(ctx, &model.AuditEvent{
		UserID:    record.UserID,
		EventType: EventTypeApiKeyIssued,
		AppID:     record.AppID,
		KeyDigest: record.KeyDigest,
		IP:        record.IP,
		UserAgent: record.UserAgent,
	})
}

func RecordKeyRevoked(ctx context.Context, record KeyRecord) error {
	return recordEvent(ctx, &model.AuditEvent{
		UserID:    record.UserID,
		EventType: EventTypeApiKeyRevoked,
		AppID:     record.AppID,
		KeyDigest: record.KeyDigest,
		IP:        record.IP,
		UserAgent: record.UserAgent,
	})
}

func recordEvent(ctx context.Context, event *model.AuditEvent) error {
	if auditRepo == nil {
		return nil
	}
	return auditRepo.RecordEvent(ctx, event)
}
