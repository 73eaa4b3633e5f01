package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/harsh-haria/unified-event-analytics-engine/params"
	"github.com/valyala/bytebufferpool"
)

// timestamp layouts accepted on ingest, tried in order
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// date layouts accepted on summary queries
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
}

func fieldError(field string, format string, args ...any) APIErrorDetail {
	return APIErrorDetail{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func validateURLField(field, display, value string, required bool, errs *[]APIErrorDetail) {
	if value == "" {
		if required {
			*errs = append(*errs, fieldError(field, "%s is required", display))
		}
		return
	}
	if len(value) > params.MaxURLLength {
		*errs = append(*errs, fieldError(field, "%s must be at max %d characters long", display, params.MaxURLLength))
		return
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		*errs = append(*errs, fieldError(field, "%s must be a valid URL", display))
	}
}

func parseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// validateCollectRequest checks an ingest payload field by field. It returns
// the full error list rather than stopping at the first failure, plus the
// parsed timestamp and the serialized metadata.
func validateCollectRequest(req *collectRequest) ([]APIErrorDetail, time.Time, string) {
	var errs []APIErrorDetail

	if req.Event == "" {
		errs = append(errs, fieldError("event", "Event is required"))
	} else if len(req.Event) > params.MaxEventNameLength {
		errs = append(errs, fieldError("event", "Event must be at max %d characters long", params.MaxEventNameLength))
	}

	validateURLField("url", "URL", req.URL, true, &errs)
	validateURLField("referrer", "Referrer", req.Referrer, false, &errs)

	if req.Device == "" {
		errs = append(errs, fieldError("device", "Device is required"))
	} else if len(req.Device) > params.MaxDeviceLength {
		errs = append(errs, fieldError("device", "Device must be at max %d characters long", params.MaxDeviceLength))
	}

	if req.IPAddress == "" {
		errs = append(errs, fieldError("ipAddress", "IP Address is required"))
	} else if len(req.IPAddress) > params.MaxIPAddressLength {
		errs = append(errs, fieldError("ipAddress", "IP Address must be at max %d characters long", params.MaxIPAddressLength))
	}

	var timestamp time.Time
	if req.Timestamp == "" {
		errs = append(errs, fieldError("timestamp", "Timestamp is required"))
	} else {
		var err error
		timestamp, err = parseTimestamp(req.Timestamp)
		if err != nil {
			errs = append(errs, fieldError("timestamp", "Timestamp must be a valid ISO 8601 date string"))
		}
	}

	var metadata string
	if req.Metadata == nil {
		errs = append(errs, fieldError("metadata", "Metadata is required"))
	} else {
		for _, field := range []string{"browser", "os", "screenSize"} {
			if val, ok := req.Metadata[field]; ok {
				if _, isString := val.(string); !isString {
					errs = append(errs, fieldError("metadata."+field, "metadata.%s must be a string", field))
				}
			}
		}
		metadata = serializeMetadata(req.Metadata)
		if len(metadata) > params.MaxMetadataSize {
			errs = append(errs, fieldError("metadata", "Metadata must be at max %d characters long", params.MaxMetadataSize))
		}
	}

	if req.UserID == "" {
		errs = append(errs, fieldError("user_id", "User ID is required"))
	} else if len(req.UserID) > params.MaxEndUserIDLength {
		errs = append(errs, fieldError("user_id", "User ID must be at max %d characters long", params.MaxEndUserIDLength))
	}

	return errs, timestamp, metadata
}

func serializeMetadata(metadata map[string]any) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := json.NewEncoder(buf).Encode(metadata); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}
