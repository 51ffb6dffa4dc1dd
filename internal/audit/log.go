// Package audit writes structured audit events for security-relevant actions:
// logins, role changes, payments, membership grants.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"speakeasy.club/internal/obs"
)

type ctxKey string

const (
	requestIDKey ctxKey = "audit_request_id"
	subjectKey   ctxKey = "audit_subject_id"
)

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithSubject attaches the acting subject to the context for audit logging.
func WithSubject(ctx context.Context, subjectID string) context.Context {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return ctx
	}
	return context.WithValue(ctx, subjectKey, subjectID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func subjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(subjectKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit log entry enriched with request and subject context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if subject := subjectFromContext(ctx); subject != "" {
		entry["subject_id"] = subject
	}
	if len(fields) > 0 {
		copyFields := make(map[string]any, len(fields))
		for k, v := range fields {
			copyFields[k] = v
		}
		entry["fields"] = copyFields
	} else {
		entry["fields"] = map[string]any{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}
