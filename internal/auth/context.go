package auth

import "context"

type contextKey string

const (
	contextKeyStation contextKey = "auth.station_id"
	contextKeyRole    contextKey = "auth.role"
	contextKeySubject contextKey = "auth.subject"
)

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, stationID string, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, contextKeyStation, stationID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	ctx = context.WithValue(ctx, contextKeySubject, subject)
	return ctx
}

// StationIDFromContext extracts station id from context.
func StationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if stationID, ok := ctx.Value(contextKeyStation).(string); ok {
		return stationID
	}
	return ""
}

// RoleFromContext extracts role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}

// SubjectFromContext extracts the staff id of the caller from context.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if subject, ok := ctx.Value(contextKeySubject).(string); ok {
		return subject
	}
	return ""
}
