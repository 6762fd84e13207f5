package dispatch

import (
	"context"
	"time"

	"github.com/cajabot/cajabot/internal/command"
)

// PermissionDecision is the permission validator's answer for one operation.
type PermissionDecision struct {
	Allowed          bool
	RequiresApproval bool
	ApproverRole     string
	Reason           string
}

// PermissionValidator is consulted before any non-read-only operation runs.
// Implemented externally; the dispatcher only consumes the decision.
type PermissionValidator interface {
	Validate(ctx context.Context, identity string, category command.Category, params map[string]string) (PermissionDecision, error)
}

// AuditEvent records one state-changing attempt, success or failure.
type AuditEvent struct {
	ID        string
	CallerID  string
	Operation string
	Outcome   string
	Detail    string
	At        time.Time
}

// AuditRecorder receives audit events fire-and-forget: the dispatcher never
// blocks or fails on audit delivery.
type AuditRecorder interface {
	Record(event AuditEvent)
}

// NotificationSink delivers messages relevant to another party, e.g. approval
// requests or transfer completions.
type NotificationSink interface {
	Notify(targetIdentity, message string)
}

// AllowAll is the default permission validator: everything allowed, nothing
// queued for approval.
type AllowAll struct{}

func (AllowAll) Validate(context.Context, string, command.Category, map[string]string) (PermissionDecision, error) {
	return PermissionDecision{Allowed: true}, nil
}

// NopAudit drops audit events.
type NopAudit struct{}

func (NopAudit) Record(AuditEvent) {}

// NopNotifier drops notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(string, string) {}
