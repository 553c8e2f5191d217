package goGate

import (
	"context"
	"errors"
)

const (
	auditEventSessionCreated        = "session_created"
	auditEventSessionEnded          = "session_ended"
	auditEventSessionExpired        = "session_expired"
	auditEventSessionLimitExceeded  = "session_limit_exceeded"
	auditEventFlowStarted           = "flow_started"
	auditEventLinkOpened            = "link_opened"
	auditEventForegroundLost        = "foreground_lost"
	auditEventVerifyRejected        = "verify_rejected"
	auditEventCheckpointVerified    = "checkpoint_verified"
	auditEventKeyIssued             = "key_issued"
	auditEventKeyIssueFailed        = "key_issue_failed"
	auditEventFlowReset             = "flow_reset"
	auditEventAdminLoginSuccess     = "admin_login_success"
	auditEventAdminLoginFailure     = "admin_login_failure"
	auditEventAdminLoginRateLimited = "admin_login_rate_limited"
	auditEventConfigLoaded          = "config_loaded"
	auditEventConfigUpdated         = "config_updated"
	auditEventConfigRejected        = "config_rejected"
	auditEventConfigPersistFailed   = "config_persist_failed"
)

const auditActorAdmin = "admin"

// AuditErrorCode defines a public type used by goGate APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrLinkNotOpened        AuditErrorCode = "link_not_opened"
	auditErrUnauthorized         AuditErrorCode = "unauthorized"
	auditErrRateLimited          AuditErrorCode = "rate_limited"
	auditErrInvalidToken         AuditErrorCode = "invalid_token"
	auditErrSessionNotFound      AuditErrorCode = "session_not_found"
	auditErrSessionLimitExceeded AuditErrorCode = "session_limit_exceeded"
	auditErrConfigInvalid        AuditErrorCode = "config_invalid"
	auditErrConfigMalformed      AuditErrorCode = "config_malformed"
	auditErrPersistFailed        AuditErrorCode = "persist_failed"
	auditErrRandomUnavailable    AuditErrorCode = "random_unavailable"
	auditErrUnavailable          AuditErrorCode = "backend_unavailable"
	auditErrInternal             AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	sessionID string,
	actor string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.clock.Now().UTC(),
		EventType: eventType,
		SessionID: sessionID,
		Actor:     actor,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrLinkNotOpened):
		return auditErrLinkNotOpened
	case errors.Is(err, ErrAdminUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrAdminRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionLimitExceeded):
		return auditErrSessionLimitExceeded
	case errors.Is(err, ErrConfigInvalid):
		return auditErrConfigInvalid
	case errors.Is(err, ErrConfigMalformed):
		return auditErrConfigMalformed
	case errors.Is(err, ErrConfigPersistFailed):
		return auditErrPersistFailed
	case errors.Is(err, ErrKeyIssueFailed):
		return auditErrRandomUnavailable
	case errors.Is(err, ErrAdminUnavailable),
		errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
