package goGate

import "time"

// SecurityReport summarizes how weak the deployed gate is. Neither the
// checkpoints nor the key are access control; this report covers the admin
// surface that edits them.
type SecurityReport struct {
	SigningAlgorithm     string
	EphemeralSigningKey  bool
	AdminTokenTTL        time.Duration
	DefaultSecretInUse   bool
	SecretHashed         bool
	AdminRateLimitActive bool
	MaxLoginAttempts     int
	LoginWindow          time.Duration
	MaxSessions          int
	SessionIdleTTL       time.Duration
	AuditEnabled         bool
	MetricsEnabled       bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	hashed := e.config.Admin.SecretHash != ""
	return SecurityReport{
		SigningAlgorithm:     e.config.JWT.SigningMethod,
		EphemeralSigningKey:  e.ephemeralKey,
		AdminTokenTTL:        e.config.JWT.TTL,
		DefaultSecretInUse:   !hashed && e.config.Admin.Secret == DefaultAdminSecret,
		SecretHashed:         hashed,
		AdminRateLimitActive: e.adminLimiter != nil,
		MaxLoginAttempts:     e.config.Admin.MaxLoginAttempts,
		LoginWindow:          e.config.Admin.LoginWindow,
		MaxSessions:          e.config.Session.MaxSessions,
		SessionIdleTTL:       e.config.Session.IdleTTL,
		AuditEnabled:         e.audit != nil,
		MetricsEnabled:       e.metrics.Enabled(),
	}
}
