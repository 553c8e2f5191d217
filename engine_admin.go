package goGate

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goGate/configstore"
	"github.com/MrEthical07/goGate/internal/rate"
)

// AdminLogin checks secret against the configured admin secret and returns a
// short-lived admin token. Failed attempts are counted per client IP (see
// [WithClientIP]) when the engine has a Redis client.
func (e *Engine) AdminLogin(ctx context.Context, secret string) (AdminToken, error) {
	if err := e.ready(); err != nil {
		return AdminToken{}, err
	}
	ip := clientIPFromContext(ctx)

	if e.adminLimiter != nil {
		if err := e.adminLimiter.Check(ctx, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricAdminLoginRateLimited)
				e.emitAudit(ctx, auditEventAdminLoginRateLimited, false, "", auditActorAdmin, ErrAdminRateLimited, nil)
				return AdminToken{}, ErrAdminRateLimited
			}
			return AdminToken{}, fmt.Errorf("%w: %v", ErrAdminUnavailable, err)
		}
	}

	ok, err := e.checkAdminSecret(secret)
	if err != nil {
		e.logger.Error("admin secret check failed", "error", err)
		return AdminToken{}, fmt.Errorf("%w: %v", ErrAdminUnavailable, err)
	}
	if !ok {
		e.metricInc(MetricAdminLoginFailure)
		e.emitAudit(ctx, auditEventAdminLoginFailure, false, "", auditActorAdmin, ErrAdminUnauthorized, nil)
		if e.adminLimiter != nil {
			if err := e.adminLimiter.Increment(ctx, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
				e.logger.Warn("admin login limiter increment failed", "error", err)
			}
		}
		return AdminToken{}, ErrAdminUnauthorized
	}

	if e.adminLimiter != nil {
		if err := e.adminLimiter.Reset(ctx, ip); err != nil {
			e.logger.Warn("admin login limiter reset failed", "error", err)
		}
	}

	token, expires, err := e.jwtManager.CreateAdmin(e.config.Admin.Subject)
	if err != nil {
		return AdminToken{}, fmt.Errorf("%w: %v", ErrAdminUnavailable, err)
	}

	e.metricInc(MetricAdminLoginSuccess)
	e.emitAudit(ctx, auditEventAdminLoginSuccess, true, "", auditActorAdmin, nil, nil)
	e.logger.Info("admin logged in", "ip", ip)

	return AdminToken{Token: token, ExpiresAt: expires}, nil
}

// ValidateAdmin verifies an admin token issued by AdminLogin.
func (e *Engine) ValidateAdmin(ctx context.Context, token string) (AdminIdentity, error) {
	if err := e.ready(); err != nil {
		return AdminIdentity{}, err
	}

	claims, err := e.jwtManager.ParseAdmin(token)
	if err != nil {
		return AdminIdentity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	identity := AdminIdentity{
		Subject: claims.Subject,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// Configuration returns a copy of the active gate configuration.
func (e *Engine) Configuration() Configuration {
	if e == nil || e.active.Load() == nil {
		return configstore.Default()
	}
	return e.activeConfiguration().Clone()
}

// PublicConfiguration returns the visitor-facing branding of the active
// configuration.
func (e *Engine) PublicConfiguration() PublicConfiguration {
	return publicConfigurationFrom(e.Configuration())
}

// UpdateConfiguration replaces the active gate configuration. Text fields
// are stripped of markup before validation. A valid configuration becomes
// active immediately for sessions that start afterwards; if saving it fails
// the error wraps ErrConfigPersistFailed but the replacement stands.
func (e *Engine) UpdateConfiguration(ctx context.Context, cfg Configuration) (Configuration, error) {
	if err := e.ready(); err != nil {
		return Configuration{}, err
	}

	clean := configstore.Sanitize(cfg)
	if err := clean.Validate(); err != nil {
		e.metricInc(MetricConfigRejected)
		e.emitAudit(ctx, auditEventConfigRejected, false, "", auditActorAdmin, err, nil)
		return Configuration{}, err
	}

	snapshot := clean.Clone()
	e.active.Store(&snapshot)

	e.metricInc(MetricConfigUpdated)
	e.emitAudit(ctx, auditEventConfigUpdated, true, "", auditActorAdmin, nil, func() map[string]string {
		return map[string]string{
			"app_name":    clean.AppName,
			"checkpoints": strconv.Itoa(len(clean.Checkpoints)),
		}
	})
	e.logger.Info("gate configuration replaced",
		"app_name", clean.AppName,
		"checkpoints", len(clean.Checkpoints),
	)

	if err := e.store.Save(ctx, clean); err != nil {
		e.metricInc(MetricConfigPersistFailed)
		e.emitAudit(ctx, auditEventConfigPersistFailed, false, "", auditActorAdmin, ErrConfigPersistFailed, nil)
		return clean, fmt.Errorf("%w: %v", ErrConfigPersistFailed, err)
	}
	return clean, nil
}

func (e *Engine) checkAdminSecret(secret string) (bool, error) {
	if e.config.Admin.SecretHash != "" {
		return e.secretHasher.Verify(secret, e.config.Admin.SecretHash)
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(e.config.Admin.Secret)) == 1, nil
}
