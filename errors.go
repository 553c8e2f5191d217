package goGate

import (
	"errors"

	"github.com/MrEthical07/goGate/configstore"
	"github.com/MrEthical07/goGate/internal/checkpoint"
	"github.com/MrEthical07/goGate/internal/flows"
	"github.com/MrEthical07/goGate/issuer"
)

var (
	// ErrLinkNotOpened is returned by Verify when no foreground loss was
	// reported since the link was opened. The checkpoint is back to idle and
	// can be retried.
	ErrLinkNotOpened = checkpoint.ErrLinkNotOpened
	// ErrNotReady is returned by Verify while the countdown is running.
	ErrNotReady = checkpoint.ErrNotReady
	// ErrCycleInProgress is returned by OpenLink while a countdown is running
	// or finished.
	ErrCycleInProgress = checkpoint.ErrCycleInProgress
	// ErrCheckpointVerified is returned for operations on a checkpoint that
	// already passed.
	ErrCheckpointVerified = checkpoint.ErrVerified
	// ErrRunReleased is returned for operations on a discarded checkpoint run.
	ErrRunReleased = checkpoint.ErrReleased
	// ErrCheckpointNotActive is returned for operations addressed to a
	// checkpoint other than the current one.
	ErrCheckpointNotActive = flows.ErrCheckpointNotActive
	// ErrIllegalTransition is returned for Start outside Welcome and Reset
	// outside Issued.
	ErrIllegalTransition = flows.ErrIllegalTransition
	// ErrKeyIssueFailed is returned when the random source fails while
	// issuing a key. The session stays on its checkpoint and Verify can be
	// retried.
	ErrKeyIssueFailed = issuer.ErrRandomUnavailable

	// ErrConfigMalformed is returned when stored or imported configuration
	// cannot be decoded.
	ErrConfigMalformed = configstore.ErrConfigMalformed
	// ErrConfigInvalid is returned for configurations that fail validation.
	ErrConfigInvalid = configstore.ErrConfigInvalid
	// ErrBackendUnavailable is returned when the configuration backend fails.
	ErrBackendUnavailable = configstore.ErrBackendUnavailable
	// ErrNotFound is returned when no configuration has been persisted.
	ErrNotFound = configstore.ErrNotFound
	// ErrConfigPersistFailed is returned by UpdateConfiguration when the new
	// configuration is active but could not be saved.
	ErrConfigPersistFailed = errors.New("configuration persist failed")

	// ErrSessionNotFound is returned for unknown, ended or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionLimitExceeded is returned when the registry is full.
	ErrSessionLimitExceeded = errors.New("session limit exceeded")
	// ErrEngineNotReady is returned by a nil or closed engine.
	ErrEngineNotReady = errors.New("engine not ready")

	// ErrAdminUnauthorized is returned for a wrong admin secret.
	ErrAdminUnauthorized = errors.New("admin unauthorized")
	// ErrAdminRateLimited is returned when the caller exhausted its admin
	// login attempts.
	ErrAdminRateLimited = errors.New("admin login rate limited")
	// ErrAdminUnavailable is returned when the admin limiter or secret hash
	// cannot be checked.
	ErrAdminUnavailable = errors.New("admin login unavailable")
	// ErrTokenInvalid is returned for admin tokens that fail verification.
	ErrTokenInvalid = errors.New("invalid admin token")
)
