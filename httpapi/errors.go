package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	goGate "github.com/MrEthical07/goGate"
)

// Message shown to the visitor when verification is rejected.
const linkNotOpenedMessage = "Verification failed. Link not opened."

var (
	errBadIndex    = errors.New("checkpoint index must be a non-negative integer")
	errRateLimited = errors.New("too many sessions, slow down")
	errBadBody     = errors.New("request body is not valid JSON")
)

type errorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Session *goGate.SessionView `json:"session,omitempty"`
}

// statusFor maps err onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, goGate.ErrLinkNotOpened):
		return http.StatusUnprocessableEntity, "link_not_opened"
	case errors.Is(err, goGate.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, goGate.ErrNotReady):
		return http.StatusConflict, "not_ready"
	case errors.Is(err, goGate.ErrCycleInProgress):
		return http.StatusConflict, "cycle_in_progress"
	case errors.Is(err, goGate.ErrCheckpointNotActive):
		return http.StatusConflict, "checkpoint_not_active"
	case errors.Is(err, goGate.ErrCheckpointVerified):
		return http.StatusConflict, "checkpoint_verified"
	case errors.Is(err, goGate.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition"
	case errors.Is(err, goGate.ErrRunReleased):
		return http.StatusConflict, "run_released"
	case errors.Is(err, goGate.ErrConfigInvalid):
		return http.StatusBadRequest, "config_invalid"
	case errors.Is(err, goGate.ErrConfigMalformed), errors.Is(err, errBadBody):
		return http.StatusBadRequest, "malformed_request"
	case errors.Is(err, errBadIndex):
		return http.StatusBadRequest, "bad_index"
	case errors.Is(err, goGate.ErrAdminUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, goGate.ErrTokenInvalid):
		return http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, goGate.ErrAdminRateLimited), errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, goGate.ErrSessionLimitExceeded):
		return http.StatusServiceUnavailable, "session_limit_exceeded"
	case errors.Is(err, goGate.ErrKeyIssueFailed):
		return http.StatusServiceUnavailable, "key_issue_failed"
	case errors.Is(err, goGate.ErrEngineNotReady),
		errors.Is(err, goGate.ErrAdminUnavailable),
		errors.Is(err, goGate.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorWithSession(w, r, err, nil)
}

func (s *Server) writeErrorWithSession(w http.ResponseWriter, r *http.Request, err error, view *goGate.SessionView) {
	status, code := statusFor(err)

	msg := err.Error()
	switch {
	case code == "link_not_opened":
		msg = linkNotOpenedMessage
	case status >= http.StatusInternalServerError:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, errorBody{Error: code, Message: msg, Session: view})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
