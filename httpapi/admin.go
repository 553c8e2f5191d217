package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/configstore"
)

type replaceConfigResponse struct {
	Configuration goGate.Configuration `json:"configuration"`
	Persisted     bool                 `json:"persisted"`
	Warning       string               `json:"warning,omitempty"`
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Secret string `json:"secret"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadBody, err))
		return
	}

	tok, err := s.engine.AdminLogin(r.Context(), body.Secret)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (s *Server) adminConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Configuration())
}

func (s *Server) adminReplaceConfig(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadBody, err))
		return
	}
	cfg, err := configstore.Decode(raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.engine.UpdateConfiguration(r.Context(), cfg)
	if errors.Is(err, goGate.ErrConfigPersistFailed) {
		s.logger.WarnContext(r.Context(), "configuration active but not persisted", "error", err)
		writeJSON(w, http.StatusOK, replaceConfigResponse{
			Configuration: saved,
			Persisted:     false,
			Warning:       "configuration is active but could not be saved",
		})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replaceConfigResponse{Configuration: saved, Persisted: true})
}

func (s *Server) adminSecurity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.SecurityReport())
}
