package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	goGate "github.com/MrEthical07/goGate"
)

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	if !s.createLimit.Allow() {
		s.writeError(w, r, errRateLimited)
		return
	}

	view, err := s.engine.CreateSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.EndSession(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) openLink(w http.ResponseWriter, r *http.Request) {
	index, err := checkpointIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	target, err := s.engine.OpenLink(r.Context(), r.PathValue("id"), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"targetUrl": target})
}

func (s *Server) foregroundLost(w http.ResponseWriter, r *http.Request) {
	index, err := checkpointIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recorded, err := s.engine.ReportForegroundLoss(r.Context(), r.PathValue("id"), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"recorded": recorded})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	index, err := checkpointIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.engine.Verify(r.Context(), r.PathValue("id"), index)
	if errors.Is(err, goGate.ErrLinkNotOpened) {
		s.writeErrorWithSession(w, r, err, &res.Session)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) publicConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.PublicConfiguration())
}

func checkpointIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		return 0, errBadIndex
	}
	return index, nil
}
