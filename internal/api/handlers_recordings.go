// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ManuGH/artnetviz/internal/dmx"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/recorder"
	"github.com/go-chi/chi/v5"
)

var errBadName = errors.New("recording name must be a bare .json filename")

type loadRequest struct {
	Name string `json:"name"`
}

type startPlaybackRequest struct {
	Loop *bool `json:"loop"`
}

type seekRequest struct {
	Milliseconds *int64 `json:"ms"`
}

type stopRecordingResponse struct {
	Path string        `json:"path"`
	Info recorder.Info `json:"info"`
}

// resolveName accepts only bare recording filenames so requests cannot
// reach outside the recordings directory.
func (s *Server) resolveName(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || !recorder.IsRecordingFile(name) {
		return "", false
	}
	return s.deps.Store.Resolve(name), true
}

// handleListRecordings serves the catalog when configured, the directory otherwise.
func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	var (
		infos []recorder.Info
		err   error
	)
	if s.deps.Index != nil {
		infos, err = s.deps.Index.List(r.Context())
	} else {
		infos, err = s.deps.Store.List(r.Context())
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	if infos == nil {
		infos = []recorder.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recordings": infos})
}

func (s *Server) handleGetRecording(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolveName(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_name", errBadName.Error())
		return
	}
	info, err := s.deps.Store.Stat(path)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolveName(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_name", errBadName.Error())
		return
	}
	if st := s.deps.Recorder.PlaybackStatus(); st.Active && st.Path == path {
		writeError(w, http.StatusConflict, "already_playing", "recording is being played back")
		return
	}
	if err := s.deps.Store.Remove(path); err != nil {
		respondError(w, r, err)
		return
	}
	if s.deps.Index != nil {
		if err := s.deps.Index.Remove(r.Context(), path); err != nil {
			s.logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "api.unindex_failed").
				Str(xglog.FieldPath, path).
				Msg("recording removed but catalog entry remains")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Recorder.StartRecording(); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.deps.Recorder.RecordingStatus())
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	path, err := s.deps.Recorder.StopRecording(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	info, err := s.deps.Store.Stat(path)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stopRecordingResponse{Path: path, Info: info})
}

func (s *Server) handlePlaybackStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Recorder.PlaybackStatus())
}

func (s *Server) handleLoadPlayback(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	path, ok := s.resolveName(req.Name)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_name", errBadName.Error())
		return
	}
	if err := s.deps.Recorder.LoadRecording(r.Context(), path); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Recorder.PlaybackStatus())
}

// handleStartPlayback makes the playback source live, which restarts the
// loaded recording from its first frame.
func (s *Server) handleStartPlayback(w http.ResponseWriter, r *http.Request) {
	var req startPlaybackRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !s.deps.Recorder.PlaybackStatus().Loaded {
		respondError(w, r, recorder.ErrNoRecording)
		return
	}
	if req.Loop != nil {
		s.deps.Playback.SetLoop(*req.Loop)
	}
	if _, err := s.deps.Live.Activate(dmx.KindPlayback); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Recorder.PlaybackStatus())
}

// handleStopPlayback halts playback. The playback source stays live and
// holds the last delivered frame until another source is selected.
func (s *Server) handleStopPlayback(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Playback.Stop(); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Recorder.PlaybackStatus())
}

func (s *Server) handleSeekPlayback(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Milliseconds == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "ms is required")
		return
	}
	if err := s.deps.Recorder.SeekTo(*req.Milliseconds); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Recorder.PlaybackStatus())
}
