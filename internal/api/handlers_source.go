// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strconv"

	"github.com/ManuGH/artnetviz/internal/dmx"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/metrics"
	"github.com/ManuGH/artnetviz/internal/pattern"
	"github.com/ManuGH/artnetviz/internal/recorder"
	"github.com/go-chi/chi/v5"
)

type sourceStatus struct {
	Kind      dmx.Kind `json:"kind"`
	Running   bool     `json:"running"`
	Universes []int    `json:"universes"`
}

type patternStatus struct {
	Pattern string  `json:"pattern"`
	Speed   float64 `json:"speed"`
	FPS     int     `json:"fps"`
}

type statusResponse struct {
	Version   string                   `json:"version,omitempty"`
	Source    sourceStatus             `json:"source"`
	Pattern   patternStatus            `json:"pattern"`
	Recording recorder.RecordingStatus `json:"recording"`
	Playback  recorder.PlaybackStatus  `json:"playback"`
}

type universeResponse struct {
	Universe int             `json:"universe"`
	Levels   recorder.Levels `json:"levels"`
}

type universesResponse struct {
	Universes []int                   `json:"universes"`
	Data      map[int]recorder.Levels `json:"data"`
}

type setUniversesRequest struct {
	Universes []int `json:"universes"`
}

type setSourceRequest struct {
	Kind string `json:"kind"`
}

type setPatternRequest struct {
	Pattern string   `json:"pattern"`
	Speed   *float64 `json:"speed"`
	FPS     *int     `json:"fps"`
}

func (s *Server) sourceStatus() sourceStatus {
	live := s.deps.Live
	return sourceStatus{
		Kind:      live.Kind(),
		Running:   live.Running(),
		Universes: live.Universes(),
	}
}

func (s *Server) patternStatus() patternStatus {
	g := s.deps.Generator
	return patternStatus{Pattern: g.Pattern().String(), Speed: g.Speed(), FPS: g.FPS()}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Version:   s.deps.Version,
		Source:    s.sourceStatus(),
		Pattern:   s.patternStatus(),
		Recording: s.deps.Recorder.RecordingStatus(),
		Playback:  s.deps.Recorder.PlaybackStatus(),
	})
}

func (s *Server) handleGetUniverses(w http.ResponseWriter, _ *http.Request) {
	universes, bufs := s.deps.Live.Snapshot()
	data := make(map[int]recorder.Levels, len(bufs))
	for u, b := range bufs {
		data[u] = recorder.LevelsOf(b)
	}
	writeJSON(w, http.StatusOK, universesResponse{Universes: universes, Data: data})
}

// handleGetUniverse returns one universe. Universes the source does not
// carry read as zero levels.
func (s *Server) handleGetUniverse(w http.ResponseWriter, r *http.Request) {
	u, err := strconv.Atoi(chi.URLParam(r, "universe"))
	if err != nil || u < 0 || u > dmx.MaxUniverse {
		writeError(w, http.StatusBadRequest, "invalid_universe", "universe must be an integer between 0 and 32767")
		return
	}
	writeJSON(w, http.StatusOK, universeResponse{
		Universe: u,
		Levels:   recorder.LevelsOf(s.deps.Live.Buffer(u)),
	})
}

func (s *Server) handleSetUniverses(w http.ResponseWriter, r *http.Request) {
	var req setUniversesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	changed := s.deps.Live.SetUniverses(req.Universes)
	if changed {
		s.logger.Info().
			Str(xglog.FieldEvent, "api.universes_set").
			Ints(xglog.FieldUniverses, s.deps.Live.Universes()).
			Msg("universe set changed")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"universes": s.deps.Live.Universes(),
		"changed":   changed,
	})
}

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	var req setSourceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	kind, err := dmx.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_source", err.Error())
		return
	}
	if _, err := s.deps.Live.Activate(kind); err != nil {
		respondError(w, r, err)
		return
	}
	metrics.SetLiveSource(string(kind), string(dmx.KindListener), string(dmx.KindGenerator), string(dmx.KindPlayback))
	s.logger.Info().
		Str(xglog.FieldEvent, "api.source_switched").
		Str("kind", string(kind)).
		Msg("live source switched")
	writeJSON(w, http.StatusOK, s.sourceStatus())
}

func (s *Server) handleGetPattern(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.patternStatus())
}

// handleSetPattern applies the provided fields; omitted fields keep their values.
func (s *Server) handleSetPattern(w http.ResponseWriter, r *http.Request) {
	var req setPatternRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var next pattern.Type
	if req.Pattern != "" {
		p, err := pattern.ParseType(req.Pattern)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown_pattern", err.Error())
			return
		}
		next = p
	}
	if req.FPS != nil && (*req.FPS < 1 || *req.FPS > 120) {
		writeError(w, http.StatusBadRequest, "invalid_fps", "fps must be between 1 and 120")
		return
	}
	if req.Speed != nil {
		if err := s.deps.Generator.SetSpeed(*req.Speed); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if req.Pattern != "" {
		s.deps.Generator.SetPattern(next)
	}
	if req.FPS != nil {
		s.deps.Generator.SetFPS(*req.FPS)
	}
	writeJSON(w, http.StatusOK, s.patternStatus())
}
