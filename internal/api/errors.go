// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/ManuGH/artnetviz/internal/dmx"
	"github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/pattern"
	"github.com/ManuGH/artnetviz/internal/recorder"
)

const (
	maxBodyBytes = 64 << 10
	rateWindow   = time.Minute
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, detail string) {
	writeJSON(w, code, errorResponse{Error: errCode, Detail: detail})
}

// errorStatus maps component errors to an HTTP status and a stable code.
// Sequencing errors are client errors; unknown errors are internal.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, recorder.ErrAlreadyRecording):
		return http.StatusConflict, "already_recording"
	case errors.Is(err, recorder.ErrNotRecording):
		return http.StatusConflict, "not_recording"
	case errors.Is(err, recorder.ErrNoFrames):
		return http.StatusConflict, "no_frames"
	case errors.Is(err, recorder.ErrNoSource), errors.Is(err, dmx.ErrNoSource):
		return http.StatusConflict, "no_source"
	case errors.Is(err, recorder.ErrAlreadyPlaying):
		return http.StatusConflict, "already_playing"
	case errors.Is(err, recorder.ErrPlaybackBusy):
		return http.StatusConflict, "playback_busy"
	case errors.Is(err, recorder.ErrNotPlaying):
		return http.StatusConflict, "not_playing"
	case errors.Is(err, recorder.ErrNoRecording):
		return http.StatusConflict, "no_recording"
	case errors.Is(err, recorder.ErrInvalidRecording):
		return http.StatusUnprocessableEntity, "invalid_recording"
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, dmx.ErrUnknownVariant):
		return http.StatusBadRequest, "unknown_source"
	case errors.Is(err, pattern.ErrInvalidSpeed):
		return http.StatusBadRequest, "invalid_speed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError writes err with its mapped status. Internal errors are
// logged and their detail withheld.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code, errCode := errorStatus(err)
	detail := err.Error()
	if code == http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.internal_error").
			Str("method", r.Method).
			Str(log.FieldPath, r.URL.Path).
			Msg("request failed")
		detail = "see server log"
	}
	writeError(w, code, errCode, detail)
}

// decodeBody strictly decodes a JSON object into dst. An empty body leaves
// dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}
