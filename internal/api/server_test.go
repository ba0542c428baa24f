// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ManuGH/artnetviz/internal/dmx"
	"github.com/ManuGH/artnetviz/internal/pattern"
	"github.com/ManuGH/artnetviz/internal/playback"
	"github.com/ManuGH/artnetviz/internal/recorder"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv  *Server
	live *dmx.Live
	gen  *pattern.Generator
	rec  *recorder.Recorder
	pb   *playback.Source
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)

	gen := pattern.NewGenerator(pattern.Config{Universes: []int{0}, Pattern: pattern.MovingBarH, FPS: 44, Logger: &logger})
	rec, err := recorder.New(recorder.Config{Dir: t.TempDir(), FrameRate: 44, Logger: &logger})
	require.NoError(t, err)
	pb := playback.NewSource(rec, &logger)

	live := dmx.NewLive(gen)
	live.Register(pb)
	rec.SetSource(live)

	srv, err := New(Config{}, Deps{
		Live:      live,
		Generator: gen,
		Recorder:  rec,
		Playback:  pb,
		Store:     rec.Store(),
		Version:   "test",
		Logger:    &logger,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = live.StopAll()
		_ = rec.Close(context.Background())
	})
	return &fixture{srv: srv, live: live, gen: gen, rec: rec, pb: pb}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, rd))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// saveRecording writes a three frame recording on universe 0 and returns its filename.
func (f *fixture) saveRecording(t *testing.T) string {
	t.Helper()
	store := f.rec.Store()
	path := store.PathFor("20250101_120000")
	doc := &recorder.Recording{Metadata: recorder.Metadata{Timestamp: "20250101_120000", FrameRate: 44, Universes: []int{0}}}
	for i, tc := range []int64{0, 100, 250} {
		doc.Frames = append(doc.Frames, recorder.Frame{
			Timecode: tc,
			Index:    i,
			Data:     map[int]recorder.Levels{0: recorder.LevelsOf(dmx.Fill(byte(10 * (i + 1))))},
		})
	}
	doc.Metadata.FrameCount = len(doc.Frames)
	doc.Metadata.Duration = 0.25
	require.NoError(t, store.Save(context.Background(), path, doc))
	info, err := store.Stat(path)
	require.NoError(t, err)
	return info.Filename
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Config{}, Deps{})
	require.Error(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/readyz", nil).Code)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	res := f.do(t, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, res.Code)

	st := decode[statusResponse](t, res)
	assert.Equal(t, "test", st.Version)
	assert.Equal(t, dmx.KindGenerator, st.Source.Kind)
	assert.False(t, st.Source.Running)
	assert.Equal(t, []int{0}, st.Source.Universes)
	assert.Equal(t, "MOVING_BAR_H", st.Pattern.Pattern)
	assert.False(t, st.Recording.Active)
	assert.False(t, st.Playback.Loaded)
}

func TestUniverses(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPut, "/api/v1/universes", setUniversesRequest{Universes: []int{3, 1, 3}})
	require.Equal(t, http.StatusOK, res.Code)
	body := decode[map[string]any](t, res)
	assert.Equal(t, []any{1.0, 3.0}, body["universes"])
	assert.Equal(t, true, body["changed"])

	res = f.do(t, http.MethodPut, "/api/v1/universes", setUniversesRequest{})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []int{0}, f.live.Universes(), "empty set falls back to universe 0")

	res = f.do(t, http.MethodGet, "/api/v1/universes/7", nil)
	require.Equal(t, http.StatusOK, res.Code)
	u := decode[universeResponse](t, res)
	assert.Equal(t, 7, u.Universe)
	assert.Len(t, u.Levels, dmx.Channels)
	assert.Equal(t, dmx.Buffer{}, u.Levels.Buffer(), "unknown universe reads as zero")

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/universes/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/universes/40000", nil).Code)

	res = f.do(t, http.MethodGet, "/api/v1/universes", nil)
	require.Equal(t, http.StatusOK, res.Code)
	all := decode[universesResponse](t, res)
	assert.Equal(t, []int{0}, all.Universes)
	assert.Contains(t, all.Data, 0)
}

func TestSetUniverses_RejectsUnknownFields(t *testing.T) {
	f := newFixture(t)
	res := f.do(t, http.MethodPut, "/api/v1/universes", map[string]any{"universe": []int{1}})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "invalid_request", decode[errorResponse](t, res).Error)
}

func TestPattern(t *testing.T) {
	f := newFixture(t)

	speed, fps := 2.5, 30
	res := f.do(t, http.MethodPut, "/api/v1/pattern", setPatternRequest{Pattern: "pulse", Speed: &speed, FPS: &fps})
	require.Equal(t, http.StatusOK, res.Code)
	got := decode[patternStatus](t, res)
	assert.Equal(t, patternStatus{Pattern: "PULSE", Speed: 2.5, FPS: 30}, got)
	assert.Equal(t, pattern.Pulse, f.gen.Pattern())

	res = f.do(t, http.MethodPut, "/api/v1/pattern", setPatternRequest{Pattern: "PLASMA"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, pattern.Pulse, f.gen.Pattern(), "rejected request changes nothing")

	bad := -1.0
	res = f.do(t, http.MethodPut, "/api/v1/pattern", setPatternRequest{Speed: &bad})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "invalid_speed", decode[errorResponse](t, res).Error)

	still := 0.0
	res = f.do(t, http.MethodPut, "/api/v1/pattern", setPatternRequest{Speed: &still})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, 0.0, f.gen.Speed())

	zero := 0
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/v1/pattern", setPatternRequest{FPS: &zero}).Code)
}

func TestSetSource(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPut, "/api/v1/source", setSourceRequest{Kind: "generator"})
	require.Equal(t, http.StatusOK, res.Code)
	st := decode[sourceStatus](t, res)
	assert.Equal(t, dmx.KindGenerator, st.Kind)
	assert.True(t, st.Running)

	res = f.do(t, http.MethodPut, "/api/v1/source", setSourceRequest{Kind: "listener"})
	assert.Equal(t, http.StatusBadRequest, res.Code, "listener variant is not registered")
	assert.Equal(t, "unknown_source", decode[errorResponse](t, res).Error)

	res = f.do(t, http.MethodPut, "/api/v1/source", setSourceRequest{Kind: "laser"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestRecordingLifecycle(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/api/v1/source", setSourceRequest{Kind: "generator"}).Code)

	res := f.do(t, http.MethodPost, "/api/v1/recordings/stop", nil)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "not_recording", decode[errorResponse](t, res).Error)

	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/v1/recordings/start", nil).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/v1/recordings/start", nil).Code)

	require.Eventually(t, func() bool {
		return f.rec.RecordingStatus().FrameCount >= 3
	}, 2*time.Second, 10*time.Millisecond)

	res = f.do(t, http.MethodPost, "/api/v1/recordings/stop", nil)
	require.Equal(t, http.StatusCreated, res.Code)
	stopped := decode[stopRecordingResponse](t, res)
	assert.GreaterOrEqual(t, stopped.Info.FrameCount, 3)

	res = f.do(t, http.MethodGet, "/api/v1/recordings", nil)
	require.Equal(t, http.StatusOK, res.Code)
	list := decode[map[string][]recorder.Info](t, res)
	require.Len(t, list["recordings"], 1)
	name := list["recordings"][0].Filename

	res = f.do(t, http.MethodGet, "/api/v1/recordings/"+name, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, name, decode[recorder.Info](t, res).Filename)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/v1/recordings/"+name, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/recordings/"+name, nil).Code)
}

func TestRecordingNames(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/recordings/notes.txt", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/v1/playback/load", loadRequest{Name: "../dmx_recording_x.json"}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/v1/playback/load", loadRequest{Name: "dmx_recording_missing.json"}).Code)
}

func TestPlaybackLifecycle(t *testing.T) {
	f := newFixture(t)
	name := f.saveRecording(t)

	res := f.do(t, http.MethodPost, "/api/v1/playback/start", nil)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "no_recording", decode[errorResponse](t, res).Error)

	res = f.do(t, http.MethodPost, "/api/v1/playback/load", loadRequest{Name: name})
	require.Equal(t, http.StatusOK, res.Code)
	st := decode[recorder.PlaybackStatus](t, res)
	assert.True(t, st.Loaded)
	assert.Equal(t, 3, st.TotalFrames)

	loop := true
	res = f.do(t, http.MethodPost, "/api/v1/playback/start", startPlaybackRequest{Loop: &loop})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, dmx.KindPlayback, f.live.Kind())
	assert.True(t, f.rec.PlaybackStatus().Active)

	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/v1/playback/load", loadRequest{Name: name}).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodDelete, "/api/v1/recordings/"+name, nil).Code)

	require.Eventually(t, func() bool {
		return f.live.Buffer(0)[0] != 0
	}, time.Second, 5*time.Millisecond)

	res = f.do(t, http.MethodPost, "/api/v1/playback/seek", map[string]int64{"ms": 150})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/v1/playback/seek", nil).Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/playback/stop", nil).Code)
	assert.False(t, f.rec.PlaybackStatus().Active)
	assert.Equal(t, dmx.KindPlayback, f.live.Kind(), "playback stays live after stop")
}

func TestNotFoundRoute(t *testing.T) {
	f := newFixture(t)
	res := f.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "not_found", decode[errorResponse](t, res).Error)
}

func TestErrorStatus(t *testing.T) {
	code, name := errorStatus(recorder.ErrInvalidRecording)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invalid_recording", name)

	code, name = errorStatus(context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal_error", name)
}
