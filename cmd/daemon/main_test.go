// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/artnetviz/internal/config"
	"github.com/ManuGH/artnetviz/internal/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return &out, &errOut
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestResolveConfigPath(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvConfigFile, "")

	assert.Equal(t, "explicit.yaml", resolveConfigPath(" explicit.yaml "))
	assert.Empty(t, resolveConfigPath(""))

	require.NoError(t, os.WriteFile(defaultConfigFile, []byte("logLevel: info\n"), 0o600))
	assert.Equal(t, defaultConfigFile, resolveConfigPath(""))

	t.Setenv(config.EnvConfigFile, "/etc/artnetviz.yaml")
	assert.Equal(t, "/etc/artnetviz.yaml", resolveConfigPath(""))
}

func TestConfigValidate(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")

	tests := []struct {
		name       string
		body       string
		wantExit   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "valid",
			body:       "logLevel: debug\nartnet:\n  universes: [0, 1]\n",
			wantExit:   0,
			wantStdout: "is valid",
		},
		{
			name:       "unknown key",
			body:       "logLevel: info\nbogus: true\n",
			wantExit:   1,
			wantStderr: "Configuration error",
		},
		{
			name:       "invalid value",
			body:       "frameRate: 500\n",
			wantExit:   1,
			wantStderr: "FrameRate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := captureOutput(t)
			path := writeConfig(t, tt.body)

			code := runConfigCLI([]string{"validate", "-f", path})
			assert.Equal(t, tt.wantExit, code)
			assert.Contains(t, out.String(), tt.wantStdout)
			assert.Contains(t, errOut.String(), tt.wantStderr)
		})
	}
}

func TestConfigValidate_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvConfigFile, "")
	_, errOut := captureOutput(t)

	assert.Equal(t, 2, runConfigCLI([]string{"validate"}))
	assert.Contains(t, errOut.String(), "--file is required")
}

func TestConfigCLI_UnknownSubcommand(t *testing.T) {
	_, errOut := captureOutput(t)
	assert.Equal(t, 2, runConfigCLI([]string{"frobnicate"}))
	assert.Contains(t, errOut.String(), "Unknown subcommand")
	assert.Equal(t, 0, runConfigCLI(nil))
}

func TestConfigDump_JSONUsesFileKeys(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvPattern, "PULSE")
	out, _ := captureOutput(t)
	path := writeConfig(t, "frameRate: 30\n")

	require.Equal(t, 0, runConfigCLI([]string{"dump", "-f", path, "--format", "json"}))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.EqualValues(t, 30, doc["frameRate"])
	testSource, ok := doc["testSource"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "PULSE", testSource["pattern"])
	assert.NotContains(t, doc, "Version")
}

func TestConfigDump_BadFormat(t *testing.T) {
	_, errOut := captureOutput(t)
	path := writeConfig(t, "logLevel: info\n")
	assert.Equal(t, 2, runConfigCLI([]string{"dump", "-f", path, "--format", "toml"}))
	assert.Contains(t, errOut.String(), "Unsupported format")
}

func seedRecording(t *testing.T, dir string) string {
	t.Helper()
	store, err := recorder.NewStore(dir, nil)
	require.NoError(t, err)

	lit := make(recorder.Levels, 512)
	lit[0], lit[9] = 255, 128
	rec := &recorder.Recording{
		Metadata: recorder.Metadata{
			Timestamp:  "20250102_030405",
			FrameRate:  10,
			Universes:  []int{0, 1},
			FrameCount: 3,
			Duration:   0.3,
		},
		Frames: []recorder.Frame{
			{Timecode: 0, Index: 0, Data: map[int]recorder.Levels{0: lit, 1: make(recorder.Levels, 512)}},
			{Timecode: 100, Index: 1, Data: map[int]recorder.Levels{0: lit, 1: make(recorder.Levels, 512)}},
			{Timecode: 200, Index: 2, Data: map[int]recorder.Levels{0: make(recorder.Levels, 512), 1: make(recorder.Levels, 512)}},
		},
	}
	path := store.PathFor(rec.Metadata.Timestamp)
	require.NoError(t, store.Save(context.Background(), path, rec))
	return path
}

func TestRecordingsList(t *testing.T) {
	dir := t.TempDir()
	path := seedRecording(t, dir)
	out, _ := captureOutput(t)

	require.Equal(t, 0, runRecordingsCLI([]string{"list", "--dir", dir}))
	assert.Contains(t, out.String(), "FILE")
	assert.Contains(t, out.String(), filepath.Base(path))
	assert.Contains(t, out.String(), "0,1")
}

func TestRecordingsList_JSON(t *testing.T) {
	dir := t.TempDir()
	seedRecording(t, dir)
	out, _ := captureOutput(t)

	require.Equal(t, 0, runRecordingsCLI([]string{"list", "--dir", dir, "--json"}))
	var infos []recorder.Info
	require.NoError(t, json.Unmarshal(out.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, 3, infos[0].FrameCount)
	assert.Equal(t, []int{0, 1}, infos[0].Universes)
}

func TestRecordingsList_Empty(t *testing.T) {
	dir := t.TempDir()
	out, _ := captureOutput(t)
	require.Equal(t, 0, runRecordingsCLI([]string{"list", "--dir", dir}))
	assert.Contains(t, out.String(), "no recordings")
}

func TestRecordingsInspect(t *testing.T) {
	dir := t.TempDir()
	path := seedRecording(t, dir)
	out, _ := captureOutput(t)

	require.Equal(t, 0, runRecordingsCLI([]string{"inspect", "--dir", dir, "--json", filepath.Base(path)}))

	var got struct {
		SpanMS       int64          `json:"span_ms"`
		MeanInterval float64        `json:"mean_interval_ms"`
		Peaks        map[string]int `json:"peak_levels"`
		Active       map[string]int `json:"active_channels"`
		FrameCount   int            `json:"frame_count"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, int64(200), got.SpanMS)
	assert.InDelta(t, 100.0, got.MeanInterval, 0.001)
	assert.Equal(t, 255, got.Peaks["0"])
	assert.Equal(t, 2, got.Active["0"])
	assert.Equal(t, 0, got.Active["1"])
	assert.Equal(t, 3, got.FrameCount)
}

func TestRecordingsInspect_Invalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "dmx_recording_bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"metadata":{"frame_rate":0},"frames":[]}`), 0o600))
	_, errOut := captureOutput(t)

	assert.Equal(t, 1, runRecordingsCLI([]string{"inspect", "--dir", dir, filepath.Base(bad)}))
	assert.Contains(t, errOut.String(), "Invalid recording")
}

func TestRecordingsInspect_Usage(t *testing.T) {
	_, errOut := captureOutput(t)
	assert.Equal(t, 2, runRecordingsCLI([]string{"inspect", "--dir", t.TempDir()}))
	assert.Contains(t, errOut.String(), "exactly one")
}
