// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncPacket(t *testing.T) {
	before := testutil.ToFloat64(ArtnetPacketsTotal.WithLabelValues(PacketAccepted))
	IncPacket(PacketAccepted)
	IncPacket(PacketAccepted)
	assert.Equal(t, before+2, testutil.ToFloat64(ArtnetPacketsTotal.WithLabelValues(PacketAccepted)))
}

func TestIncRecordingSaved(t *testing.T) {
	ok := testutil.ToFloat64(RecordingsSavedTotal.WithLabelValues("success"))
	fail := testutil.ToFloat64(RecordingsSavedTotal.WithLabelValues("failure"))
	IncRecordingSaved(true)
	IncRecordingSaved(false)
	assert.Equal(t, ok+1, testutil.ToFloat64(RecordingsSavedTotal.WithLabelValues("success")))
	assert.Equal(t, fail+1, testutil.ToFloat64(RecordingsSavedTotal.WithLabelValues("failure")))
}

func TestSetLiveSource_OnlyOneActive(t *testing.T) {
	kinds := []string{"listener", "generator", "playback"}
	SetLiveSource("listener", kinds...)
	SetLiveSource("generator", kinds...)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var family *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "artnetviz_live_source" {
			family = mf
		}
	}
	require.NotNil(t, family)

	active := map[string]float64{}
	for _, m := range family.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "kind" {
				active[lp.GetValue()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, map[string]float64{"listener": 0, "generator": 1, "playback": 0}, active)
}

func TestBoolGauge(t *testing.T) {
	BoolGauge(RecordingActive, true)
	assert.Equal(t, float64(1), testutil.ToFloat64(RecordingActive))
	BoolGauge(RecordingActive, false)
	assert.Equal(t, float64(0), testutil.ToFloat64(RecordingActive))
}
