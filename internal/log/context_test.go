// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDRoundTrip(t *testing.T) {
	//nolint:staticcheck // a nil context is accepted
	ctx := ContextWithRequestID(nil, "rid-1")
	assert.Equal(t, "rid-1", RequestIDFromContext(ctx))

	assert.Empty(t, RequestIDFromContext(context.Background()))
	//nolint:staticcheck // a nil context is accepted
	assert.Empty(t, RequestIDFromContext(nil))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestWithContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRequestID(context.Background(), "abc")

	l := WithContext(ctx, zerolog.New(&buf))
	l.Info().Msg("hello")

	assert.Equal(t, "abc", decodeLine(t, &buf)[FieldRequestID])
}

func TestWithComponentFromContext_UsesStoredLogger(t *testing.T) {
	var buf bytes.Buffer
	stored := zerolog.New(&buf).With().Str("origin", "ctx").Logger()
	ctx := stored.WithContext(ContextWithRequestID(context.Background(), "r-9"))

	l := WithComponentFromContext(ctx, "api")
	l.Info().Msg("x")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "ctx", entry["origin"])
	assert.Equal(t, "api", entry[FieldComponent])
	assert.Equal(t, "r-9", entry[FieldRequestID])
}

func TestFromContext_FallsBackToBase(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
	//nolint:staticcheck // a nil context is accepted
	require.NotNil(t, FromContext(nil))
}
