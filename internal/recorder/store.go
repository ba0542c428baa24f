// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/artnetviz/internal/fsutil"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/telemetry"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	filePrefix = "dmx_recording_"
	fileSuffix = ".json"

	tracerName = "artnetviz.recorder"
)

// Info summarises a persisted recording without its frames.
type Info struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"filepath"`
	Timestamp  string    `json:"timestamp"`
	FrameCount int       `json:"frame_count"`
	FrameRate  int       `json:"frame_rate"`
	Duration   float64   `json:"duration"`
	Universes  []int     `json:"universes"`
	Size       int64     `json:"size_bytes"`
	ModTime    time.Time `json:"modified"`
}

// InfoOf builds an Info from a path and its metadata.
func InfoOf(path string, md Metadata) Info {
	return Info{
		Filename:   filepath.Base(path),
		Path:       path,
		Timestamp:  md.Timestamp,
		FrameCount: md.FrameCount,
		FrameRate:  md.FrameRate,
		Duration:   md.Duration,
		Universes:  append([]int(nil), md.Universes...),
	}
}

// Store persists recordings as files in one directory.
type Store struct {
	dir    string
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewStore creates dir if needed.
func NewStore(dir string, logger *zerolog.Logger) (*Store, error) {
	if dir == "" {
		dir = "recordings"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create recordings dir: %w", err)
	}
	l := xglog.WithComponent("recorder.store")
	if logger != nil {
		l = *logger
	}
	return &Store{dir: dir, logger: l, tracer: telemetry.Tracer(tracerName)}, nil
}

// Dir is the recordings directory.
func (s *Store) Dir() string { return s.dir }

// IsRecordingFile reports whether name follows the recording file pattern.
func IsRecordingFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// PathFor returns a free file path for timestamp, suffixing _1, _2 ... when
// a recording with the same second already exists.
func (s *Store) PathFor(timestamp string) string {
	base := filepath.Join(s.dir, filePrefix+timestamp)
	p := base + fileSuffix
	for i := 1; ; i++ {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			return p
		}
		p = base + "_" + strconv.Itoa(i) + fileSuffix
	}
}

// Save writes rec to path atomically and durably.
func (s *Store) Save(ctx context.Context, path string, rec *Recording) (err error) {
	_, span := s.tracer.Start(ctx, "recorder.save",
		trace.WithAttributes(telemetry.RecordingAttributes(path, len(rec.Frames), rec.Metadata.FrameRate, rec.Metadata.Universes)...))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save failed")
		}
		span.End()
	}()

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o640))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if cerr := pendingFile.Cleanup(); cerr != nil {
			s.logger.Debug().Err(cerr).Str(xglog.FieldPath, path).Msg("pending file cleanup")
		}
	}()

	w := bufio.NewWriter(pendingFile)
	if err := Encode(w, rec); err != nil {
		return fmt.Errorf("encode recording: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("commit recording: %w", err)
	}
	return nil
}

// Load reads and validates the recording at path.
func (s *Store) Load(ctx context.Context, path string) (rec *Recording, err error) {
	_, span := s.tracer.Start(ctx, "recorder.load")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "load failed")
		} else {
			span.SetAttributes(telemetry.RecordingAttributes(path, len(rec.Frames), rec.Metadata.FrameRate, rec.Metadata.Universes)...)
		}
		span.End()
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer func() { _ = f.Close() }()

	rec, err = Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

// Stat reads the metadata of the recording at path.
func (s *Store) Stat(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	md, err := decodeMetadata(bufio.NewReader(f))
	if err != nil {
		return Info{}, err
	}
	info := InfoOf(path, md)
	info.Size = fi.Size()
	info.ModTime = fi.ModTime()
	return info, nil
}

// List returns every readable recording in the directory, newest first.
// Unreadable files are logged and skipped.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	_, span := s.tracer.Start(ctx, "recorder.list")
	defer span.End()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read recordings dir: %w", err)
	}
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsRecordingFile(e.Name()) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		info, err := s.Stat(path)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "recorder.list_skip").
				Str(xglog.FieldPath, path).
				Msg("skipping unreadable recording")
			continue
		}
		out = append(out, info)
	}
	SortNewestFirst(out)
	return out, nil
}

// Remove deletes the recording at path. Paths outside the store are refused.
func (s *Store) Remove(path string) error {
	if !IsRecordingFile(filepath.Base(path)) {
		return fmt.Errorf("refusing to remove %q: not a recording", path)
	}
	if _, err := fsutil.Confine(s.dir, path); err != nil {
		return fmt.Errorf("refusing to remove %q: %w", path, err)
	}
	return os.Remove(path)
}

// Resolve maps a bare filename to its path inside the store.
func (s *Store) Resolve(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// SortNewestFirst orders infos by timestamp, newest first, then by filename.
func SortNewestFirst(infos []Info) {
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Timestamp != infos[j].Timestamp {
			return infos[i].Timestamp > infos[j].Timestamp
		}
		return infos[i].Filename > infos[j].Filename
	})
}
