// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/ManuGH/artnetviz/internal/config"
	"github.com/ManuGH/artnetviz/internal/dmx"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/recorder"
	"github.com/ManuGH/artnetviz/internal/version"
)

func runRecordingsCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printRecordingsUsage()
		return 0
	}

	switch args[0] {
	case "list":
		return runRecordingsList(args[1:])
	case "inspect":
		return runRecordingsInspect(args[1:])
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printRecordingsUsage()
		return 2
	}
}

func printRecordingsUsage() {
	fmt.Fprintln(stderr, "Usage:")
	fmt.Fprintln(stderr, "  artnetviz recordings list [--dir recordings] [--json]")
	fmt.Fprintln(stderr, "  artnetviz recordings inspect [--dir recordings] [--json] <file>")
}

// recordingsFlags registers the flags shared by list and inspect.
func recordingsFlags(name string) (*flag.FlagSet, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", "", "recordings directory (default: recorder.dir from config)")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	return fs, dir, asJSON
}

// openStore opens dir, or the configured recordings directory when dir is
// empty.
func openStore(dir string) (*recorder.Store, error) {
	if strings.TrimSpace(dir) == "" {
		cfg, err := config.NewLoader(resolveConfigPath(""), version.Version).Load()
		if err != nil {
			return nil, err
		}
		dir = cfg.Recorder.Dir
	}
	logger := xglog.WithComponent("recordings")
	return recorder.NewStore(dir, &logger)
}

func runRecordingsList(args []string) int {
	fs, dir, asJSON := recordingsFlags("artnetviz recordings list")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	store, err := openStore(*dir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	infos, err := store.List(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *asJSON {
		return writeJSON(infos)
	}
	if len(infos) == 0 {
		fmt.Fprintf(stdout, "no recordings in %s\n", store.Dir())
		return 0
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTIMESTAMP\tFRAMES\tFPS\tDURATION\tUNIVERSES")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2fs\t%s\n",
			info.Filename, info.Timestamp, info.FrameCount, info.FrameRate, info.Duration, joinInts(info.Universes))
	}
	_ = tw.Flush()
	return 0
}

// inspection summarises a recording's frames.
type inspection struct {
	recorder.Info
	SpanMS       int64       `json:"span_ms"`
	MeanInterval float64     `json:"mean_interval_ms"`
	Peaks        map[int]int `json:"peak_levels"`
	Active       map[int]int `json:"active_channels"`
}

func inspect(info recorder.Info, rec *recorder.Recording) inspection {
	out := inspection{
		Info:   info,
		SpanMS: rec.Span(),
		Peaks:  make(map[int]int),
		Active: make(map[int]int),
	}
	if n := len(rec.Frames); n > 1 {
		out.MeanInterval = float64(rec.Span()-rec.Frames[0].Timecode) / float64(n-1)
	}
	for _, u := range rec.Metadata.Universes {
		var active [dmx.Channels]bool
		peak := 0
		for _, f := range rec.Frames {
			for ch, v := range f.Data[u] {
				if v == 0 {
					continue
				}
				active[ch] = true
				peak = max(peak, int(v))
			}
		}
		count := 0
		for _, a := range active {
			if a {
				count++
			}
		}
		out.Peaks[u] = peak
		out.Active[u] = count
	}
	return out
}

func runRecordingsInspect(args []string) int {
	fs, dir, asJSON := recordingsFlags("artnetviz recordings inspect")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one recording file is required")
		printRecordingsUsage()
		return 2
	}

	store, err := openStore(*dir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	path := store.Resolve(fs.Arg(0))
	info, err := store.Stat(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	rec, err := store.Load(context.Background(), path)
	if err != nil {
		if errors.Is(err, recorder.ErrInvalidRecording) {
			fmt.Fprintf(stderr, "Invalid recording %s:\n  %v\n", path, err)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	result := inspect(info, rec)
	if *asJSON {
		return writeJSON(result)
	}

	fmt.Fprintf(stdout, "File:       %s\n", result.Path)
	fmt.Fprintf(stdout, "Timestamp:  %s\n", result.Timestamp)
	fmt.Fprintf(stdout, "Frames:     %d at %d fps\n", result.FrameCount, result.FrameRate)
	fmt.Fprintf(stdout, "Duration:   %.2fs (span %dms, mean interval %.1fms)\n", result.Duration, result.SpanMS, result.MeanInterval)
	fmt.Fprintf(stdout, "Universes:  %s\n", joinInts(result.Universes))

	universes := slices.Sorted(maps.Keys(result.Peaks))
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIVERSE\tACTIVE CHANNELS\tPEAK")
	for _, u := range universes {
		fmt.Fprintf(tw, "%d\t%d\t%d\n", u, result.Active[u], result.Peaks[u])
	}
	_ = tw.Flush()
	return 0
}

func writeJSON(v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
