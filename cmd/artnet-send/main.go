// SPDX-License-Identifier: MIT

// artnet-send emits ArtDmx frames rendered by the pattern generator to a
// host:port. It drives a listener without lighting hardware.
//
// Usage:
//
//	artnet-send --target 127.0.0.1:6454 --universes 0,1 --pattern PULSE --fps 44
//
// Exit codes:
//   - 0: finished (duration or frame count reached, or interrupted)
//   - 1: send error
//   - 2: usage error
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/artnetviz/internal/artnet"
	"github.com/ManuGH/artnetviz/internal/dmx"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/pattern"
	"github.com/ManuGH/artnetviz/internal/version"
	"github.com/rs/zerolog"
)

type options struct {
	target    string
	universes []int
	pattern   pattern.Type
	fps       int
	speed     float64
	duration  time.Duration
	frames    uint64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, code, ok := parseFlags(args, stdout, stderr)
	if !ok {
		return code
	}

	xglog.Configure(xglog.Config{Level: "info", Output: stderr, Service: "artnet-send", Version: version.Version})
	logger := xglog.WithComponent("sender")

	conn, err := net.Dial("udp", opts.target)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = conn.Close() }()

	sent, err := send(ctx, conn, opts, logger)
	logger.Info().
		Str(xglog.FieldEvent, "sender.finished").
		Str(xglog.FieldAddr, opts.target).
		Uint64(xglog.FieldFrames, sent).
		Msg("sender stopped")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stdout, stderr io.Writer) (options, int, bool) {
	fs := flag.NewFlagSet("artnet-send", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts        options
		universes   string
		patternName string
		showVersion bool
	)
	fs.StringVar(&opts.target, "target", net.JoinHostPort("127.0.0.1", strconv.Itoa(artnet.DefaultPort)), "destination host:port")
	fs.StringVar(&universes, "universes", "0", "comma-separated universes to send")
	fs.StringVar(&patternName, "pattern", pattern.MovingBarH.String(), "pattern: "+strings.Join(pattern.Names(), ", "))
	fs.IntVar(&opts.fps, "fps", 44, "frames per second")
	fs.Float64Var(&opts.speed, "speed", 1.0, "animation speed")
	fs.DurationVar(&opts.duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	fs.Uint64Var(&opts.frames, "frames", 0, "stop after this many frames (0 is unlimited)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return opts, 2, false
	}

	if showVersion {
		fmt.Fprintln(stdout, version.String())
		return opts, 0, false
	}

	var err error
	if opts.universes, err = parseUniverses(universes); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return opts, 2, false
	}
	if opts.pattern, err = pattern.ParseType(patternName); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return opts, 2, false
	}
	if opts.fps < 1 || opts.fps > 120 {
		fmt.Fprintf(stderr, "Error: fps must be between 1 and 120, got %d\n", opts.fps)
		return opts, 2, false
	}
	if opts.speed <= 0 {
		fmt.Fprintf(stderr, "Error: speed must be positive, got %g\n", opts.speed)
		return opts, 2, false
	}
	return opts, 0, true
}

// parseUniverses accepts a comma-separated list and normalizes it.
func parseUniverses(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		u, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid universe %q", part)
		}
		if u < 0 || u > dmx.MaxUniverse {
			return nil, fmt.Errorf("universe %d out of range 0..%d", u, dmx.MaxUniverse)
		}
		out = append(out, u)
	}
	if len(out) == 0 {
		return nil, errors.New("at least one universe is required")
	}
	return dmx.NormalizeUniverses(out), nil
}

// packets renders frame and encodes one ArtDmx datagram per universe.
// Sequence cycles 1..255; 0 would disable reordering on receivers.
func packets(opts options, frame uint64) [][]byte {
	bufs := pattern.Render(opts.pattern, opts.universes, frame, opts.speed, nil)
	seq := uint8(frame%255) + 1
	out := make([][]byte, len(bufs))
	for i, b := range bufs {
		out[i] = artnet.Encode(artnet.Packet{
			Sequence: seq,
			Universe: uint16(opts.universes[i]),
			Data:     b[:],
		})
	}
	return out
}

// send writes frames to w at opts.fps until ctx ends or a limit is reached.
func send(ctx context.Context, w io.Writer, opts options, logger zerolog.Logger) (uint64, error) {
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	ticker := time.NewTicker(time.Second / time.Duration(opts.fps))
	defer ticker.Stop()

	logger.Info().
		Str(xglog.FieldEvent, "sender.started").
		Str("pattern", opts.pattern.String()).
		Ints(xglog.FieldUniverses, opts.universes).
		Int(xglog.FieldFPS, opts.fps).
		Msg("sending ArtDmx frames")

	var frame uint64
	for {
		if opts.frames > 0 && frame >= opts.frames {
			return frame, nil
		}
		for _, pkt := range packets(opts, frame) {
			if _, err := w.Write(pkt); err != nil {
				return frame, fmt.Errorf("send frame %d: %w", frame, err)
			}
		}
		frame++

		select {
		case <-ctx.Done():
			return frame, nil
		case <-ticker.C:
		}
	}
}
