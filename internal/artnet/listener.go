// SPDX-License-Identifier: MIT

package artnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/artnetviz/internal/dmx"
	xglog "github.com/ManuGH/artnetviz/internal/log"
	"github.com/ManuGH/artnetviz/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultRetryDelay  = time.Second
	defaultJoinTimeout = time.Second
)

// Config holds listener configuration.
type Config struct {
	Host      string // bind address, default 0.0.0.0
	Port      int    // UDP port, default 6454
	Universes []int

	// RetryDelay is the pause after a transient receive or bind error.
	RetryDelay time.Duration
	// JoinTimeout bounds how long Stop waits for the receive goroutine.
	JoinTimeout time.Duration

	Logger *zerolog.Logger
}

// Stats is a point-in-time view of the listener counters.
type Stats struct {
	Bound           bool   `json:"bound"`
	Accepted        uint64 `json:"accepted"`
	Invalid         uint64 `json:"invalid"`
	IgnoredOpcode   uint64 `json:"ignored_opcode"`
	UnknownUniverse uint64 `json:"unknown_universe"`
	ReceiveErrors   uint64 `json:"receive_errors"`
}

// Listener receives ArtDmx datagrams and replaces the matching universe
// buffer wholesale. It implements dmx.Source.
type Listener struct {
	cfg    Config
	bufs   *dmx.BufferSet
	logger zerolog.Logger

	mu      sync.Mutex // serialises Start/Stop
	running atomic.Bool
	stopCh  chan struct{}
	done    chan struct{}

	connMu sync.Mutex
	conn   net.PacketConn

	accepted, invalid, ignored, unknown, recvErrors atomic.Uint64

	errLog rate.Sometimes

	// afterRebind runs between a successful rebind and installing the
	// socket. Tests use it to interleave Stop.
	afterRebind func()
}

var _ dmx.Source = (*Listener)(nil)

// NewListener creates a stopped listener.
func NewListener(cfg Config) *Listener {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = defaultJoinTimeout
	}
	logger := xglog.WithComponent("artnet")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Listener{
		cfg:    cfg,
		bufs:   dmx.NewBufferSet(cfg.Universes),
		logger: logger,
		errLog: rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
}

// Addr is the configured host:port.
func (l *Listener) Addr() string {
	return net.JoinHostPort(l.cfg.Host, strconv.Itoa(l.cfg.Port))
}

// LocalAddr returns the bound socket address, or nil while un-bound.
func (l *Listener) LocalAddr() net.Addr {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Start binds the shared UDP port and launches the receive goroutine.
// A bind failure is logged and the listener keeps running un-bound,
// retrying the bind every RetryDelay.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running.Load() {
		return nil
	}

	conn, err := l.bind()
	if err != nil {
		l.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "artnet.bind_failed").
			Str(xglog.FieldAddr, l.Addr()).
			Msg("bind failed, continuing un-bound")
	} else {
		l.logger.Info().
			Str(xglog.FieldEvent, "artnet.bound").
			Str(xglog.FieldAddr, conn.LocalAddr().String()).
			Msg("listening for Art-Net")
	}
	l.setConn(conn)

	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})
	l.running.Store(true)
	go l.receiveLoop(l.stopCh, l.done)

	l.logger.Info().
		Str(xglog.FieldEvent, "artnet.started").
		Ints(xglog.FieldUniverses, l.bufs.Universes()).
		Msg("Art-Net listener started")
	return nil
}

// Stop closes the socket to unblock the pending read and waits a bounded
// time for the receive goroutine.
func (l *Listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running.Load() {
		return nil
	}
	l.running.Store(false)
	close(l.stopCh)
	l.setConn(nil)

	select {
	case <-l.done:
	case <-time.After(l.cfg.JoinTimeout):
		l.logger.Warn().
			Str(xglog.FieldEvent, "artnet.join_timeout").
			Dur("timeout", l.cfg.JoinTimeout).
			Msg("receive goroutine did not exit in time")
	}
	l.logger.Info().Str(xglog.FieldEvent, "artnet.stopped").Msg("Art-Net listener stopped")
	return nil
}

// setConn swaps the socket, closing the previous one.
func (l *Listener) setConn(conn net.PacketConn) {
	l.connMu.Lock()
	prev := l.conn
	l.conn = conn
	l.connMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	metrics.BoolGauge(metrics.ArtnetBound, conn != nil)
}

func (l *Listener) currentConn() net.PacketConn {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	return l.conn
}

func (l *Listener) bind() (net.PacketConn, error) {
	lc := net.ListenConfig{Control: reuseControl}
	conn, err := lc.ListenPacket(context.Background(), "udp4", l.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", l.Addr(), err)
	}
	return conn, nil
}

func (l *Listener) receiveLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, MaxPacketSize)

	for l.running.Load() {
		conn := l.currentConn()
		if conn == nil {
			if !l.sleep(stop) {
				return
			}
			l.rebind(stop)
			continue
		}

		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if !l.running.Load() {
				return
			}
			l.recvErrors.Add(1)
			metrics.ArtnetReceiveErrorsTotal.Inc()
			l.errLog.Do(func() {
				l.logger.Warn().
					Err(err).
					Str(xglog.FieldEvent, "artnet.receive_error").
					Dur("retry_in", l.cfg.RetryDelay).
					Msg("socket error, retrying")
			})
			if errors.Is(err, net.ErrClosed) {
				l.connMu.Lock()
				if l.conn == conn {
					l.conn = nil
				}
				l.connMu.Unlock()
			}
			if !l.sleep(stop) {
				return
			}
			continue
		}
		l.safeHandle(buf[:n])
	}
}

func (l *Listener) rebind(stop <-chan struct{}) {
	conn, err := l.bind()
	if err != nil {
		l.errLog.Do(func() {
			l.logger.Debug().Err(err).Str(xglog.FieldEvent, "artnet.rebind_failed").Msg("still un-bound")
		})
		return
	}
	if l.afterRebind != nil {
		l.afterRebind()
	}
	if !l.adoptConn(conn, stop) {
		return
	}
	l.logger.Info().
		Str(xglog.FieldEvent, "artnet.bound").
		Str(xglog.FieldAddr, conn.LocalAddr().String()).
		Msg("listening for Art-Net")
}

// adoptConn installs a rebound socket unless stop has fired. The check and
// the install share connMu with Stop's setConn(nil), so a socket is either
// installed before Stop clears it or closed here.
func (l *Listener) adoptConn(conn net.PacketConn, stop <-chan struct{}) bool {
	l.connMu.Lock()
	select {
	case <-stop:
		l.connMu.Unlock()
		_ = conn.Close()
		return false
	default:
	}
	prev := l.conn
	l.conn = conn
	l.connMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	metrics.BoolGauge(metrics.ArtnetBound, true)
	return true
}

// sleep waits RetryDelay and reports false if stop fired first.
func (l *Listener) sleep(stop <-chan struct{}) bool {
	t := time.NewTimer(l.cfg.RetryDelay)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}

func (l *Listener) safeHandle(b []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error().
				Str(xglog.FieldEvent, "artnet.handle_panic").
				Interface("panic_value", rec).
				Msg("recovered while handling packet")
		}
	}()
	l.handle(b)
}

// handle decodes one datagram and updates the buffer of its universe.
// Malformed and non-DMX packets are dropped without logging: on a shared
// port they are expected and frequent.
func (l *Listener) handle(b []byte) {
	p, err := Decode(b)
	switch {
	case errors.Is(err, ErrIgnoredOpcode):
		l.ignored.Add(1)
		metrics.IncPacket(metrics.PacketIgnoredOpcode)
		return
	case err != nil:
		l.invalid.Add(1)
		metrics.IncPacket(metrics.PacketInvalid)
		return
	}
	if !l.bufs.StoreBytes(int(p.Universe), p.Data) {
		l.unknown.Add(1)
		metrics.IncPacket(metrics.PacketUnknownUniverse)
		return
	}
	l.accepted.Add(1)
	metrics.IncPacket(metrics.PacketAccepted)
}

// Stats returns the listener counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Bound:           l.currentConn() != nil,
		Accepted:        l.accepted.Load(),
		Invalid:         l.invalid.Load(),
		IgnoredOpcode:   l.ignored.Load(),
		UnknownUniverse: l.unknown.Load(),
		ReceiveErrors:   l.recvErrors.Load(),
	}
}

func (l *Listener) Running() bool                         { return l.running.Load() }
func (l *Listener) Buffer(universe int) dmx.Buffer        { return l.bufs.Get(universe) }
func (l *Listener) Buffers() []dmx.Buffer                 { return l.bufs.All() }
func (l *Listener) Universes() []int                      { return l.bufs.Universes() }
func (l *Listener) Snapshot() ([]int, map[int]dmx.Buffer) { return l.bufs.Snapshot() }
func (l *Listener) Kind() dmx.Kind                        { return dmx.KindListener }

// SetUniverses replaces the monitored universe set. Safe while running.
func (l *Listener) SetUniverses(universes []int) bool {
	changed := l.bufs.SetUniverses(universes)
	if changed {
		l.logger.Info().
			Str(xglog.FieldEvent, "artnet.universes_changed").
			Ints(xglog.FieldUniverses, l.bufs.Universes()).
			Msg("universe set updated")
	}
	return changed
}
