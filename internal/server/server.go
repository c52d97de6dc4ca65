// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package server accepts M3DA device connections over TCP.
//
// Each connection is a session with its own envelope and payload decoders.
// For every envelope received the Messages of its payload are stored, then
// any data queued for the client is sent back in a reply envelope.
package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"go.e43.eu/m3da"
	"go.e43.eu/m3da/internal/observability"
	"go.e43.eu/m3da/internal/store"
)

type Options struct {
	// IdleTimeout closes a session after this long without input
	IdleTimeout time.Duration

	// Workers bounds the number of sessions served at once. Further
	// connections wait until a session ends.
	Workers int64
}

type Server struct {
	opts    Options
	store   store.Store
	coder   m3da.Coder
	logger  kitlog.Logger
	metrics *observability.Metrics
	sem     *semaphore.Weighted

	// now is the clock used to timestamp receptions
	now func() time.Time
}

// New returns a server storing into st. A nil metrics gets a private
// instance.
func New(st store.Store, opts Options, logger kitlog.Logger, metrics *observability.Metrics) *Server {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	return &Server{
		opts:    opts,
		store:   st,
		coder:   m3da.NewCoder(),
		logger:  observability.Component(logger, "server"),
		metrics: metrics,
		sem:     semaphore.NewWeighted(opts.Workers),
		now:     time.Now,
	}
}

// ListenAndServe listens on the TCP address addr and serves it until ctx is
// done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "server: listen on %s", addr)
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done, then closes l and waits
// for the open sessions to end
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	level.Info(s.logger).Log("event", "listening", "addr", l.Addr())

	// sessions are cancelled before they are waited for
	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				level.Info(s.logger).Log("event", "stopped", "addr", l.Addr())
				return nil
			}
			return errors.Wrap(err, "server: accept")
		}

		if err := s.sem.Acquire(ctx, 1); err != nil {
			conn.Close()
			return nil
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.sem.Release(1)

			if err := s.ServeConn(ctx, conn); err != nil {
				level.Warn(s.logger).Log("event", "session failed", "remote", conn.RemoteAddr(), "err", err)
			}
		}()
	}
}

// ServeConn runs one session on conn and closes it. It returns nil when the
// peer closes the connection or the session is idle for too long.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	ss := s.newSession(conn)

	s.metrics.Sessions.Add(1)
	defer s.metrics.Sessions.Add(-1)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	level.Debug(ss.logger).Log("event", "session opened")
	err := ss.run()
	conn.Close()

	level.Debug(ss.logger).Log("event", "session closed",
		"read", humanize.Bytes(ss.bytesIn),
		"written", humanize.Bytes(ss.bytesOut),
		"envelopes", ss.envelopes)

	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
