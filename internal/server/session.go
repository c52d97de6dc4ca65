// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package server

import (
	"io"
	"net"
	"strconv"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"go.e43.eu/m3da"
	"go.e43.eu/m3da/internal/store"
	"go.e43.eu/m3da/pdu"
)

// ErrNoClientID is returned for an envelope without a usable `id` header
var ErrNoClientID = errors.New("server: envelope has no client id")

const readBufferSize = 4096

type session struct {
	srv    *Server
	conn   net.Conn
	logger kitlog.Logger

	envelopeDecoder m3da.EnvelopeDecoder
	payloadDecoder  m3da.Decoder

	bytesIn, bytesOut uint64
	envelopes         int
}

func (s *Server) newSession(conn net.Conn) *session {
	return &session{
		srv:             s,
		conn:            conn,
		logger:          kitlog.With(s.logger, "remote", conn.RemoteAddr()),
		envelopeDecoder: s.coder.NewEnvelopeDecoder(),
		payloadDecoder:  s.coder.NewDecoder(),
	}
}

func (ss *session) run() error {
	buf := make([]byte, readBufferSize)
	out := m3da.DecoderOutputFunc(ss.handle)

	for {
		if err := ss.conn.SetReadDeadline(time.Now().Add(ss.srv.opts.IdleTimeout)); err != nil {
			return errors.Wrap(err, "server: set read deadline")
		}

		n, err := ss.conn.Read(buf)
		if n > 0 {
			ss.bytesIn += uint64(n)
			ss.srv.metrics.Bytes.With("direction", "in").Add(float64(n))

			if derr := ss.envelopeDecoder.DecodeAndAccumulate(buf[:n], out); derr != nil {
				ss.srv.metrics.DecodeErrors.Add(1)
				return errors.Wrap(derr, "server: decode")
			}
		}

		switch {
		case err == nil:
		case err == io.EOF:
			if ferr := ss.envelopeDecoder.FinishDecode(); ferr != nil {
				ss.srv.metrics.DecodeErrors.Add(1)
				return errors.Wrap(ferr, "server: stream ended")
			}
			return nil
		case isTimeout(err):
			level.Debug(ss.logger).Log("event", "idle", "timeout", ss.srv.opts.IdleTimeout)
			return nil
		default:
			return errors.Wrap(err, "server: read")
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (ss *session) handle(v interface{}) error {
	start := time.Now()
	err := ss.handleEnvelope(v.(*pdu.Envelope))
	ss.srv.metrics.HandleDuration.
		With("error", strconv.FormatBool(err != nil)).
		Observe(time.Since(start).Seconds())
	return err
}

func (ss *session) handleEnvelope(env *pdu.Envelope) error {
	ss.envelopes++
	ss.srv.metrics.Envelopes.With("direction", "in").Add(1)

	clientID, ok := env.ClientID()
	if !ok {
		return ErrNoClientID
	}
	logger := kitlog.With(ss.logger, "client", clientID)

	if len(env.Payload) > 0 {
		msgs, err := ss.extract(logger, env.Payload)
		if err != nil {
			return err
		}

		if err := ss.srv.store.EnqueueReceived(clientID, ss.srv.now(), msgs); err != nil {
			return err
		}
		ss.srv.metrics.Messages.With("outcome", "stored").Add(float64(len(msgs)))
		level.Info(logger).Log("event", "stored", "messages", len(msgs))
	}

	return ss.reply(logger, clientID)
}

// extract decodes the Messages of a payload. Other PDUs are skipped.
func (ss *session) extract(logger kitlog.Logger, payload []byte) ([]store.Message, error) {
	var msgs []store.Message
	ignored := 0

	err := ss.payloadDecoder.DecodeAndAccumulate(payload, pdu.Global, m3da.DecoderOutputFunc(func(v interface{}) error {
		msg, ok := v.(*pdu.Message)
		if !ok {
			ignored++
			return nil
		}

		m, err := ToStoreMessage(msg)
		if err != nil {
			return err
		}
		msgs = append(msgs, m)
		return nil
	}))
	if err != nil {
		return nil, errors.Wrap(err, "server: payload")
	}

	if ignored > 0 {
		ss.srv.metrics.Messages.With("outcome", "ignored").Add(float64(ignored))
		level.Debug(logger).Log("event", "ignored payload values", "count", ignored)
	}
	return msgs, nil
}

// reply sends the data queued for clientID, if any
func (ss *session) reply(logger kitlog.Logger, clientID string) error {
	pending, err := ss.srv.store.PopToSend(clientID)
	if err != nil || len(pending) == 0 {
		return err
	}

	values := make([]interface{}, len(pending))
	for i := range pending {
		values[i] = pending[i]
	}

	payload, err := ss.srv.coder.Encode(pdu.Global, values...)
	if err != nil {
		return errors.Wrap(err, "server: encode reply payload")
	}

	buf, err := ss.srv.coder.EncodeEnvelope(&pdu.Envelope{
		Header:  pdu.Map{},
		Payload: payload,
		Footer:  pdu.Map{},
	})
	if err != nil {
		return errors.Wrap(err, "server: encode reply")
	}

	if err := ss.conn.SetWriteDeadline(time.Now().Add(ss.srv.opts.IdleTimeout)); err != nil {
		return errors.Wrap(err, "server: set write deadline")
	}
	n, err := ss.conn.Write(buf)
	ss.bytesOut += uint64(n)
	ss.srv.metrics.Bytes.With("direction", "out").Add(float64(n))
	if err != nil {
		return errors.Wrap(err, "server: write reply")
	}

	ss.srv.metrics.Envelopes.With("direction", "out").Add(1)
	ss.srv.metrics.Messages.With("outcome", "sent").Add(float64(len(pending)))
	level.Info(logger).Log("event", "replied", "messages", len(pending))
	return nil
}
