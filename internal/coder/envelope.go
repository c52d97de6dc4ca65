// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	m3dainterfaces "go.e43.eu/m3da/interfaces"
	"go.e43.eu/m3da/internal/errors"
	"go.e43.eu/m3da/pdu"
)

// envelopeDecoder decodes a stream of Envelopes in the Global context.
//
// Each envelope is handed on as soon as it is complete. Until the output
// accepts it the decoder is in use and refuses further input.
type envelopeDecoder struct {
	d decoder

	inUse bool

	// parasite is the error for a non-envelope value seen in the stream.
	// Once set every later call fails with it.
	parasite error
}

var _ m3dainterfaces.EnvelopeDecoder = &envelopeDecoder{}

func newEnvelopeDecoder() *envelopeDecoder {
	return new(envelopeDecoder)
}

func (ed *envelopeDecoder) DecodeAndAccumulate(buf []byte, out m3dainterfaces.DecoderOutput) error {
	switch {
	case ed.inUse:
		return errors.ErrAlreadyUsed
	case ed.parasite != nil:
		return ed.parasite
	}

	return ed.d.decode(buf, globalContext, func(v interface{}) error {
		env, ok := v.(*pdu.Envelope)
		if !ok {
			ed.parasite = errors.UnexpectedValueError{Expected: errors.ErrNotEnvelope, Value: v}
			return ed.parasite
		}

		ed.inUse = true
		if err := out.Decoded(env); err != nil {
			return err
		}
		ed.inUse = false
		return nil
	})
}

func (ed *envelopeDecoder) FinishDecode() error {
	if err := ed.d.FinishDecode(); err != nil {
		return err
	}
	return ed.parasite
}
