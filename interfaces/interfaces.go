// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package m3dainterfaces defines the primary interfaces of the Bysant codec
//
// (This package is primarily separated out in order to permit the implementation to
// be broken down into multiple packages)
package m3dainterfaces

import "go.e43.eu/m3da/pdu"

// interface DecoderOutput receives each fully decoded top level value, in
// the order in which they were encountered. Returning an error stops the
// decoder; the error is returned from DecodeAndAccumulate.
type DecoderOutput interface {
	Decoded(v interface{}) error
}

// DecoderOutputFunc adapts a function to a DecoderOutput
type DecoderOutputFunc func(v interface{}) error

func (f DecoderOutputFunc) Decoded(v interface{}) error {
	return f(v)
}

// interface EncoderOutput receives one finished buffer per Encode call
type EncoderOutput interface {
	Encoded(buf []byte) error
}

// interface Marshaler is implemented by types which know how to represent
// themselves as a value the encoder supports (for example a pdu.Message or a
// pdu.Map)
type Marshaler interface {
	MarshalBysant() (interface{}, error)
}

// interface Encoder is the interface to the Bysant encoder
//
// Encoders hold no state between calls and may be used from multiple
// goroutines at once.
type Encoder interface {
	// Encode returns the concatenated encoding of values in context ctx. The
	// returned buffer is sized exactly.
	Encode(ctx pdu.Context, values ...interface{}) ([]byte, error)

	// EncodeTo encodes values like Encode and passes the buffer to out
	EncodeTo(out EncoderOutput, ctx pdu.Context, values ...interface{}) error

	// Size returns the number of bytes Encode would produce
	Size(ctx pdu.Context, values ...interface{}) (int, error)
}

// interface Decoder is the interface to the accumulating Bysant decoder
//
// A Decoder must be owned by a single connection or session and must not be
// used concurrently.
type Decoder interface {
	// DecodeAndAccumulate appends buf to any bytes retained by a previous
	// call, then decodes as many complete values as possible in context ctx,
	// handing each to out. Incomplete trailing bytes are kept for the next
	// call.
	DecodeAndAccumulate(buf []byte, ctx pdu.Context, out DecoderOutput) error

	// FinishDecode fails if bytes are still retained
	FinishDecode() error

	// Buffered returns the number of retained bytes
	Buffered() int
}

// interface EnvelopeDecoder decodes a stream made only of Envelopes
//
// Every value handed to out is a *pdu.Envelope.
type EnvelopeDecoder interface {
	DecodeAndAccumulate(buf []byte, out DecoderOutput) error
	FinishDecode() error
}

// interface Coder is the top-level interface to the Bysant library
//
// A coder (which may be safely used from multiple threads) encodes values
// and constructs decoders.
type Coder interface {
	Encoder

	// EncodeEnvelope encodes exactly one Envelope in the Global context
	EncodeEnvelope(env *pdu.Envelope) ([]byte, error)

	// Constructs a new accumulating decoder
	NewDecoder() Decoder

	// Constructs a new envelope decoder
	NewEnvelopeDecoder() EnvelopeDecoder
}
