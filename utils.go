// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package m3da

import (
	"go.e43.eu/m3da/internal/coder"
	"go.e43.eu/m3da/pdu"
)

// The default coder (used by the package global functions)
var DefaultCoder coder.Coder

// Encode returns the concatenated encoding of values in ctx
func Encode(ctx Context, values ...interface{}) ([]byte, error) {
	return DefaultCoder.Encode(ctx, values...)
}

// EncodeTo encodes values in ctx and passes the result to out
func EncodeTo(out EncoderOutput, ctx Context, values ...interface{}) error {
	return DefaultCoder.EncodeTo(out, ctx, values...)
}

// Size returns the number of bytes Encode would produce
func Size(ctx Context, values ...interface{}) (int, error) {
	return DefaultCoder.Size(ctx, values...)
}

// EncodeEnvelope encodes a single envelope
func EncodeEnvelope(env *pdu.Envelope) ([]byte, error) {
	return DefaultCoder.EncodeEnvelope(env)
}

// Constructs a new accumulating decoder
func NewDecoder() Decoder {
	return DefaultCoder.NewDecoder()
}

// Constructs a new envelope decoder
func NewEnvelopeDecoder() EnvelopeDecoder {
	return DefaultCoder.NewEnvelopeDecoder()
}

// Construct a new Coder
func NewCoder() Coder {
	return coder.NewCoder()
}
