// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package m3da implements the Bysant serialization format and the M3DA
// protocol PDUs carried in it.
//
// Bysant is a compact, self-describing binary format. Every value starts with
// an opcode byte whose meaning depends on the current context; the context
// in force is decided by the enclosing value (map keys are always in
// UintsAndStrs, Envelope headers in ListAndMaps, and so on). Small values
// are stored in the opcode itself.
//
// The mapping from Go types to Bysant on encode is:
//
//                                Go | Bysant
//     ------------------------------+-----------------------------------
//              nil, nil ptr/map/... | null
//                              bool | boolean (Global only)
//                     int*, uint*   | number (Global, Numbers) or
//                                   | unsigned int (UintsAndStrs)
//                  float32, float64 | float / double
//                    string, []byte | string (chunked when large)
//                       []T, [N]T   | list
//             pdu.Map, map[K]V      | map (keys in UintsAndStrs)
//     pdu.TypedList, pdu.TypedMap   | typed list / map
//            pdu.Envelope, ...      | PDU (Global only)
//                         Marshaler | the value it returns
//
// Decoding produces nil, bool, int32, int64, uint32, float32, float64,
// []byte, []interface{}, pdu.Map or one of the PDU pointer types.
//
// Decoding is incremental: a Decoder keeps any incomplete trailing bytes
// between calls, so input may be fed in arbitrary fragments as it arrives
// from the network.
package m3da

import (
	m3dainterfaces "go.e43.eu/m3da/interfaces"
	"go.e43.eu/m3da/pdu"
)

// interface Coder is the top-level interface to the Bysant library
//
// A coder (which may be safely used from multiple threads) encodes values and
// constructs decoders.
type Coder = m3dainterfaces.Coder

// interface Encoder is the interface to the Bysant encoder
type Encoder = m3dainterfaces.Encoder

// interface Decoder is the interface to the accumulating Bysant decoder
type Decoder = m3dainterfaces.Decoder

// interface EnvelopeDecoder decodes a stream of M3DA envelopes
type EnvelopeDecoder = m3dainterfaces.EnvelopeDecoder

// interface DecoderOutput receives decoded values
type DecoderOutput = m3dainterfaces.DecoderOutput

// DecoderOutputFunc adapts a function to a DecoderOutput
type DecoderOutputFunc = m3dainterfaces.DecoderOutputFunc

// interface EncoderOutput receives encoded buffers
type EncoderOutput = m3dainterfaces.EncoderOutput

// interface Marshaler is implemented by types which represent themselves as
// another value when encoded
type Marshaler = m3dainterfaces.Marshaler

// Context selects an opcode table
type Context = pdu.Context

const (
	Global       = pdu.Global
	UintsAndStrs = pdu.UintsAndStrs
	Numbers      = pdu.Numbers
	ListAndMaps  = pdu.ListAndMaps
)
