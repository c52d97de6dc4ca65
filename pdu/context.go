// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package pdu defines the values carried by M3DA: the Bysant contexts, the
// ordered map and typed collection wrappers, and the five protocol data
// units (Envelope, Message, Response, DeltasVector, QuasiPeriodicVector).
//
// These types carry no codec logic of their own; see the m3da package for
// encoding and decoding.
package pdu

import "fmt"

// Context names one of the Bysant opcode tables. Every value is encoded and
// decoded relative to a context; typed lists and maps embed the context id
// of their elements as a single byte.
type Context uint8

const (
	Global       Context = 0
	UintsAndStrs Context = 1
	Numbers      Context = 2

	// Reserved ids with no opcode table. They are accepted as names, but
	// nothing can be encoded or decoded in them.
	SignedInts32 Context = 3
	Floats32     Context = 4
	Doubles64    Context = 5

	ListAndMaps Context = 6
)

var contextNames = [...]string{
	Global:       "GLOBAL",
	UintsAndStrs: "UINTS_AND_STRS",
	Numbers:      "NUMBERS",
	SignedInts32: "SIGNED_INTS32",
	Floats32:     "FLOATS32",
	Doubles64:    "DOUBLES64",
	ListAndMaps:  "LIST_AND_MAPS",
}

func (c Context) String() string {
	if int(c) < len(contextNames) {
		return contextNames[c]
	}
	return fmt.Sprintf("Context(%d)", uint8(c))
}

// Supported reports whether c has an opcode table
func (c Context) Supported() bool {
	switch c {
	case Global, UintsAndStrs, Numbers, ListAndMaps:
		return true
	default:
		return false
	}
}
