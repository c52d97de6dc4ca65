// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package pdu

import "unicode/utf8"

// Envelope is the outermost M3DA PDU. Its payload is itself a stream of
// Bysant values encoded in the Global context.
type Envelope struct {
	Header  Map
	Payload []byte
	Footer  Map
}

// ClientID returns the `id` header as a string. Devices send it either as a
// string or as binary.
func (e *Envelope) ClientID() (string, bool) {
	v, ok := e.Header.Get(HeaderID)
	if !ok {
		return "", false
	}

	switch v := v.(type) {
	case []byte:
		return string(v), utf8.Valid(v)
	case string:
		return v, true
	default:
		return "", false
	}
}

// Message carries a body of values addressed to a path
type Message struct {
	Path string

	// TicketID is nil when the message does not expect an acknowledgement
	TicketID *uint64

	Body Map
}

// Response acknowledges the Message with the same ticket
type Response struct {
	TicketID uint64
	Status   StatusCode

	// Message is nil when no message was sent
	Message *string
}

// Ticket returns a pointer to t, for use as Message.TicketID
func Ticket(t uint64) *uint64 {
	return &t
}
