// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package store keeps the data received from devices and the data waiting
// to be sent to them.
package store

import (
	"sort"
	"time"

	"go.e43.eu/m3da/pdu"
)

// Message is the stored form of an M3DA message: every body entry is a list
// of plain values (nil, bool, int64, float64, string, []interface{} or
// map[string]interface{}).
type Message struct {
	Path string                   `cbor:"path" json:"path"`
	Data map[string][]interface{} `cbor:"data" json:"data"`
}

// MarshalBysant converts the message to the PDU sent to a device, with
// ticket 0 and the body keys in order
func (m Message) MarshalBysant() (interface{}, error) {
	keys := make([]string, 0, len(m.Data))
	for k := range m.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	body := make(pdu.Map, 0, len(keys))
	for _, k := range keys {
		body = append(body, pdu.MapEntry{Key: k, Value: m.Data[k]})
	}

	return &pdu.Message{
		Path:     m.Path,
		TicketID: pdu.Ticket(0),
		Body:     body,
	}, nil
}

// Store is implemented by the storage backends. All methods are safe for
// concurrent use.
type Store interface {
	// EnqueueReceived records the messages of one reception. Only the
	// most recent receptions of each client are kept.
	EnqueueReceived(clientID string, receivedAt time.Time, msgs []Message) error

	// LastReceived returns the retained receptions of a client keyed by
	// reception time in nanoseconds
	LastReceived(clientID string) (map[int64][]Message, error)

	// EnqueueToSend appends messages to the queue of a client
	EnqueueToSend(clientID string, msgs []Message) error

	// PopToSend drains the queue of a client, oldest first
	PopToSend(clientID string) ([]Message, error)

	Close() error
}
