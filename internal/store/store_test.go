// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package store

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.e43.eu/m3da/pdu"
)

type factory struct {
	Name string
	Open func(t *testing.T, maxMessages int) Store
}

var factories = []factory{
	{
		Name: "Memory",
		Open: func(t *testing.T, maxMessages int) Store {
			return NewMemory(maxMessages)
		},
	},
	{
		Name: "Badger",
		Open: func(t *testing.T, maxMessages int) Store {
			opts := BadgerOptions("", nil).WithInMemory(true)
			s, err := OpenBadger(opts, maxMessages, nil)
			require.NoError(t, err)
			return s
		},
	},
}

func forEachStore(t *testing.T, maxMessages int, fn func(t *testing.T, s Store)) {
	for _, f := range factories {
		t.Run(f.Name, func(t *testing.T) {
			s := f.Open(t, maxMessages)
			defer func() {
				assert.NoError(t, s.Close())
			}()
			fn(t, s)
		})
	}
}

func msg(path, key string, values ...interface{}) Message {
	return Message{Path: path, Data: map[string][]interface{}{key: values}}
}

var epoch = time.Unix(1600000000, 0)

func TestReceivedRoundTrip(t *testing.T) {
	forEachStore(t, 10, func(t *testing.T, s Store) {
		in := []Message{
			msg("@sys.sensors", "temp", 21.5, 22.25),
			msg("@sys.sensors", "count", int64(3), int64(-4), int64(300000)),
			msg("@sys.info", "name", "dev1", true, nil),
		}
		require.NoError(t, s.EnqueueReceived("dev1", epoch, in))

		got, err := s.LastReceived("dev1")
		require.NoError(t, err)
		assert.Equal(t, map[int64][]Message{epoch.UnixNano(): in}, got)
	})
}

func TestReceivedNestedValues(t *testing.T) {
	forEachStore(t, 10, func(t *testing.T, s Store) {
		in := []Message{msg("@sys", "cfg",
			[]interface{}{int64(1), "two"},
			map[string]interface{}{"a": int64(1), "b": []interface{}{"x"}},
		)}
		require.NoError(t, s.EnqueueReceived("dev1", epoch, in))

		got, err := s.LastReceived("dev1")
		require.NoError(t, err)
		assert.Equal(t, in, got[epoch.UnixNano()])
	})
}

func TestLastReceivedUnknownClient(t *testing.T) {
	forEachStore(t, 10, func(t *testing.T, s Store) {
		got, err := s.LastReceived("nobody")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestReceivedIsBounded(t *testing.T) {
	forEachStore(t, 3, func(t *testing.T, s Store) {
		for i := 0; i < 5; i++ {
			at := epoch.Add(time.Duration(i) * time.Second)
			require.NoError(t, s.EnqueueReceived("dev1", at, []Message{msg("@p", "i", int64(i))}))
		}

		got, err := s.LastReceived("dev1")
		require.NoError(t, err)
		require.Len(t, got, 3)

		// the two oldest receptions are purged
		for i := 2; i < 5; i++ {
			at := epoch.Add(time.Duration(i) * time.Second).UnixNano()
			assert.Equal(t, []Message{msg("@p", "i", int64(i))}, got[at])
		}
	})
}

func TestClientsAreSeparate(t *testing.T) {
	forEachStore(t, 10, func(t *testing.T, s Store) {
		require.NoError(t, s.EnqueueReceived("dev", epoch, []Message{msg("@a", "k", "short")}))
		require.NoError(t, s.EnqueueReceived("dev1", epoch, []Message{msg("@b", "k", "long")}))

		got, err := s.LastReceived("dev")
		require.NoError(t, err)
		assert.Equal(t, map[int64][]Message{epoch.UnixNano(): {msg("@a", "k", "short")}}, got)

		require.NoError(t, s.EnqueueToSend("dev1", []Message{msg("@c", "k", "queued")}))
		pending, err := s.PopToSend("dev")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestSendQueue(t *testing.T) {
	forEachStore(t, 10, func(t *testing.T, s Store) {
		require.NoError(t, s.EnqueueToSend("dev1", []Message{msg("@a", "k", int64(1))}))
		require.NoError(t, s.EnqueueToSend("dev1", []Message{
			msg("@b", "k", int64(2)),
			msg("@c", "k", int64(3)),
		}))

		got, err := s.PopToSend("dev1")
		require.NoError(t, err)
		assert.Equal(t, []Message{
			msg("@a", "k", int64(1)),
			msg("@b", "k", int64(2)),
			msg("@c", "k", int64(3)),
		}, got)

		// popping drains the queue
		got, err = s.PopToSend("dev1")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMessageMarshalBysant(t *testing.T) {
	m := Message{
		Path: "@sys.commands",
		Data: map[string][]interface{}{
			"reboot": {true},
			"delay":  {int64(5)},
		},
	}

	v, err := m.MarshalBysant()
	require.NoError(t, err)
	assert.Equal(t, &pdu.Message{
		Path:     "@sys.commands",
		TicketID: pdu.Ticket(0),
		Body: pdu.NewMap(
			"delay", []interface{}{int64(5)},
			"reboot", []interface{}{true},
		),
	}, v)
}

func TestBadgerKeysSortInOrder(t *testing.T) {
	p := clientPrefix(recvPrefix, "dev1")
	assert.Equal(t, []byte("recv/dev1\x00"), p)

	a, b := itemKey(p, 255), itemKey(p, 256)
	assert.Equal(t, -1, bytes.Compare(a, b))
}
