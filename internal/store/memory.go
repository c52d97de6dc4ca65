// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package store

import (
	"sort"
	"sync"
	"time"
)

// Memory is a Store which lives only as long as the process
type Memory struct {
	mu          sync.Mutex
	maxMessages int

	received map[string]map[int64][]Message
	toSend   map[string][]Message
}

var _ Store = &Memory{}

// NewMemory returns a store retaining maxMessages receptions per client
func NewMemory(maxMessages int) *Memory {
	return &Memory{
		maxMessages: maxMessages,
		received:    make(map[string]map[int64][]Message),
		toSend:      make(map[string][]Message),
	}
}

func (m *Memory) EnqueueReceived(clientID string, receivedAt time.Time, msgs []Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, ok := m.received[clientID]
	if !ok {
		queue = make(map[int64][]Message)
		m.received[clientID] = queue
	}
	queue[receivedAt.UnixNano()] = msgs

	if excess := len(queue) - m.maxMessages; excess > 0 {
		stamps := make([]int64, 0, len(queue))
		for ts := range queue {
			stamps = append(stamps, ts)
		}
		sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })
		for _, ts := range stamps[:excess] {
			delete(queue, ts)
		}
	}
	return nil
}

func (m *Memory) LastReceived(clientID string) (map[int64][]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, ok := m.received[clientID]
	if !ok {
		return nil, nil
	}

	out := make(map[int64][]Message, len(queue))
	for ts, msgs := range queue {
		out[ts] = msgs
	}
	return out, nil
}

func (m *Memory) EnqueueToSend(clientID string, msgs []Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.toSend[clientID] = append(m.toSend[clientID], msgs...)
	return nil
}

func (m *Memory) PopToSend(clientID string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := m.toSend[clientID]
	delete(m.toSend, clientID)
	return msgs, nil
}

func (m *Memory) Close() error {
	return nil
}
