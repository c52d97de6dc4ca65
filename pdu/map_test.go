// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapLookup(t *testing.T) {
	m := NewMap("id", []byte("dev1"), uint32(7), "seven")

	v, ok := m.Get("id")
	assert.True(t, ok)
	assert.Equal(t, []byte("dev1"), v)

	v, ok = m.Get(7)
	assert.True(t, ok)
	assert.Equal(t, "seven", v)

	_, ok = m.Get(-7)
	assert.False(t, ok)

	m = m.Set([]byte("id"), "dev2")
	assert.Len(t, m, 2)
	assert.Equal(t, []interface{}{"id", uint32(7)}, m.Keys())
	v, _ = m.Get("id")
	assert.Equal(t, "dev2", v)
}

func TestEnvelopeClientID(t *testing.T) {
	env := Envelope{Header: NewMap(HeaderID, []byte("222000222000222"))}
	id, ok := env.ClientID()
	assert.True(t, ok)
	assert.Equal(t, "222000222000222", id)

	env = Envelope{Header: NewMap(HeaderID, "dev1")}
	id, ok = env.ClientID()
	assert.True(t, ok)
	assert.Equal(t, "dev1", id)

	env = Envelope{}
	_, ok = env.ClientID()
	assert.False(t, ok)
}

func TestContextNames(t *testing.T) {
	assert.Equal(t, "LIST_AND_MAPS", ListAndMaps.String())
	assert.Equal(t, "Context(9)", Context(9).String())
	assert.True(t, Numbers.Supported())
	assert.False(t, Floats32.Supported())
	assert.Equal(t, "ENCRYPTION_NEEDED", StatusEncryptionNeeded.String())
}
