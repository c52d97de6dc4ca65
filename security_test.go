// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package m3da

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.e43.eu/m3da/internal/errors"
)

func TestCipherByName(t *testing.T) {
	c, err := CipherByName("AES-CTR-256")
	require.NoError(t, err)
	assert.Equal(t, Cipher{"aes-ctr-256", "AES/CTR/NoPadding", 32}, c)

	c, err = CipherByName("aes-cbc-128")
	require.NoError(t, err)
	assert.Equal(t, "AES/CBC/PKCS5Padding", c.Transformation)
	assert.Equal(t, 16, c.KeyLength)

	_, err = CipherByName("des")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
	assert.Equal(t, errors.AlgorithmError{Kind: "cipher", Name: "des"}, err)
	assert.Equal(t, `m3da: Unknown algorithm (cipher "des")`, err.Error())
}

func TestHMACByName(t *testing.T) {
	h, err := HMACByName("HMAC-SHA1")
	require.NoError(t, err)
	assert.Equal(t, "SHA1", h.Algorithm)

	h, err = HMACByName("hmac-md5")
	require.NoError(t, err)
	assert.Equal(t, "MD5", h.Algorithm)

	_, err = HMACByName("hmac-sha256")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}
