// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package m3da

import (
	"strings"

	"go.e43.eu/m3da/internal/errors"
)

// ErrUnknownAlgorithm is returned for cipher or HMAC names which are not
// part of the protocol
const ErrUnknownAlgorithm = errors.ErrUnknownAlgorithm

// Cipher describes a payload cipher negotiated by name
type Cipher struct {
	Name string

	// Transformation in the conventional Algorithm/Mode/Padding form
	Transformation string

	// KeyLength in bytes
	KeyLength int
}

// HMAC describes an authentication algorithm negotiated by name
type HMAC struct {
	Name      string
	Algorithm string
}

var ciphers = []Cipher{
	{"aes-cbc-128", "AES/CBC/PKCS5Padding", 16},
	{"aes-cbc-256", "AES/CBC/PKCS5Padding", 32},
	{"aes-ctr-128", "AES/CTR/NoPadding", 16},
	{"aes-ctr-256", "AES/CTR/NoPadding", 32},
}

var hmacs = []HMAC{
	{"hmac-md5", "MD5"},
	{"hmac-sha1", "SHA1"},
}

// CipherByName looks up a cipher; names are case-insensitive
func CipherByName(name string) (Cipher, error) {
	for _, c := range ciphers {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Cipher{}, errors.AlgorithmError{Kind: "cipher", Name: name}
}

// HMACByName looks up an HMAC algorithm; names are case-insensitive
func HMACByName(name string) (HMAC, error) {
	for _, h := range hmacs {
		if strings.EqualFold(h.Name, name) {
			return h, nil
		}
	}
	return HMAC{}, errors.AlgorithmError{Kind: "hmac", Name: name}
}
