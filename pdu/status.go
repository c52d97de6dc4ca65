// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package pdu

import "fmt"

// StatusCode is the protocol status carried in a Response or in the `status`
// header of an Envelope
type StatusCode int32

const (
	StatusOK                     StatusCode = 200
	StatusBadRequest             StatusCode = 400
	StatusUnauthorized           StatusCode = 401
	StatusForbidden              StatusCode = 403
	StatusAuthenticationRequired StatusCode = 407
	StatusEncryptionNeeded       StatusCode = 450
	StatusShortcutMapError       StatusCode = 451
	StatusUnexpectedError        StatusCode = 500
	StatusServiceUnavailable     StatusCode = 503
)

var statusNames = map[StatusCode]string{
	StatusOK:                     "OK",
	StatusBadRequest:             "BAD_REQUEST",
	StatusUnauthorized:           "UNAUTHORIZED",
	StatusForbidden:              "FORBIDDEN",
	StatusAuthenticationRequired: "AUTHENTICATION_REQUIRED",
	StatusEncryptionNeeded:       "ENCRYPTION_NEEDED",
	StatusShortcutMapError:       "SHORTCUT_MAP_ERROR",
	StatusUnexpectedError:        "UNEXPECTED_ERROR",
	StatusServiceUnavailable:     "SERVICE_UNAVAILABLE",
}

func (s StatusCode) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("StatusCode(%d)", int32(s))
}

// Envelope header and footer keys
const (
	HeaderID            = "id"
	HeaderStatus        = "status"
	HeaderNonce         = "nonce"
	HeaderChallenge     = "challenge"
	HeaderMAC           = "mac"
	HeaderAutoregSalt   = "autoreg_salt"
	HeaderAutoregPubkey = "autoreg_pubkey"
	HeaderAutoregCtext  = "autoreg_ctext"
	HeaderAutoregMAC    = "autoreg_mac"
)
