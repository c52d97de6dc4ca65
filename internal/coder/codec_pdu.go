// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"fmt"
	"math"
	"unicode/utf8"

	"go.e43.eu/m3da/internal/errors"
	"go.e43.eu/m3da/pdu"
)

// pduHeader writes the opcode of a PDU, which may only appear in contexts
// with a pdu table
func (e *encoder) pduHeader(c *context, op func(*pduEncoding) byte) error {
	if c.pdus == nil {
		return errors.ErrUnsupportedValue
	}
	e.byte(op(c.pdus))
	return nil
}

// encodeMapField writes m in LIST_AND_MAPS, writing nil as an empty map
func (e *encoder) encodeMapField(m pdu.Map) error {
	if m == nil {
		m = pdu.Map{}
	}
	return e.encodeMap(listAndMapsContext, nil, m)
}

func (e *encoder) encodeEnvelope(c *context, env *pdu.Envelope) error {
	if env == nil {
		e.encodeNull()
		return nil
	}
	if err := e.pduHeader(c, func(p *pduEncoding) byte { return p.envelopeOp }); err != nil {
		return err
	}

	if err := e.encodeMapField(env.Header); err != nil {
		return errors.WithFieldError(err, "Envelope", "header")
	}

	payload := env.Payload
	if payload == nil {
		payload = []byte{}
	}
	if err := e.encodeBinary(uintsAndStrsContext, payload); err != nil {
		return errors.WithFieldError(err, "Envelope", "payload")
	}

	if err := e.encodeMapField(env.Footer); err != nil {
		return errors.WithFieldError(err, "Envelope", "footer")
	}
	return nil
}

func (e *encoder) encodeMessage(c *context, m *pdu.Message) error {
	if m == nil {
		e.encodeNull()
		return nil
	}
	if err := e.pduHeader(c, func(p *pduEncoding) byte { return p.messageOp }); err != nil {
		return err
	}

	if err := e.encodeString(uintsAndStrsContext, m.Path); err != nil {
		return errors.WithFieldError(err, "Message", "path")
	}

	if m.TicketID == nil {
		e.encodeNull()
	} else if err := e.encodeUnsigned(uintsAndStrsContext, *m.TicketID); err != nil {
		return errors.WithFieldError(err, "Message", "ticket")
	}

	if err := e.encodeMapField(m.Body); err != nil {
		return errors.WithFieldError(err, "Message", "body")
	}
	return nil
}

func (e *encoder) encodeResponse(c *context, r *pdu.Response) error {
	if r == nil {
		e.encodeNull()
		return nil
	}
	if err := e.pduHeader(c, func(p *pduEncoding) byte { return p.responseOp }); err != nil {
		return err
	}

	if err := e.encodeUnsigned(uintsAndStrsContext, r.TicketID); err != nil {
		return errors.WithFieldError(err, "Response", "ticket")
	}

	e.encodeSigned(numbersContext.numbers, int64(r.Status))

	if r.Message == nil {
		e.encodeNull()
	} else if err := e.encodeString(uintsAndStrsContext, *r.Message); err != nil {
		return errors.WithFieldError(err, "Response", "message")
	}
	return nil
}

// encodeVectorNumber writes a numeric vector field in NUMBERS
func (e *encoder) encodeVectorNumber(v interface{}) error {
	if !pdu.IsNumeric(v) {
		return errors.UnexpectedValueError{Expected: errors.ErrInvalidValue, Value: v}
	}
	return e.encodeValue(numbersContext, v)
}

// encodeVectorList writes the deltas or shifts of a vector as a
// LIST_AND_MAPS list of GLOBAL numbers
func (e *encoder) encodeVectorList(vs []interface{}) error {
	if err := e.collectionHeader(listAndMapsContext.lists, len(vs), nil); err != nil {
		return err
	}

	for i, v := range vs {
		if !pdu.IsNumeric(v) {
			return errors.WithFieldError(
				errors.UnexpectedValueError{Expected: errors.ErrInvalidValue, Value: v},
				fmt.Sprintf("[%d]", i))
		}
		if err := e.encodeValue(globalContext, v); err != nil {
			return errors.WithFieldError(err, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

func (e *encoder) encodeDeltasVector(c *context, v *pdu.DeltasVector) error {
	if v == nil {
		e.encodeNull()
		return nil
	}
	if err := e.pduHeader(c, func(p *pduEncoding) byte { return p.deltasVectorOp }); err != nil {
		return err
	}

	if err := e.encodeVectorNumber(v.Factor); err != nil {
		return errors.WithFieldError(err, "DeltasVector", "factor")
	}
	if err := e.encodeVectorNumber(v.Start); err != nil {
		return errors.WithFieldError(err, "DeltasVector", "start")
	}
	if err := e.encodeVectorList(v.Deltas); err != nil {
		return errors.WithFieldError(err, "DeltasVector", "deltas")
	}
	return nil
}

func (e *encoder) encodeQuasiPeriodicVector(c *context, v *pdu.QuasiPeriodicVector) error {
	if v == nil {
		e.encodeNull()
		return nil
	}
	if err := e.pduHeader(c, func(p *pduEncoding) byte { return p.quasiPeriodicVectorOp }); err != nil {
		return err
	}

	if err := e.encodeVectorNumber(v.Period); err != nil {
		return errors.WithFieldError(err, "QuasiPeriodicVector", "period")
	}
	if err := e.encodeVectorNumber(v.Start); err != nil {
		return errors.WithFieldError(err, "QuasiPeriodicVector", "start")
	}
	if err := e.encodeVectorList(v.Shifts); err != nil {
		return errors.WithFieldError(err, "QuasiPeriodicVector", "shifts")
	}
	return nil
}

func decodePDUBody(r *reader, p *pduEncoding, op byte) (interface{}, error) {
	switch op {
	case p.envelopeOp:
		return decodeEnvelope(r)
	case p.messageOp:
		return decodeMessage(r)
	case p.responseOp:
		return decodeResponse(r)
	case p.deltasVectorOp:
		return decodeDeltasVector(r)
	case p.quasiPeriodicVectorOp:
		return decodeQuasiPeriodicVector(r)
	default:
		return nil, errors.OpcodeError{Opcode: op, Context: pdu.Global, Kind: "pdu"}
	}
}

func decodeEnvelope(r *reader) (*pdu.Envelope, error) {
	env := new(pdu.Envelope)
	var err error

	if env.Header, err = readMap(r, listAndMapsContext); err != nil {
		return nil, fieldError(err, "Envelope", "header")
	}
	if env.Header == nil {
		env.Header = pdu.Map{}
	}

	if env.Payload, _, err = readString(r, uintsAndStrsContext); err != nil {
		return nil, fieldError(err, "Envelope", "payload")
	}
	if env.Payload == nil {
		env.Payload = []byte{}
	}

	if env.Footer, err = readMap(r, listAndMapsContext); err != nil {
		return nil, fieldError(err, "Envelope", "footer")
	}
	if env.Footer == nil {
		env.Footer = pdu.Map{}
	}
	return env, nil
}

// readText reads an optional UTF-8 string
func readText(r *reader) (*string, error) {
	b, ok, err := readString(r, uintsAndStrsContext)
	switch {
	case err != nil:
		return nil, err
	case !ok:
		return nil, nil
	case !utf8.Valid(b):
		return nil, errors.ErrInvalidUTF8
	}
	s := string(b)
	return &s, nil
}

func decodeMessage(r *reader) (*pdu.Message, error) {
	msg := new(pdu.Message)

	path, err := readText(r)
	switch {
	case err != nil:
		return nil, fieldError(err, "Message", "path")
	case path == nil:
		return nil, fieldError(errors.UnexpectedValueError{Expected: errors.ErrInvalidValue}, "Message", "path")
	}
	msg.Path = *path

	ticket, ok, err := readUint(r, uintsAndStrsContext)
	if err != nil {
		return nil, fieldError(err, "Message", "ticket")
	}
	if ok {
		msg.TicketID = pdu.Ticket(ticket)
	}

	if msg.Body, err = readMap(r, listAndMapsContext); err != nil {
		return nil, fieldError(err, "Message", "body")
	}
	return msg, nil
}

func decodeResponse(r *reader) (*pdu.Response, error) {
	resp := new(pdu.Response)
	var err error

	if resp.TicketID, _, err = readUint(r, uintsAndStrsContext); err != nil {
		return nil, fieldError(err, "Response", "ticket")
	}

	status, err := readNumber(r, numbersContext)
	if err != nil {
		return nil, fieldError(err, "Response", "status")
	}
	switch s := status.(type) {
	case int32:
		resp.Status = pdu.StatusCode(s)
	case int64:
		if s < math.MinInt32 || s > math.MaxInt32 {
			return nil, fieldError(errors.RangeError{Value: s, Context: pdu.Numbers}, "Response", "status")
		}
		resp.Status = pdu.StatusCode(s)
	default:
		return nil, fieldError(errors.UnexpectedValueError{Expected: errors.ErrInvalidValue, Value: status}, "Response", "status")
	}

	if resp.Message, err = readText(r); err != nil {
		return nil, fieldError(err, "Response", "message")
	}
	return resp, nil
}

// readVectorNumber reads a mandatory numeric vector field
func readVectorNumber(r *reader) (interface{}, error) {
	v, err := readNumber(r, numbersContext)
	if err == nil && v == nil {
		err = errors.UnexpectedValueError{Expected: errors.ErrInvalidValue, Value: v}
	}
	return v, err
}

// readVectorList reads the deltas or shifts of a vector, all of which must
// be numeric
func readVectorList(r *reader) ([]interface{}, error) {
	vs, err := readList(r, listAndMapsContext)
	if err != nil {
		return nil, err
	}
	if vs == nil {
		return []interface{}{}, nil
	}
	for i, v := range vs {
		if !pdu.IsNumeric(v) {
			return nil, fieldError(
				errors.UnexpectedValueError{Expected: errors.ErrInvalidValue, Value: v},
				fmt.Sprintf("[%d]", i))
		}
	}
	return vs, nil
}

func decodeDeltasVector(r *reader) (*pdu.DeltasVector, error) {
	v := new(pdu.DeltasVector)
	var err error

	if v.Factor, err = readVectorNumber(r); err != nil {
		return nil, fieldError(err, "DeltasVector", "factor")
	}
	if v.Start, err = readVectorNumber(r); err != nil {
		return nil, fieldError(err, "DeltasVector", "start")
	}
	if v.Deltas, err = readVectorList(r); err != nil {
		return nil, fieldError(err, "DeltasVector", "deltas")
	}
	return v, nil
}

func decodeQuasiPeriodicVector(r *reader) (*pdu.QuasiPeriodicVector, error) {
	v := new(pdu.QuasiPeriodicVector)
	var err error

	if v.Period, err = readVectorNumber(r); err != nil {
		return nil, fieldError(err, "QuasiPeriodicVector", "period")
	}
	if v.Start, err = readVectorNumber(r); err != nil {
		return nil, fieldError(err, "QuasiPeriodicVector", "start")
	}
	if v.Shifts, err = readVectorList(r); err != nil {
		return nil, fieldError(err, "QuasiPeriodicVector", "shifts")
	}
	return v, nil
}
