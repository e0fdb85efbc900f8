// Package proto implements the binary wire codec for PowerCable's
// market and retail-reservation messages. Tick and chart telemetry stay
// plain JSON (see internal/model); this package only covers the types
// spec.md's external-interface table marks as binary.
package proto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"powercable/internal/model"
)

// Type tags identify the payload that follows the length prefix.
const (
	TypeOffer         byte = 1
	TypeChargeRequest byte = 2
	TypeChargeOffer   byte = 3
	TypeChargeAccept  byte = 4
	TypeGet           byte = 5
)

var errShortBuffer = errors.New("proto: buffer too short")

func putString(buf []byte, s string) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}

func getString(buf []byte) (string, []byte, error) {
	if len(buf) < 4 {
		return "", nil, errShortBuffer
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint32(len(buf)) < n {
		return "", nil, errShortBuffer
	}
	return string(buf[:n]), buf[n:], nil
}

func putFloat(buf []byte, f float64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
	return append(buf, b[:]...)
}

func getFloat(buf []byte) (float64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, errShortBuffer
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:8])), buf[8:], nil
}

func putPosition(buf []byte, p model.Position) []byte {
	buf = putFloat(buf, p.Latitude)
	buf = putFloat(buf, p.Longitude)
	return buf
}

func getPosition(buf []byte) (model.Position, []byte, error) {
	lat, buf, err := getFloat(buf)
	if err != nil {
		return model.Position{}, nil, err
	}
	lon, buf, err := getFloat(buf)
	if err != nil {
		return model.Position{}, nil, err
	}
	return model.Position{Latitude: lat, Longitude: lon}, buf, nil
}

// frame wraps a type tag and length-prefixed payload, matching spec.md
// §6's "binary, length-prefixed" wire description.
func frame(tag byte, payload []byte) []byte {
	out := make([]byte, 0, 5+len(payload))
	out = append(out, tag)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	out = append(out, lenBuf[:]...)
	out = append(out, payload...)
	return out
}

// unframe strips the tag and length prefix, verifying the declared length
// matches what remains, and returns the tag plus the payload slice.
func unframe(buf []byte) (byte, []byte, error) {
	if len(buf) < 5 {
		return 0, nil, errShortBuffer
	}
	tag := buf[0]
	n := binary.BigEndian.Uint32(buf[1:5])
	payload := buf[5:]
	if uint32(len(payload)) != n {
		return 0, nil, fmt.Errorf("proto: length mismatch: header says %d, got %d", n, len(payload))
	}
	return tag, payload, nil
}

// EncodeOffer serializes an Offer to its binary wire form. The same wire
// shape carries all three stages of the auction (market/buy_offer,
// market/accept_buy_offer with AcceptedBy set, market/ack_accept_buy_offer
// with AckFor set too), matching original_source's single Offer struct
// reused across all three topics.
func EncodeOffer(o model.Offer) []byte {
	var p []byte
	p = putString(p, o.ID)
	p = putFloat(p, o.Price)
	p = putFloat(p, o.AmountKW)
	p = putPosition(p, o.Position)
	p = putString(p, o.AcceptedBy)
	p = putString(p, o.AckFor)
	return frame(TypeOffer, p)
}

// DecodeOffer parses a binary-encoded Offer.
func DecodeOffer(buf []byte) (model.Offer, error) {
	tag, p, err := unframe(buf)
	if err != nil {
		return model.Offer{}, err
	}
	if tag != TypeOffer {
		return model.Offer{}, fmt.Errorf("proto: expected Offer tag %d, got %d", TypeOffer, tag)
	}
	var o model.Offer
	id, p, err := getString(p)
	if err != nil {
		return model.Offer{}, err
	}
	o.ID = id
	price, p, err := getFloat(p)
	if err != nil {
		return model.Offer{}, err
	}
	o.Price = price
	amount, p, err := getFloat(p)
	if err != nil {
		return model.Offer{}, err
	}
	o.AmountKW = amount
	pos, p, err := getPosition(p)
	if err != nil {
		return model.Offer{}, err
	}
	o.Position = pos
	acceptedBy, p, err := getString(p)
	if err != nil {
		return model.Offer{}, err
	}
	o.AcceptedBy = acceptedBy
	ackFor, _, err := getString(p)
	if err != nil {
		return model.Offer{}, err
	}
	o.AckFor = ackFor
	return o, nil
}

// EncodeChargeRequest serializes a ChargeRequest.
func EncodeChargeRequest(r model.ChargeRequest) []byte {
	var p []byte
	p = putString(p, r.ID)
	p = putString(p, r.Vehicle)
	p = putPosition(p, r.Position)
	p = putFloat(p, r.NeededKW)
	p = putFloat(p, r.ConsumptionPer100km)
	return frame(TypeChargeRequest, p)
}

// DecodeChargeRequest parses a binary-encoded ChargeRequest.
func DecodeChargeRequest(buf []byte) (model.ChargeRequest, error) {
	tag, p, err := unframe(buf)
	if err != nil {
		return model.ChargeRequest{}, err
	}
	if tag != TypeChargeRequest {
		return model.ChargeRequest{}, fmt.Errorf("proto: expected ChargeRequest tag %d, got %d", TypeChargeRequest, tag)
	}
	var r model.ChargeRequest
	id, p, err := getString(p)
	if err != nil {
		return model.ChargeRequest{}, err
	}
	r.ID = id
	vehicle, p, err := getString(p)
	if err != nil {
		return model.ChargeRequest{}, err
	}
	r.Vehicle = vehicle
	pos, p, err := getPosition(p)
	if err != nil {
		return model.ChargeRequest{}, err
	}
	r.Position = pos
	needed, p, err := getFloat(p)
	if err != nil {
		return model.ChargeRequest{}, err
	}
	r.NeededKW = needed
	consumption, _, err := getFloat(p)
	if err != nil {
		return model.ChargeRequest{}, err
	}
	r.ConsumptionPer100km = consumption
	return r, nil
}

// EncodeChargeOffer serializes a ChargeOffer.
func EncodeChargeOffer(o model.ChargeOffer) []byte {
	var p []byte
	p = putString(p, o.RequestID)
	p = putString(p, o.Charger)
	p = putPosition(p, o.Position)
	p = putFloat(p, o.Price)
	p = putFloat(p, o.AmountKW)
	return frame(TypeChargeOffer, p)
}

// DecodeChargeOffer parses a binary-encoded ChargeOffer.
func DecodeChargeOffer(buf []byte) (model.ChargeOffer, error) {
	tag, p, err := unframe(buf)
	if err != nil {
		return model.ChargeOffer{}, err
	}
	if tag != TypeChargeOffer {
		return model.ChargeOffer{}, fmt.Errorf("proto: expected ChargeOffer tag %d, got %d", TypeChargeOffer, tag)
	}
	var o model.ChargeOffer
	reqID, p, err := getString(p)
	if err != nil {
		return model.ChargeOffer{}, err
	}
	o.RequestID = reqID
	charger, p, err := getString(p)
	if err != nil {
		return model.ChargeOffer{}, err
	}
	o.Charger = charger
	pos, p, err := getPosition(p)
	if err != nil {
		return model.ChargeOffer{}, err
	}
	o.Position = pos
	price, p, err := getFloat(p)
	if err != nil {
		return model.ChargeOffer{}, err
	}
	o.Price = price
	amount, _, err := getFloat(p)
	if err != nil {
		return model.ChargeOffer{}, err
	}
	o.AmountKW = amount
	return o, nil
}

// EncodeChargeAccept serializes a ChargeAccept.
func EncodeChargeAccept(a model.ChargeAccept) []byte {
	var p []byte
	p = putString(p, a.RequestID)
	p = putString(p, a.Vehicle)
	p = putString(p, a.Charger)
	return frame(TypeChargeAccept, p)
}

// DecodeChargeAccept parses a binary-encoded ChargeAccept.
func DecodeChargeAccept(buf []byte) (model.ChargeAccept, error) {
	tag, p, err := unframe(buf)
	if err != nil {
		return model.ChargeAccept{}, err
	}
	if tag != TypeChargeAccept {
		return model.ChargeAccept{}, fmt.Errorf("proto: expected ChargeAccept tag %d, got %d", TypeChargeAccept, tag)
	}
	var a model.ChargeAccept
	reqID, p, err := getString(p)
	if err != nil {
		return model.ChargeAccept{}, err
	}
	a.RequestID = reqID
	vehicle, p, err := getString(p)
	if err != nil {
		return model.ChargeAccept{}, err
	}
	a.Vehicle = vehicle
	charger, _, err := getString(p)
	if err != nil {
		return model.ChargeAccept{}, err
	}
	a.Charger = charger
	return a, nil
}

// EncodeGet serializes a Get.
func EncodeGet(g model.Get) []byte {
	var p []byte
	p = putString(p, g.RequestID)
	p = putString(p, g.Vehicle)
	p = putString(p, g.Charger)
	p = putFloat(p, g.AmountKW)
	return frame(TypeGet, p)
}

// DecodeGet parses a binary-encoded Get.
func DecodeGet(buf []byte) (model.Get, error) {
	tag, p, err := unframe(buf)
	if err != nil {
		return model.Get{}, err
	}
	if tag != TypeGet {
		return model.Get{}, fmt.Errorf("proto: expected Get tag %d, got %d", TypeGet, tag)
	}
	var g model.Get
	reqID, p, err := getString(p)
	if err != nil {
		return model.Get{}, err
	}
	g.RequestID = reqID
	vehicle, p, err := getString(p)
	if err != nil {
		return model.Get{}, err
	}
	g.Vehicle = vehicle
	charger, p, err := getString(p)
	if err != nil {
		return model.Get{}, err
	}
	g.Charger = charger
	amount, _, err := getFloat(p)
	if err != nil {
		return model.Get{}, err
	}
	g.AmountKW = amount
	return g, nil
}
