// Package sio is a minimal Socket.IO v4 client (Engine.IO protocol 4,
// websocket transport only, default namespace, text packets).
package sio

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Engine.IO packet types.
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
	engineUpgrade byte = '5'
	engineNoop    byte = '6'
)

// Socket.IO packet types, carried inside an engine message.
const (
	socketConnect      byte = '0'
	socketDisconnect   byte = '1'
	socketEvent        byte = '2'
	socketAck          byte = '3'
	socketConnectError byte = '4'
	socketBinaryEvent  byte = '5'
	socketBinaryAck    byte = '6'
)

var errMalformed = errors.New("malformed packet")

// Handshake is the Engine.IO open packet payload.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int64    `json:"maxPayload"`
}

// packet is a decoded Socket.IO packet.
type packet struct {
	Type      byte
	Namespace string
	AckID     int
	Data      json.RawMessage
}

func parseHandshake(msg []byte) (Handshake, error) {
	var h Handshake
	if len(msg) < 2 || msg[0] != engineOpen {
		return h, fmt.Errorf("expected open packet: %w", errMalformed)
	}
	if err := json.Unmarshal(msg[1:], &h); err != nil {
		return h, fmt.Errorf("open packet: %w", err)
	}
	if h.SID == "" {
		return h, fmt.Errorf("open packet without sid: %w", errMalformed)
	}
	return h, nil
}

// parsePacket decodes the Socket.IO part of an engine message (without the
// leading engine type byte): <type>[/<nsp>,][<ack id>][<json>].
func parsePacket(b []byte) (packet, error) {
	p := packet{AckID: -1, Namespace: "/"}
	if len(b) == 0 {
		return p, errMalformed
	}
	p.Type = b[0]
	if p.Type < socketConnect || p.Type > socketBinaryAck {
		return p, fmt.Errorf("packet type %q: %w", p.Type, errMalformed)
	}
	rest := b[1:]

	if len(rest) > 0 && rest[0] == '/' {
		i := 0
		for i < len(rest) && rest[i] != ',' {
			i++
		}
		p.Namespace = string(rest[:i])
		if i < len(rest) {
			i++
		}
		rest = rest[i:]
	}

	if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		id := 0
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			id = id*10 + int(rest[i]-'0')
			i++
		}
		p.AckID = id
		rest = rest[i:]
	}

	if len(rest) > 0 {
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

// eventArgs splits an event packet's JSON array into name and first argument.
func eventArgs(data json.RawMessage) (string, json.RawMessage, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(data, &args); err != nil {
		return "", nil, fmt.Errorf("event args: %w", err)
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("event without name: %w", errMalformed)
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("event name: %w", err)
	}
	var payload json.RawMessage
	if len(args) > 1 {
		payload = args[1]
	}
	return name, payload, nil
}

// encodeEvent builds the engine frame 42["name",payload] (payload omitted when nil).
func encodeEvent(name string, payload any) ([]byte, error) {
	args := []any{name}
	if payload != nil {
		args = append(args, payload)
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(data)+2)
	frame = append(frame, engineMessage, socketEvent)
	return append(frame, data...), nil
}

// connectErrorMessage extracts the reason from a CONNECT_ERROR payload.
func connectErrorMessage(data json.RawMessage) string {
	var body struct {
		Message string `json:"message"`
	}
	if len(data) > 0 && json.Unmarshal(data, &body) == nil && body.Message != "" {
		return body.Message
	}
	var s string
	if len(data) > 0 && json.Unmarshal(data, &s) == nil && s != "" {
		return s
	}
	return "connection rejected"
}
