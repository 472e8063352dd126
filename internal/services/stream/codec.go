package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type packetKind int

const (
	packetIgnore packetKind = iota
	packetFrame
	packetReply   // answer with packet.reply
	packetClose   // server ended the session cleanly
	packetRefused // server refused the namespace
	packetJoined  // namespace CONNECT acknowledged
)

type packet struct {
	kind    packetKind
	payload []byte
	reply   string
	reason  string
}

// framer turns websocket text messages into packets for one transport.
type framer interface {
	joinMessage() string
	decode(msg []byte) (packet, error)
}

func newFramer(o *Options) framer {
	if o.Transport == TransportWebSocket {
		return plainFramer{}
	}
	ns := o.Namespace
	if ns == "" {
		ns = "/"
	}
	return &socketIOFramer{namespace: ns, event: o.Event}
}

type plainFramer struct{}

func (plainFramer) joinMessage() string { return "" }

func (plainFramer) decode(msg []byte) (packet, error) {
	return packet{kind: packetFrame, payload: msg}, nil
}

// Engine.IO v4 packet types.
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
	eioNoop    = '6'
)

// Socket.IO v5 packet types, carried inside Engine.IO messages.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioAck          = '3'
	sioConnectError = '4'
)

type socketIOFramer struct {
	namespace string
	event     string
}

// joinMessage is the namespace CONNECT packet. The default namespace needs none.
func (f *socketIOFramer) joinMessage() string {
	if f.namespace == "/" {
		return "40"
	}
	return "40" + f.namespace + ","
}

func (f *socketIOFramer) decode(msg []byte) (packet, error) {
	if len(msg) == 0 {
		return packet{}, &FrameDecodeError{Reason: "empty engine.io packet"}
	}

	switch msg[0] {
	case eioPing:
		return packet{kind: packetReply, reply: "3" + string(msg[1:])}, nil
	case eioClose:
		return packet{kind: packetClose, reason: "engine.io close"}, nil
	case eioOpen, eioPong, eioNoop:
		return packet{kind: packetIgnore}, nil
	case eioMessage:
		return f.decodeSocketIO(msg[1:])
	default:
		return packet{}, &FrameDecodeError{Reason: fmt.Sprintf("unknown engine.io packet type %q", msg[0])}
	}
}

func (f *socketIOFramer) decodeSocketIO(msg []byte) (packet, error) {
	if len(msg) == 0 {
		return packet{}, &FrameDecodeError{Reason: "empty socket.io packet"}
	}
	kind := msg[0]
	ns, body := splitNamespace(msg[1:])
	if ns != f.namespace {
		return packet{kind: packetIgnore}, nil
	}

	switch kind {
	case sioConnect:
		return packet{kind: packetJoined}, nil
	case sioAck:
		return packet{kind: packetIgnore}, nil
	case sioDisconnect:
		return packet{kind: packetClose, reason: "namespace disconnected by server"}, nil
	case sioConnectError:
		return packet{kind: packetRefused, reason: connectErrorMessage(body)}, nil
	case sioEvent:
		return f.decodeEvent(body)
	default:
		return packet{}, &FrameDecodeError{Reason: fmt.Sprintf("unsupported socket.io packet type %q", kind)}
	}
}

func (f *socketIOFramer) decodeEvent(body []byte) (packet, error) {
	// Optional ack id precedes the JSON array.
	body = bytes.TrimLeft(body, "0123456789")

	var args []json.RawMessage
	if err := json.Unmarshal(body, &args); err != nil {
		return packet{}, &FrameDecodeError{Reason: "event is not a JSON array", Cause: err}
	}
	if len(args) == 0 {
		return packet{}, &FrameDecodeError{Reason: "event without a name"}
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return packet{}, &FrameDecodeError{Reason: "event name is not a string", Cause: err}
	}
	if name != f.event {
		return packet{kind: packetIgnore}, nil
	}
	if len(args) < 2 {
		return packet{}, &FrameDecodeError{Reason: "event without payload"}
	}

	// The device emits the frame as a JSON-encoded string; accept a bare object too.
	arg := bytes.TrimSpace(args[1])
	if len(arg) > 0 && arg[0] == '"' {
		var s string
		if err := json.Unmarshal(arg, &s); err != nil {
			return packet{}, &FrameDecodeError{Reason: "event payload string", Cause: err}
		}
		return packet{kind: packetFrame, payload: []byte(s)}, nil
	}
	return packet{kind: packetFrame, payload: arg}, nil
}

type openPacket struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"` // milliseconds
	PingTimeout  int    `json:"pingTimeout"`  // milliseconds
}

// parseOpen reads the Engine.IO OPEN packet the server sends first.
func parseOpen(msg []byte) (openPacket, error) {
	var open openPacket
	if len(msg) == 0 || msg[0] != eioOpen {
		return open, fmt.Errorf("%w: expected engine.io open, got %q", ErrProtocol, preview(msg))
	}
	if err := json.Unmarshal(msg[1:], &open); err != nil {
		return open, fmt.Errorf("%w: engine.io open payload: %v", ErrProtocol, err)
	}
	return open, nil
}

// heartbeatWindow is how long the server may stay silent before the session is dead.
func (o openPacket) heartbeatWindow() time.Duration {
	return time.Duration(o.PingInterval+o.PingTimeout) * time.Millisecond
}

func preview(msg []byte) string {
	if len(msg) > 32 {
		return string(msg[:32]) + "..."
	}
	return string(msg)
}

// splitNamespace separates "/ns,rest" into namespace and rest. Packets for the
// default namespace carry no prefix.
func splitNamespace(msg []byte) (string, []byte) {
	if len(msg) == 0 || msg[0] != '/' {
		return "/", msg
	}
	i := bytes.IndexByte(msg, ',')
	if i < 0 {
		return string(msg), nil
	}
	return string(msg[:i]), msg[i+1:]
}

func connectErrorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return "connect error"
}
