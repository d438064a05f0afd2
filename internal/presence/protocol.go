package presence

import (
	"encoding/json"

	"github.com/quantumlife/viewerscope/internal/core"
)

// MessageType identifies an envelope
type MessageType string

const (
	TypeWelcome       MessageType = "welcome"
	TypeVisitorJoined MessageType = "visitor_joined"
	TypeVisitorLeft   MessageType = "visitor_left"

	// TypeHeartbeat is inbound only; clients send it as an application-level pong.
	TypeHeartbeat MessageType = "heartbeat"
)

// Envelope is the wire message
type Envelope struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// WelcomePayload is sent to a new connection only
type WelcomePayload struct {
	Self     *core.Viewer   `json:"self"`
	Visitors []*core.Viewer `json:"visitors"`
}

// VisitorPayload carries one viewer for join and leave events
type VisitorPayload struct {
	Visitor *core.Viewer `json:"visitor"`
}

func welcomeEnvelope(self *core.Viewer, roster []*core.Viewer) Envelope {
	if roster == nil {
		roster = []*core.Viewer{}
	}
	return Envelope{Type: TypeWelcome, Payload: WelcomePayload{Self: self, Visitors: roster}}
}

func joinedEnvelope(v *core.Viewer) Envelope {
	return Envelope{Type: TypeVisitorJoined, Payload: VisitorPayload{Visitor: v}}
}

func leftEnvelope(v *core.Viewer) Envelope {
	return Envelope{Type: TypeVisitorLeft, Payload: VisitorPayload{Visitor: v}}
}

// send delivers env to conn if it is open. Errors are dropped; a dead peer is
// caught by the next sweep.
func send(conn Conn, env Envelope) {
	if conn == nil || !conn.Open() {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	_ = conn.Send(data)
}

// broadcastExcept marshals env once and delivers it to every open handle in
// conns except excluded. It returns the number of handles written to.
func broadcastExcept(conns []Conn, env Envelope, excluded Conn) int {
	data, err := json.Marshal(env)
	if err != nil {
		return 0
	}

	delivered := 0
	for _, c := range conns {
		if c == excluded || !c.Open() {
			continue
		}
		if err := c.Send(data); err != nil {
			continue
		}
		delivered++
	}
	return delivered
}

// inbound is the subset of client messages the server understands
type inbound struct {
	Type MessageType `json:"type"`
}

func parseInbound(data []byte) (MessageType, bool) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", false
	}
	return msg.Type, msg.Type != ""
}
