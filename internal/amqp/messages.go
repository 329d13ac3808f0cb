package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/incari/credit-tractor-app-sub000/internal/ports"
)

// PaymentEventMessage is the wire form of a payment change. It carries only
// identifiers; consumers reload the current state from storage.
type PaymentEventMessage struct {
	UserID    string            `json:"user_id"`
	PaymentID string            `json:"payment_id"`
	Action    ports.EventAction `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewPaymentEventMessage converts a domain event, stamping it when the caller did not.
func NewPaymentEventMessage(e ports.PaymentEvent) *PaymentEventMessage {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &PaymentEventMessage{
		UserID:    e.UserID,
		PaymentID: e.PaymentID,
		Action:    e.Action,
		Timestamp: ts,
	}
}

// Event returns the domain form of the message.
func (m *PaymentEventMessage) Event() ports.PaymentEvent {
	return ports.PaymentEvent{
		UserID:    m.UserID,
		PaymentID: m.PaymentID,
		Action:    m.Action,
		Timestamp: m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *PaymentEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentEventMessageFromJSON decodes and checks a message body.
func PaymentEventMessageFromJSON(data []byte) (*PaymentEventMessage, error) {
	var msg PaymentEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, fmt.Errorf("payment event without user_id")
	}
	switch msg.Action {
	case ports.ActionCreated, ports.ActionUpdated, ports.ActionDeleted, ports.ActionPaidToggled:
	default:
		return nil, fmt.Errorf("unknown payment event action %q", msg.Action)
	}
	return &msg, nil
}
