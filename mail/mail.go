// ABOUTME: Outbound mail abstraction shared by the notification run and asset service
// ABOUTME: Defines the message shape, the transport interface and delivery errors
package mail

import (
	"context"
	"fmt"
	"strings"
)

// Message is a plain-text email. Cc may be empty.
type Message struct {
	To      string
	Cc      []string
	Subject string
	Body    string
}

// Transport delivers a single message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError reports that one message could not be delivered.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Validate checks the message has a recipient and a subject.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("message has no recipient")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("message to %s has no subject", m.To)
	}
	return nil
}
