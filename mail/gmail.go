// ABOUTME: Gmail API transport
// ABOUTME: Sends composed messages through users.messages.send with an OAuth token
package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailTransport delivers mail as the authorized Gmail account.
type GmailTransport struct {
	service *gmail.Service
	from    string
	now     func() time.Time
}

// NewGmailTransport creates a transport from a stored token. The token is
// refreshed automatically by the OAuth client.
func NewGmailTransport(ctx context.Context, config *oauth2.Config, token *oauth2.Token, from string) (*GmailTransport, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	client := config.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailTransport{service: service, from: from, now: time.Now}, nil
}

func (g *GmailTransport) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return &DeliveryError{Recipient: msg.To, Err: err}
	}

	raw := Compose(g.from, msg, g.now())
	_, err := g.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return &DeliveryError{Recipient: msg.To, Err: err}
	}
	return nil
}
