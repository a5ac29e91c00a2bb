// ABOUTME: Renders notification and confirmation emails
// ABOUTME: Subjects carry the urgency tag and external asset id, bodies use topic display labels
package notify

import (
	"fmt"
	"strings"

	"github.com/harperreed/expirytrack/expiry"
	"github.com/harperreed/expirytrack/mail"
	"github.com/harperreed/expirytrack/models"
)

const signature = "ExpiryTrack"

// Composer renders messages. TopicLabels maps a catalog topic to the
// label shown to recipients; unmapped topics are shown as-is.
type Composer struct {
	TopicLabels map[string]string
}

func (c Composer) label(topic string) string {
	if l, ok := c.TopicLabels[topic]; ok && l != "" {
		return l
	}
	return topic
}

// Reminder renders the message for a due notification event.
func (c Composer) Reminder(ev models.NotificationEvent) mail.Message {
	tag := expiry.SubjectTag(ev.DaysRemaining, ev.Rule.ValidityWindowDays)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", ev.Recipient)
	b.WriteString("The following asset needs to be renewed:\n")
	b.WriteString("-----------------------------\n")
	fmt.Fprintf(&b, "Item:      %s\n", c.label(ev.Rule.Topic))
	fmt.Fprintf(&b, "Asset ID:  %s\n", ev.Asset.ExternalID)
	fmt.Fprintf(&b, "Org-unit:  %s\n", ev.Asset.OrgUnit)
	fmt.Fprintf(&b, "Sub-unit:  %s\n", ev.Asset.SubUnit)
	fmt.Fprintf(&b, "Status:    %s\n", expiry.UrgencyLabel(ev.DaysRemaining))
	b.WriteString("-----------------------------\n\n")
	fmt.Fprintf(&b, "Please take care of it as soon as possible,\n%s\n", signature)

	return mail.Message{
		To:      ev.Recipient,
		Cc:      ev.Cc,
		Subject: fmt.Sprintf("[%s] - Asset #%s", tag, ev.Asset.ExternalID),
		Body:    b.String(),
	}
}

// Confirmation renders the acknowledgement sent to whoever registered an asset.
func (c Composer) Confirmation(to string, asset models.Asset, rule models.ValidityRule) mail.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", to)
	b.WriteString("The following asset was registered by you:\n")
	fmt.Fprintf(&b, "Item:        %s\n", c.label(rule.Topic))
	fmt.Fprintf(&b, "Asset ID:    %s\n", asset.ExternalID)
	fmt.Fprintf(&b, "Org-unit:    %s\n", asset.OrgUnit)
	fmt.Fprintf(&b, "Sub-unit:    %s\n", asset.SubUnit)
	fmt.Fprintf(&b, "Expires on:  %s\n\n", asset.ExpirationDate.Format("2006-01-02"))
	b.WriteString("You will be reminded before it expires.\n\n")
	fmt.Fprintf(&b, "Regards,\n%s\n", signature)

	return mail.Message{
		To:      to,
		Subject: fmt.Sprintf("[Confirmation] New asset #%s registered", asset.ExternalID),
		Body:    b.String(),
	}
}
