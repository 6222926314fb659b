// Package notify alerts the admin team about work waiting in the back-office.
package notify

import (
	"context"
	"fmt"
	"log"

	slackapi "github.com/slack-go/slack"
)

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop is used when no webhook is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Slack posts plain-text messages to an incoming webhook.
type Slack struct {
	webhookURL string
	username   string
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{webhookURL: webhookURL, username: "RentMate"}
}

func (s *Slack) Notify(ctx context.Context, text string) error {
	err := slackapi.PostWebhookContext(ctx, s.webhookURL, &slackapi.WebhookMessage{
		Username: s.username,
		Text:     text,
	})
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// New picks the Slack notifier when a webhook is configured.
func New(webhookURL string) Notifier {
	if webhookURL == "" {
		log.Printf("level=info msg=admin_notifications_disabled reason=no_slack_webhook")
		return Nop{}
	}
	return NewSlack(webhookURL)
}
