package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/example/storefront/pkg/config"
	"google.golang.org/api/option"
)

// Message is a push notification addressed to one device.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

type FCMPusher struct {
	client *messaging.Client
}

func NewFCMPusher(ctx context.Context, cfg *config.FirebaseConfig) (*FCMPusher, error) {
	var clientOpts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase messaging client: %w", err)
	}
	return &FCMPusher{client: client}, nil
}

// Push sends msg to token. An empty token is a silent no-op.
func (p *FCMPusher) Push(ctx context.Context, token string, msg Message) error {
	if token == "" {
		return nil
	}
	_, err := p.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	return nil
}

// Nop drops every message. It stands in when push credentials are absent.
type Nop struct{}

func (Nop) Push(context.Context, string, Message) error { return nil }
