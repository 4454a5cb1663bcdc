package services

import (
	"context"
	"fmt"
	"time"

	pubnub "github.com/pubnub/go"
	"go.uber.org/zap"
)

// TicketChange is broadcast to other open dashboards after a transition lands.
type TicketChange struct {
	TicketID     int64  `json:"ticket_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	RefundStatus string `json:"refund_status,omitempty"`
	ChangedBy    string `json:"changed_by"`
	ChangedAt    int64  `json:"changed_at"`
}

type Notifier interface {
	NotifyTicketChange(ctx context.Context, change TicketChange) error
}

type publishFunc func(channel string, message any) error

type PubNubNotifier struct {
	channel string
	publish publishFunc
}

func NewPubNubNotifier(pn *pubnub.PubNub, channel string) *PubNubNotifier {
	return &PubNubNotifier{
		channel: channel,
		publish: func(ch string, msg any) error {
			_, _, err := pn.Publish().Channel(ch).Message(msg).Execute()
			return err
		},
	}
}

func (n *PubNubNotifier) NotifyTicketChange(ctx context.Context, change TicketChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if change.ChangedAt == 0 {
		change.ChangedAt = time.Now().Unix()
	}

	msg := map[string]any{
		"type":   "ticket_status_changed",
		"change": change,
	}
	if err := n.publish(n.channel, msg); err != nil {
		return fmt.Errorf("notifier: publish to %s: %w", n.channel, err)
	}

	zap.L().Debug("ticket change published",
		zap.String("channel", n.channel),
		zap.Int64("ticket_id", change.TicketID),
		zap.String("to", change.To),
	)
	return nil
}

// NopNotifier is used when no PubNub keys are configured.
type NopNotifier struct{}

func (NopNotifier) NotifyTicketChange(context.Context, TicketChange) error { return nil }
