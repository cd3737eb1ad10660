package service

import (
	"context"

	"github.com/example/storefront/pkg/notify"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NotifyResult counts the push sends that succeeded.
type NotifyResult struct {
	User   int `json:"user"`
	Admins int `json:"admins"`
}

func (r NotifyResult) Total() int { return r.User + r.Admins }

// Notifier fans a message out to an order's user and every active admin.
// Failures are logged and never returned.
type Notifier struct {
	users  MobileUserStore
	admins AdminStore
	pusher Pusher
	logger *zap.Logger
}

func NewNotifier(users MobileUserStore, admins AdminStore, pusher Pusher, logger *zap.Logger) *Notifier {
	return &Notifier{
		users:  users,
		admins: admins,
		pusher: pusher,
		logger: logger.Named("notifier"),
	}
}

func (n *Notifier) NotifyOrder(ctx context.Context, userID primitive.ObjectID, toUser, toAdmins notify.Message) NotifyResult {
	var res NotifyResult

	user, err := n.users.FindMobileUser(ctx, userID)
	switch {
	case err != nil:
		n.logger.Warn("Failed to load user for notification", zap.String("user_id", userID.Hex()), zap.Error(err))
	case user.FCMToken != "":
		if n.send(ctx, user.FCMToken, toUser) {
			res.User++
		}
	}

	tokens, err := n.admins.AdminDeviceTokens(ctx)
	if err != nil {
		n.logger.Warn("Failed to load admin device tokens", zap.Error(err))
		return res
	}
	for _, token := range tokens {
		if n.send(ctx, token, toAdmins) {
			res.Admins++
		}
	}
	return res
}

func (n *Notifier) send(ctx context.Context, token string, msg notify.Message) bool {
	if token == "" {
		return false
	}
	if err := n.pusher.Push(ctx, token, msg); err != nil {
		n.logger.Warn("Push notification failed", zap.String("title", msg.Title), zap.Error(err))
		return false
	}
	return true
}
