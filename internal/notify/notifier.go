package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bazuu/investorconnect/internal/db"
)

// Pref selects the email preference that gates a notification.
type Pref func(*db.NotificationSettings) bool

var (
	PrefJobMatches         Pref = func(ns *db.NotificationSettings) bool { return ns.EmailJobMatches }
	PrefApplicationUpdates Pref = func(ns *db.NotificationSettings) bool { return ns.EmailApplicationUpdates }
	PrefNewApplications    Pref = func(ns *db.NotificationSettings) bool { return ns.EmailNewApplications }
	PrefPitchApproved      Pref = func(ns *db.NotificationSettings) bool { return ns.EmailPitchApproved }
	PrefPitchInterest      Pref = func(ns *db.NotificationSettings) bool { return ns.EmailPitchInterest }
	PrefNewMessages        Pref = func(ns *db.NotificationSettings) bool { return ns.EmailNewMessages }
)

// Message is one notification for a user.
type Message struct {
	Kind  db.NotificationKind
	Title string
	Body  string
	// Email gates delivery by mail. Nil means in-app only.
	Email Pref
}

// Notifier records in-app notifications and mails users who opted in.
type Notifier struct {
	store  db.Store
	mailer Mailer
	logger *slog.Logger
}

// NewNotifier creates a new Notifier.
func NewNotifier(store db.Store, mailer Mailer, logger *slog.Logger) *Notifier {
	return &Notifier{store: store, mailer: mailer, logger: logger}
}

// Notify stores msg for user and mails it when the user's settings allow.
// Mail failures are logged, not returned.
func (n *Notifier) Notify(ctx context.Context, user *db.User, msg Message) error {
	if _, err := n.store.CreateNotification(ctx, &db.Notification{
		UserID: user.ID,
		Kind:   msg.Kind,
		Title:  msg.Title,
		Body:   msg.Body,
	}); err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	if msg.Email == nil || user.Email == "" {
		return nil
	}

	ns, err := n.store.GetNotificationSettings(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("loading notification settings: %w", err)
	}
	if ns == nil {
		ns = db.DefaultNotificationSettings(user.ID)
	}
	if !msg.Email(ns) {
		return nil
	}
	n.Email(ctx, user, msg.Title, msg.Body)
	return nil
}

// Email mails user directly, ignoring preferences.
func (n *Notifier) Email(ctx context.Context, user *db.User, subject, body string) {
	if user.Email == "" {
		return
	}
	if err := n.mailer.Send(ctx, user.Email, subject, body); err != nil {
		n.logger.Error("sending email", "user_id", user.ID, "subject", subject, "error", err)
	}
}
