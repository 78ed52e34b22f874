package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/bazuu/investorconnect/internal/config"
	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/testutil"
)

type NotifySuite struct {
	suite.Suite
	ctx    context.Context
	store  *testutil.MockStore
	mailer *testutil.MockMailer
	n      *Notifier
	user   *db.User
}

func TestNotifySuite(t *testing.T) {
	suite.Run(t, new(NotifySuite))
}

func (s *NotifySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = new(testutil.MockStore)
	s.mailer = new(testutil.MockMailer)
	s.n = NewNotifier(s.store, s.mailer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.user = &db.User{ID: 7, Username: "amina", Email: "amina@example.com"}
}

func (s *NotifySuite) TestNewMailerDiscardWithoutHost() {
	m := NewMailer(config.SMTPConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.IsType(s.T(), &DiscardMailer{}, m)
	require.NoError(s.T(), m.Send(s.ctx, "a@b.c", "hi", "body"))
}

func (s *NotifySuite) TestNewMailerSMTP() {
	m := NewMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 587}, nil)
	require.IsType(s.T(), &SMTPMailer{}, m)
}

func (s *NotifySuite) TestSMTPMailerSend() {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	m := &SMTPMailer{
		cfg: config.SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "noreply@example.com"},
		sendMail: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
			return nil
		},
	}

	require.NoError(s.T(), m.Send(s.ctx, "amina@example.com", "Welcome", "line one\nline two"))
	require.Equal(s.T(), "smtp.example.com:587", gotAddr)
	require.NotNil(s.T(), gotAuth)
	require.Equal(s.T(), "noreply@example.com", gotFrom)
	require.Equal(s.T(), []string{"amina@example.com"}, gotTo)
	require.True(s.T(), bytes.HasPrefix(gotMsg, []byte("From: noreply@example.com\r\nTo: amina@example.com\r\nSubject: Welcome\r\n")))
	require.Contains(s.T(), string(gotMsg), "\r\n\r\nline one\r\nline two")
}

func (s *NotifySuite) TestSMTPMailerNoAuthWithoutUsername() {
	var gotAuth smtp.Auth = smtp.PlainAuth("", "x", "y", "z")
	m := &SMTPMailer{
		cfg: config.SMTPConfig{Host: "localhost", Port: 25},
		sendMail: func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
			gotAuth = a
			return nil
		},
	}
	require.NoError(s.T(), m.Send(s.ctx, "a@b.c", "s", "b"))
	require.Nil(s.T(), gotAuth)
}

func (s *NotifySuite) TestSMTPMailerError() {
	m := &SMTPMailer{
		cfg: config.SMTPConfig{Host: "localhost", Port: 25},
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		},
	}
	err := m.Send(s.ctx, "a@b.c", "s", "b")
	require.ErrorContains(s.T(), err, "sending mail to a@b.c")
}

func (s *NotifySuite) TestSMTPMailerRejectsHeaderInjection() {
	m := &SMTPMailer{cfg: config.SMTPConfig{Host: "localhost", Port: 25}}
	err := m.Send(s.ctx, "a@b.c\r\nBcc: evil@x.y", "s", "b")
	require.ErrorContains(s.T(), err, "line break")
}

func (s *NotifySuite) TestSMTPMailerCancelledContext() {
	m := &SMTPMailer{cfg: config.SMTPConfig{Host: "localhost", Port: 25}}
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	require.ErrorIs(s.T(), m.Send(ctx, "a@b.c", "s", "b"), context.Canceled)
}

func (s *NotifySuite) TestNotifyInAppOnly() {
	s.store.On("CreateNotification", s.ctx, mock.MatchedBy(func(n *db.Notification) bool {
		return n.UserID == 7 && n.Kind == db.NotifyWelcome && n.Title == "Hi"
	})).Return(int64(1), nil)

	require.NoError(s.T(), s.n.Notify(s.ctx, s.user, Message{Kind: db.NotifyWelcome, Title: "Hi", Body: "b"}))
	s.store.AssertExpectations(s.T())
	s.mailer.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *NotifySuite) TestNotifyEmailsWhenOptedIn() {
	s.store.On("CreateNotification", s.ctx, mock.Anything).Return(int64(1), nil)
	s.store.On("GetNotificationSettings", s.ctx, int64(7)).Return(db.DefaultNotificationSettings(7), nil)
	s.mailer.On("Send", s.ctx, "amina@example.com", "New match", "body").Return(nil)

	err := s.n.Notify(s.ctx, s.user, Message{Kind: db.NotifyJobMatch, Title: "New match", Body: "body", Email: PrefJobMatches})
	require.NoError(s.T(), err)
	s.mailer.AssertExpectations(s.T())
}

func (s *NotifySuite) TestNotifyRespectsOptOut() {
	ns := db.DefaultNotificationSettings(7)
	ns.EmailApplicationUpdates = false
	s.store.On("CreateNotification", s.ctx, mock.Anything).Return(int64(1), nil)
	s.store.On("GetNotificationSettings", s.ctx, int64(7)).Return(ns, nil)

	err := s.n.Notify(s.ctx, s.user, Message{Kind: db.NotifyApplicationUpdate, Title: "t", Email: PrefApplicationUpdates})
	require.NoError(s.T(), err)
	s.mailer.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *NotifySuite) TestNotifyMissingSettingsUsesDefaults() {
	s.store.On("CreateNotification", s.ctx, mock.Anything).Return(int64(1), nil)
	s.store.On("GetNotificationSettings", s.ctx, int64(7)).Return(nil, nil)
	s.mailer.On("Send", s.ctx, "amina@example.com", "t", "").Return(nil)

	require.NoError(s.T(), s.n.Notify(s.ctx, s.user, Message{Title: "t", Email: PrefPitchApproved}))
	s.mailer.AssertExpectations(s.T())
}

func (s *NotifySuite) TestNotifyMailErrorIsLogged() {
	s.store.On("CreateNotification", s.ctx, mock.Anything).Return(int64(1), nil)
	s.store.On("GetNotificationSettings", s.ctx, int64(7)).Return(nil, nil)
	s.mailer.On("Send", s.ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	require.NoError(s.T(), s.n.Notify(s.ctx, s.user, Message{Title: "t", Email: PrefPitchInterest}))
}

func (s *NotifySuite) TestNotifyStoreErrors() {
	s.store.On("CreateNotification", s.ctx, mock.Anything).Return(int64(0), errors.New("disk full")).Once()
	err := s.n.Notify(s.ctx, s.user, Message{Title: "t"})
	require.ErrorContains(s.T(), err, "creating notification")

	s.store.On("CreateNotification", s.ctx, mock.Anything).Return(int64(1), nil)
	s.store.On("GetNotificationSettings", s.ctx, int64(7)).Return(nil, errors.New("locked"))
	err = s.n.Notify(s.ctx, s.user, Message{Title: "t", Email: PrefNewApplications})
	require.ErrorContains(s.T(), err, "loading notification settings")
}

func (s *NotifySuite) TestEmailSkipsUsersWithoutAddress() {
	s.n.Email(s.ctx, &db.User{ID: 1}, "s", "b")
	s.mailer.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *NotifySuite) TestPrefs() {
	ns := &db.NotificationSettings{EmailNewMessages: true}
	require.True(s.T(), PrefNewMessages(ns))
	require.False(s.T(), PrefJobMatches(ns))
}
