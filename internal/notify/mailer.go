// internal/notify/mailer.go
package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"clubverse/internal/account"
	"clubverse/internal/membership"
	"clubverse/internal/reservation"

	"go.uber.org/zap"
)

// Mailer composes the transactional emails and hands them to a Sender.
type Mailer struct {
	sender  Sender
	baseURL string
	logger  *zap.Logger
}

// NewMailer returns a Mailer. baseURL is the public site address used for
// password reset links.
func NewMailer(sender Sender, baseURL string, logger *zap.Logger) *Mailer {
	return &Mailer{sender: sender, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

var (
	_ reservation.Notifier = (*Mailer)(nil)
	_ membership.Notifier  = (*Mailer)(nil)
	_ account.Notifier     = (*Mailer)(nil)
)

func (m *Mailer) ReservationConfirmed(ctx context.Context, r reservation.Reservation) error {
	html, err := render(reservationTmpl, r)
	if err != nil {
		return err
	}
	return m.send(ctx, r.Email, fmt.Sprintf("Your Table Reservation at %s", r.Club), html)
}

func (m *Mailer) MembershipConfirmed(ctx context.Context, rec membership.Record) error {
	html, err := render(membershipTmpl, rec)
	if err != nil {
		return err
	}
	return m.send(ctx, rec.Email, fmt.Sprintf("Your Club-Verse %s Membership", title(rec.Type)), html)
}

func (m *Mailer) PasswordResetRequested(ctx context.Context, u account.User, token string, expires time.Time) error {
	link := m.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	html, err := render(resetTmpl, struct {
		Name  string
		Link  string
		Valid string
	}{
		Name:  u.Name,
		Link:  link,
		Valid: validFor(time.Until(expires)),
	})
	if err != nil {
		return err
	}
	return m.send(ctx, u.Email, "Reset your Club-Verse password", html)
}

func (m *Mailer) send(ctx context.Context, to, subject, html string) error {
	res, err := m.sender.Send(ctx, SendRequest{To: []string{to}, Subject: subject, HTML: html})
	if err != nil {
		return fmt.Errorf("send %q: %w", subject, err)
	}
	m.logger.Debug("email queued", zap.String("message_id", res.MessageID), zap.String("subject", subject))
	return nil
}

func validFor(d time.Duration) string {
	d = d.Round(time.Minute)
	if d <= time.Minute {
		return "the next minute"
	}
	if d >= time.Hour {
		return "the next hour"
	}
	return fmt.Sprintf("the next %d minutes", int(d.Minutes()))
}
