package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"clubverse/internal/account"
	"clubverse/internal/membership"
	"clubverse/internal/reservation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []SendRequest
	err  error
}

func (s *recordingSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, req)
	if s.err != nil {
		return SendResult{}, s.err
	}
	return SendResult{MessageID: "msg-1", SentAt: time.Now()}, nil
}

func TestReservationConfirmed(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender, "https://clubverse.example", zap.NewNop())

	err := m.ReservationConfirmed(context.Background(), reservation.Reservation{
		Name:         "Anmol <b>Singh</b>",
		Email:        "anmol@example.com",
		Date:         "2024-03-09",
		Time:         "22:30",
		Guests:       4,
		Club:         "Neon Nights",
		ClubLocation: "Connaught Place",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"anmol@example.com"}, msg.To)
	assert.Equal(t, "Your Table Reservation at Neon Nights", msg.Subject)
	assert.Contains(t, msg.HTML, "<strong>Neon Nights</strong>")
	assert.Contains(t, msg.HTML, "<strong>2024-03-09</strong>")
	assert.Contains(t, msg.HTML, "Special Requests: None")
	assert.NotContains(t, msg.HTML, "<b>")
}

func TestMembershipConfirmed(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender, "https://clubverse.example", zap.NewNop())

	err := m.MembershipConfirmed(context.Background(), membership.Record{
		ID:          "0c7d2f4e-0000-4000-8000-000000000001",
		Name:        "Anmol Singh",
		Email:       "anmol@example.com",
		Type:        membership.TypePlatinum,
		Period:      membership.PeriodMonthly,
		StartDate:   time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		TotalAmount: membership.Units(250),
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "Your Club-Verse Platinum Membership", msg.Subject)
	assert.Contains(t, msg.HTML, "Valid until: 29 Feb 2024")
	assert.Contains(t, msg.HTML, "Amount paid: 250.00")
	assert.Contains(t, msg.HTML, "Period: Monthly")
}

func TestPasswordResetRequested(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender, "https://clubverse.example/", zap.NewNop())

	u := account.User{ID: uuid.New(), Name: "Anmol Singh", Email: "anmol@example.com"}
	require.NoError(t, m.PasswordResetRequested(context.Background(), u, "abc123", time.Now().Add(time.Hour)))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "Reset your Club-Verse password", msg.Subject)
	assert.Contains(t, msg.HTML, `href="https://clubverse.example/reset-password?token=abc123"`)
	assert.Contains(t, msg.HTML, "within the next hour")
}

func TestMailerSendError(t *testing.T) {
	sender := &recordingSender{err: errors.New("provider down")}
	m := NewMailer(sender, "", zap.NewNop())

	err := m.ReservationConfirmed(context.Background(), reservation.Reservation{Email: "a@b.co", Club: "Neon"})
	assert.ErrorIs(t, err, sender.err)
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `\*\*bold\*\* \[x\]\(y\)`, escapeMarkdown("**bold** [x](y)"))
	assert.Equal(t, "O'Brien", escapeMarkdown("O'Brien"))
}

func TestResendSender(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"re_123"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_key", "Club-Verse <noreply@clubverse.example>", zap.NewNop())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	s.client.BaseURL = base

	res, err := s.Send(context.Background(), SendRequest{To: []string{"a@b.co"}, Subject: "hi", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "re_123", res.MessageID)
	assert.True(t, strings.HasSuffix(gotPath, "/emails"), gotPath)
	assert.Equal(t, "Bearer re_key", gotAuth)
}

func TestNoopSender(t *testing.T) {
	res, err := NewNoopSender(zap.NewNop()).Send(context.Background(), SendRequest{To: []string{"a@b.co"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.MessageID, "noop-"))
}
