// Package notifications delivers issued invites by email.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/linesmerrill/league-invite-api/logging"
	"github.com/linesmerrill/league-invite-api/models"
	templates "github.com/linesmerrill/league-invite-api/templates/html"
)

// ErrDisabled is returned when no SendGrid API key is configured
var ErrDisabled = errors.New("email notifications are disabled")

// MailClient is the part of the SendGrid client the notifier uses
type MailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// LeagueNameFunc looks up a display name for a league. An empty result is fine.
type LeagueNameFunc func(ctx context.Context, leagueID string) string

// SendGridNotifier sends invite emails through SendGrid
type SendGridNotifier struct {
	client     MailClient
	from       *mail.Email
	leagueName LeagueNameFunc
}

// NewSendGridNotifier returns a notifier for apiKey. With an empty key every send
// returns ErrDisabled.
func NewSendGridNotifier(apiKey, fromName, fromEmail string, leagueName LeagueNameFunc) *SendGridNotifier {
	n := &SendGridNotifier{
		from:       mail.NewEmail(fromName, fromEmail),
		leagueName: leagueName,
	}
	if strings.TrimSpace(apiKey) != "" {
		n.client = sendgrid.NewSendClient(apiKey)
	}
	return n
}

// Enabled reports whether an API key was configured
func (n *SendGridNotifier) Enabled() bool {
	return n.client != nil
}

// SendInvite emails link to recipient
func (n *SendGridNotifier) SendInvite(ctx context.Context, invite models.InviteCode, inviter, recipient, link string) error {
	if n.client == nil {
		return ErrDisabled
	}

	data := templates.InviteEmailData{
		InviterName: inviter,
		Link:        link,
		MaxUses:     invite.MaxUses,
		ExpiresAt:   invite.ExpiresAt,
	}
	if n.leagueName != nil {
		data.LeagueName = n.leagueName(ctx, invite.LeagueID)
	}

	to := mail.NewEmail("", recipient)
	message := mail.NewSingleEmail(n.from, templates.InviteSubject(data), to,
		templates.RenderInvitePlain(data), templates.RenderInviteEmail(data))
	response, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		zap.S().Errorw("failed to send invite email", "error", err, "code", logging.Code(invite.Code))
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status",
			"status", response.StatusCode,
			"body", response.Body,
			"code", logging.Code(invite.Code))
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	zap.S().Infow("invite email sent", "leagueId", invite.LeagueID, "code", logging.Code(invite.Code))
	return nil
}
