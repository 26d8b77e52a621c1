package templates

import (
	"fmt"
	"html"
	"time"
)

// InviteEmailData holds data for the league invite email
type InviteEmailData struct {
	InviterName string
	LeagueName  string
	Link        string
	MaxUses     int
	ExpiresAt   *time.Time
}

const fallbackInviter = "A league owner"

func (d InviteEmailData) inviter() string {
	if d.InviterName == "" {
		return fallbackInviter
	}
	return d.InviterName
}

func (d InviteEmailData) league() string {
	if d.LeagueName == "" {
		return "a league"
	}
	return d.LeagueName
}

// Intro is the opening line naming who sent the invite
func (d InviteEmailData) Intro() string {
	return fmt.Sprintf("%s has invited you to join %s.", d.inviter(), d.league())
}

func (d InviteEmailData) usesLine() string {
	switch {
	case d.MaxUses == 1:
		return "This invite can be used once."
	case d.MaxUses > 1:
		return fmt.Sprintf("This invite can be used up to %d times.", d.MaxUses)
	default:
		return ""
	}
}

// InviteSubject is the subject line for a league invite email
func InviteSubject(d InviteEmailData) string {
	if d.LeagueName == "" {
		return "You've been invited to join a league"
	}
	return fmt.Sprintf("You've been invited to join %s", d.LeagueName)
}

// RenderInvitePlain generates the plain text body of the invite email
func RenderInvitePlain(d InviteEmailData) string {
	body := fmt.Sprintf("%s\n\nAccept the invite using this link:\n%s\n", d.Intro(), d.Link)
	if uses := d.usesLine(); uses != "" {
		body += "\n" + uses + "\n"
	}
	if d.ExpiresAt != nil {
		body += fmt.Sprintf("\nThis invite expires on %s.\n", d.ExpiresAt.UTC().Format(time.RFC1123))
	}
	return body
}

// RenderInviteEmail generates branded HTML for the invite email. Every value is escaped.
func RenderInviteEmail(d InviteEmailData) string {
	subject := html.EscapeString(InviteSubject(d))
	intro := html.EscapeString(d.Intro())
	link := html.EscapeString(d.Link)
	uses := ""
	if line := d.usesLine(); line != "" {
		uses = fmt.Sprintf(`<p>%s</p>`, html.EscapeString(line))
	}
	expiry := ""
	if d.ExpiresAt != nil {
		expiry = fmt.Sprintf(`<p><strong>This invite expires on %s.</strong></p>`,
			html.EscapeString(d.ExpiresAt.UTC().Format(time.RFC1123)))
	}

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #0a0a0f; }
    .container { max-width: 600px; margin: 0 auto; background-color: #12121f; }
    .header { background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #e5e7eb; line-height: 1.6; font-size: 15px; }
    .cta-button { display: inline-block; background: #667eea; color: #fff; padding: 14px 28px; border-radius: 8px; text-decoration: none; font-weight: 700; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(255,255,255,0.1); }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      <p>%s</p>
      <p>Click the button below to join:</p>
      <div style="text-align: center; margin: 30px 0;">
        <a href="%s" class="cta-button">Accept Invite</a>
      </div>
      <p>Or copy and paste this link into your browser:</p>
      <p style="word-break: break-all; color: #667eea;">%s</p>
      %s
      %s
      <p>If you weren't expecting this invite, you can ignore this email.</p>
    </div>
    <div class="footer">
      <p>Sent on behalf of the league owner.</p>
    </div>
  </div>
</body>
</html>`, subject, subject, intro, link, link, uses, expiry)
}
