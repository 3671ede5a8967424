package emails

import (
	"fmt"

	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/apperr"
)

// Message is a rendered email ready for a Sender.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// ErrUnknownKind is returned by Render for a kind with no template.
var ErrUnknownKind = apperr.Validation("unknown_notification_kind", "Unknown notification kind")

// ErrMissingParam is returned when a template parameter is absent.
func ErrMissingParam(name string) error {
	return apperr.Validation("missing_param", fmt.Sprintf("Missing notification parameter %q", name))
}

// Render builds the email for a notification kind. Parameters by kind:
// url for verification, reset and magic link; code for one-time passcodes;
// organisationName, inviterName and url for invitations.
func Render(kind domain.NotificationKind, to string, params map[string]interface{}) (*Message, error) {
	get := func(name string) (string, error) {
		v, _ := params[name].(string)
		if v == "" {
			return "", ErrMissingParam(name)
		}
		return v, nil
	}

	var subject, content string
	switch kind {
	case domain.NotificationEmailVerification:
		url, err := get("url")
		if err != nil {
			return nil, err
		}
		subject = "Verify your email address"
		content = linkContent("Verify your email", "Confirm your email address to finish setting up your Axis account.", "Verify Email", url)
	case domain.NotificationPasswordReset:
		url, err := get("url")
		if err != nil {
			return nil, err
		}
		subject = "Reset your password"
		content = linkContent("Reset your password", "We received a request to reset the password for your Axis account.", "Reset Password", url)
	case domain.NotificationMagicLink:
		url, err := get("url")
		if err != nil {
			return nil, err
		}
		subject = "Sign in to your account"
		content = linkContent("Sign in to Axis", "Use the button below to sign in. The link can only be used once.", "Sign In", url)
	case domain.NotificationOneTimePasscode:
		code, err := get("code")
		if err != nil {
			return nil, err
		}
		subject = "Verify your email address"
		content = otpContent(code)
	case domain.NotificationInvitation:
		org, err := get("organisationName")
		if err != nil {
			return nil, err
		}
		url, err := get("url")
		if err != nil {
			return nil, err
		}
		inviter, _ := params["inviterName"].(string)
		if inviter == "" {
			inviter = "Someone"
		}
		subject = fmt.Sprintf("You've been invited to join %s on Axis", org)
		content = invitationContent(inviter, org, url)
	default:
		return nil, ErrUnknownKind
	}
	return &Message{To: to, Subject: subject, HTML: EmailLayout(content)}, nil
}

func linkContent(heading, body, action, url string) string {
	return fmt.Sprintf(`
    <h1>%s</h1>
    <p>%s</p>
    <center>
      <a href="%s" class="axis-button">%s</a>
    </center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">If you did not request this, you can safely ignore this email.</p>
`, EscapeHTML(heading), EscapeHTML(body), EscapeHTML(url), EscapeHTML(action))
}

func otpContent(code string) string {
	return fmt.Sprintf(`
    <h1>Your verification code</h1>
    <p>Enter this code to continue:</p>
    <center><span class="axis-code">%s</span></center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">The code expires shortly. If you did not request it, you can safely ignore this email.</p>
`, EscapeHTML(code))
}

func invitationContent(inviterName, orgName, url string) string {
	return fmt.Sprintf(`
    <h1>Join %s on Axis</h1>
    <p><strong>%s</strong> has invited you to join <strong>%s</strong> on Axis.</p>
    <center>
      <a href="%s" class="axis-button">Accept Invitation</a>
    </center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">This invitation expires in 7 days. If you were not expecting it, you can safely ignore this email.</p>
`, EscapeHTML(orgName), EscapeHTML(inviterName), EscapeHTML(orgName), EscapeHTML(url))
}
