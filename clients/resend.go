package clients

import (
	"fmt"
	"os"
	"sync"

	"github.com/resend/resend-go/v2"
)

var (
	resendOnce   sync.Once
	resendClient *resend.Client
)

func mailer() *resend.Client {
	resendOnce.Do(func() {
		if key := os.Getenv("RESEND_API_KEY"); key != "" {
			resendClient = resend.NewClient(key)
		}
	})
	return resendClient
}

// SendInviteEmail delivers an invite link. Without a configured mailer it is
// a no-op so local development works offline.
func SendInviteEmail(to, tenantName, role, token string) error {
	client := mailer()
	if client == nil {
		return nil
	}

	from := os.Getenv("INVITE_EMAIL_FROM")
	if from == "" {
		from = "Control Plane <noreply@controlplane.dev>"
	}
	base := os.Getenv("APP_BASE_URL")
	if base == "" {
		base = "http://localhost:3000"
	}

	_, err := client.Emails.Send(&resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: fmt.Sprintf("You've been invited to %s", tenantName),
		Html: fmt.Sprintf(
			`<p>You have been invited to join <strong>%s</strong> as %s.</p><p><a href="%s/invites/accept?token=%s">Accept invite</a></p>`,
			tenantName, role, base, token),
	})
	return err
}
