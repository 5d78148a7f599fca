package mailer

import "embed"

const (
	FromName                     = "Barterly"
	maxRetries                   = 3
	VerificationDecisionTemplate = "verification_decision.tmpl"
	UserWelcomeTemplate          = "user_welcome.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
