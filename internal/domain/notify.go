package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// BookingDecisionEmailData holds data for the booking accepted/rejected emails
// sent to the requester when the owner decides on a request.
type BookingDecisionEmailData struct {
	Email      string
	Requester  string
	TargetName string
	DateFrom   string // "2 Jan 2006"
	DateTo     string
	EventType  string
}

// Notifier is the outbound notification sink triggered by booking workflow
// transitions. Failures are logged by callers, never propagated: a lost
// notification must not fail an accept or reject.
type Notifier interface {
	BookingAccepted(ctx context.Context, data *BookingDecisionEmailData) error
	BookingRejected(ctx context.Context, data *BookingDecisionEmailData) error
}
