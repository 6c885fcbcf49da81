package services

import (
	"context"
	"fmt"

	"stagebook/internal/domain"
)

type notifierService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewNotifierService returns a Notifier that renders booking decision emails
// from templates and sends them through the given Mailer.
func NewNotifierService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.Notifier {
	return &notifierService{mailer: mailer, renderer: renderer}
}

func (s *notifierService) BookingAccepted(ctx context.Context, data *domain.BookingDecisionEmailData) error {
	return s.send("booking_accepted", data)
}

func (s *notifierService) BookingRejected(ctx context.Context, data *domain.BookingDecisionEmailData) error {
	return s.send("booking_rejected", data)
}

func (s *notifierService) send(template string, data *domain.BookingDecisionEmailData) error {
	if data == nil || data.Email == "" {
		return fmt.Errorf("notification data is missing a recipient")
	}
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("render %s template: %w", template, err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send %s email: %w", template, err)
	}
	return nil
}
