package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagebook/internal/domain"
)

type fakeMailer struct {
	to      string
	subject string
	err     error
}

func (f *fakeMailer) Send(to, subject, html, text string) error {
	f.to = to
	f.subject = subject
	return f.err
}

type fakeRenderer struct {
	template string
	err      error
}

func (f *fakeRenderer) Render(templateName string, data any) (string, string, string, error) {
	f.template = templateName
	if f.err != nil {
		return "", "", "", f.err
	}
	return "subject " + templateName, "<p>html</p>", "text", nil
}

func TestNotifierService(t *testing.T) {
	data := &domain.BookingDecisionEmailData{Email: "mara@example.com", Requester: "Mara"}

	t.Run("accepted renders and sends", func(t *testing.T) {
		mailer := &fakeMailer{}
		renderer := &fakeRenderer{}
		n := NewNotifierService(mailer, renderer)

		require.NoError(t, n.BookingAccepted(context.Background(), data))
		assert.Equal(t, "booking_accepted", renderer.template)
		assert.Equal(t, "mara@example.com", mailer.to)
		assert.Equal(t, "subject booking_accepted", mailer.subject)
	})

	t.Run("rejected uses the rejection template", func(t *testing.T) {
		renderer := &fakeRenderer{}
		n := NewNotifierService(&fakeMailer{}, renderer)

		require.NoError(t, n.BookingRejected(context.Background(), data))
		assert.Equal(t, "booking_rejected", renderer.template)
	})

	t.Run("missing recipient", func(t *testing.T) {
		n := NewNotifierService(&fakeMailer{}, &fakeRenderer{})
		assert.Error(t, n.BookingAccepted(context.Background(), &domain.BookingDecisionEmailData{}))
	})

	t.Run("render failure is wrapped", func(t *testing.T) {
		n := NewNotifierService(&fakeMailer{}, &fakeRenderer{err: errors.New("no template")})
		err := n.BookingAccepted(context.Background(), data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "render booking_accepted template")
	})

	t.Run("send failure is wrapped", func(t *testing.T) {
		n := NewNotifierService(&fakeMailer{err: errors.New("smtp down")}, &fakeRenderer{})
		err := n.BookingRejected(context.Background(), data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "send booking_rejected email")
	})
}
