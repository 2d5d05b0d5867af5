package mail

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	domainmail "github.com/felixgeelhaar/gradewatch-queue/domain/mail"
)

// ConfirmationData is the template context for a confirmation email.
type ConfirmationData struct {
	Code        string
	ExpireDelta time.Duration
}

// Renderer builds outbound messages from the operator-configured
// subject/body templates.
type Renderer struct {
	confirmSubject *template.Template
	confirmBody    *template.Template
}

// NewRenderer parses the confirmation email templates. The failure
// email is rendered by the submitted task's own Payload, since only
// the model registry knows what a terminal failure means for that job
// type.
func NewRenderer(confirmSubject, confirmBody string) (*Renderer, error) {
	subjTmpl, err := template.New("confirm_subject").Parse(confirmSubject)
	if err != nil {
		return nil, fmt.Errorf("parse confirm subject template: %w", err)
	}
	bodyTmpl, err := template.New("confirm_body").Parse(confirmBody)
	if err != nil {
		return nil, fmt.Errorf("parse confirm body template: %w", err)
	}
	return &Renderer{confirmSubject: subjTmpl, confirmBody: bodyTmpl}, nil
}

// Render implements domainmail.ConfirmRenderer.
func (r *Renderer) Render(recipient, code string, expireDelta time.Duration) (domainmail.Message, error) {
	return r.Confirmation(recipient, ConfirmationData{Code: code, ExpireDelta: expireDelta})
}

// Confirmation renders the confirmation email addressed to recipient.
func (r *Renderer) Confirmation(recipient string, data ConfirmationData) (domainmail.Message, error) {
	var subj, body bytes.Buffer
	if err := r.confirmSubject.Execute(&subj, data); err != nil {
		return domainmail.Message{}, fmt.Errorf("render confirm subject: %w", err)
	}
	if err := r.confirmBody.Execute(&body, data); err != nil {
		return domainmail.Message{}, fmt.Errorf("render confirm body: %w", err)
	}
	return domainmail.Message{
		To:      recipient,
		Subject: subj.String(),
		Body:    body.String(),
	}, nil
}

var _ domainmail.ConfirmRenderer = (*Renderer)(nil)
