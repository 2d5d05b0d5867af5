package registry

import (
	"bytes"
	"text/template"

	domainmail "github.com/felixgeelhaar/gradewatch-queue/domain/mail"
)

// failureEmailData is the template context available to the
// registry's failure email.
type failureEmailData struct {
	TaskID    int64
	Model     string
	Email     string
	Parameters map[string]any
}

// Submission is a decoded client request, bound to its registered
// model and validated parameter values. It implements
// domain/task.Payload.
type Submission struct {
	model      string
	email      string
	parameters map[string]any

	failureCount int

	failureSubject  *template.Template
	failureTemplate *template.Template
}

// EmailAddress implements domain/task.Payload.
func (s *Submission) EmailAddress() string { return s.email }

// FailureCount implements domain/task.Payload.
func (s *Submission) FailureCount() int { return s.failureCount }

// SetFailureCount implements domain/task.Payload.
func (s *Submission) SetFailureCount(n int) { s.failureCount = n }

// FailureEmail implements domain/task.Payload, rendering the
// registry-configured failure templates against this submission plus
// the broker-assigned task id.
func (s *Submission) FailureEmail(taskID int64) domainmail.Message {
	data := failureEmailData{
		TaskID:     taskID,
		Model:      s.model,
		Email:      s.email,
		Parameters: s.parameters,
	}

	var subj, body bytes.Buffer
	// The templates were parsed successfully at decoder construction
	// time; a render failure here would indicate a context field typo,
	// not a runtime condition, so fall back to a plain message rather
	// than lose the notification entirely.
	if err := s.failureSubject.Execute(&subj, data); err != nil {
		subj.WriteString("Your model run failed")
	}
	if err := s.failureTemplate.Execute(&body, data); err != nil {
		body.WriteString("Your request failed after repeated attempts.")
	}

	return domainmail.Message{To: s.email, Subject: subj.String(), Body: body.String()}
}

// Encode implements domain/task.Payload. It returns a flat dict: each
// parameter value under its own name, beside "model" and "email". The
// dict has no "parameters" envelope, so passing it back to Decode does
// not reproduce the submission's parameter values.
func (s *Submission) Encode() (map[string]any, error) {
	dict := make(map[string]any, len(s.parameters)+2)
	for k, v := range s.parameters {
		dict[k] = v
	}
	dict["model"] = s.model
	dict["email"] = s.email
	return dict, nil
}
