package registry

import (
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/felixgeelhaar/gradewatch-queue/domain/task"
)

// wireSubmission is the client-facing submission envelope: a model
// name, the submitter's address, and the model-specific parameters.
type wireSubmission struct {
	Model      string         `json:"model"`
	Email      string         `json:"email"`
	Parameters map[string]any `json:"parameters"`
}

// Decoder implements domain/task.Decoder against a fixed set of
// registered models, standing in for an external model registry the
// broker core never depends on directly.
type Decoder struct {
	models map[string]Model

	failureSubject  *template.Template
	failureTemplate *template.Template
}

// NewDecoder builds a Decoder over the given models. failureSubject and
// failureTemplate are text/template sources rendered against
// {TaskID, Model, Email, Parameters} for a submission's terminal
// failure email.
func NewDecoder(models []Model, failureSubject, failureTemplate string) (*Decoder, error) {
	subjTmpl, err := template.New("failure_subject").Parse(failureSubject)
	if err != nil {
		return nil, fmt.Errorf("parse failure subject template: %w", err)
	}
	bodyTmpl, err := template.New("failure_body").Parse(failureTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse failure body template: %w", err)
	}

	byName := make(map[string]Model, len(models))
	for _, m := range models {
		byName[m.Name] = m
	}

	return &Decoder{
		models:          byName,
		failureSubject:  subjTmpl,
		failureTemplate: bodyTmpl,
	}, nil
}

// Decode implements domain/task.Decoder.
func (d *Decoder) Decode(raw json.RawMessage) (task.Payload, error) {
	var wire wireSubmission
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}

	model, ok := d.models[wire.Model]
	if !ok {
		return nil, &ErrUnknownModel{Model: wire.Model}
	}

	values, err := model.parse(wire.Parameters)
	if err != nil {
		return nil, err
	}

	return &Submission{
		model:           wire.Model,
		email:           wire.Email,
		parameters:      values,
		failureSubject:  d.failureSubject,
		failureTemplate: d.failureTemplate,
	}, nil
}

var _ task.Decoder = (*Decoder)(nil)
