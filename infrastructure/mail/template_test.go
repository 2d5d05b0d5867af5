package mail

import (
	"testing"
	"time"
)

func TestRenderer_Confirmation(t *testing.T) {
	r, err := NewRenderer(
		"Confirm your model run",
		"Visit /client_confirm/{{.Code}} within {{.ExpireDelta}} to confirm your request.",
	)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	msg, err := r.Confirmation("student@example.edu", ConfirmationData{
		Code:        "abc123",
		ExpireDelta: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("Confirmation() error = %v", err)
	}

	if msg.To != "student@example.edu" {
		t.Errorf("To = %s, want student@example.edu", msg.To)
	}
	if msg.Subject != "Confirm your model run" {
		t.Errorf("Subject = %s, want Confirm your model run", msg.Subject)
	}
	want := "Visit /client_confirm/abc123 within 24h0m0s to confirm your request."
	if msg.Body != want {
		t.Errorf("Body = %q, want %q", msg.Body, want)
	}
}

func TestRenderer_InvalidTemplate(t *testing.T) {
	_, err := NewRenderer("ok", "{{.Unclosed")
	if err == nil {
		t.Fatal("NewRenderer() should error on invalid template")
	}
}
