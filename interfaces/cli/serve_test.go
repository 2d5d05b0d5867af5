package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
listen_addr: ":0"
confirm_timeout: 1h
keep_alive_interval: 10ms
keep_alive_timeout: 50ms
max_job_failures: 3
confirm_email_subject: "Confirm your run"
confirm_email_template: "Visit /client_confirm/{{.Code}}"
failure_email_subject: "Run failed"
failure_email_template: "Task {{.TaskID}} failed"
previously_confirmed_capacity: 100
smtp:
  host: localhost
  port: 25
  from: queue@example.test
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestApp_ServeStartsAndStopsOnCancel(t *testing.T) {
	app := New()
	configPath := writeTestConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	opts := &serveOptions{configPath: configPath, port: 0, logPath: "-"}

	done := make(chan error, 1)
	go func() {
		done <- app.serve(ctx, opts)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve() did not return after context cancellation")
	}
}

func TestApp_ServeFallsBackToDefaultsWhenConfigMissing(t *testing.T) {
	app := New()

	ctx, cancel := context.WithCancel(context.Background())
	opts := &serveOptions{configPath: filepath.Join(t.TempDir(), "missing.yaml"), port: 0, logPath: "-"}

	done := make(chan error, 1)
	go func() {
		done <- app.serve(ctx, opts)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve() did not return after context cancellation")
	}
}
