// Package config provides the domain model for broker configuration.
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// BrokerConfig is the complete, typed configuration for a running
// broker process.
type BrokerConfig struct {
	// ListenAddr is the HTTP surface's listen address, e.g. ":9000".
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`

	// ConfirmTimeout is how long a pending confirmation entry survives
	// before the expiry loop sweeps it.
	ConfirmTimeout time.Duration `json:"confirm_timeout" yaml:"confirm_timeout"`

	// KeepAliveInterval is the expiry loop's tick period.
	KeepAliveInterval time.Duration `json:"keep_alive_interval" yaml:"keep_alive_interval"`

	// KeepAliveTimeout is how long a processing task may go without a
	// heartbeat before it is considered stale, and how long a worker
	// may go unseen before HasWorkers reports false.
	KeepAliveTimeout time.Duration `json:"keep_alive_timeout" yaml:"keep_alive_timeout"`

	// MaxJobFailures is the failure count at which a recycled task is
	// terminated instead of re-enqueued.
	MaxJobFailures int `json:"max_job_failures" yaml:"max_job_failures"`

	// ConfirmEmailSubject is the text/template source for the
	// confirmation email's subject line.
	ConfirmEmailSubject string `json:"confirm_email_subject" yaml:"confirm_email_subject"`

	// ConfirmEmailTemplate is the text/template source for the
	// confirmation email's body.
	ConfirmEmailTemplate string `json:"confirm_email_template" yaml:"confirm_email_template"`

	// FailureEmailSubject is the text/template source for the
	// exhausted-retries failure email's subject line.
	FailureEmailSubject string `json:"failure_email_subject" yaml:"failure_email_subject"`

	// FailureEmailTemplate is the text/template source for the
	// exhausted-retries failure email's body.
	FailureEmailTemplate string `json:"failure_email_template" yaml:"failure_email_template"`

	// PreviouslyConfirmedCapacity bounds the LRU of redeemed
	// confirmation codes.
	PreviouslyConfirmedCapacity int `json:"previously_confirmed_capacity" yaml:"previously_confirmed_capacity"`

	// SMTP configures the outbound mail transport.
	SMTP SMTPConfig `json:"smtp" yaml:"smtp"`
}

// SMTPConfig configures the mail gateway's SMTP transport.
type SMTPConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	From     string `json:"from" yaml:"from"`
}

// rawBrokerConfig mirrors BrokerConfig with every field as a pointer
// (or a duration left as a string) so decoding can tell an omitted
// field apart from a zero value. This lets UnmarshalYAML/UnmarshalJSON
// overlay only the fields a document actually sets onto a receiver
// that already holds its defaults.
type rawBrokerConfig struct {
	ListenAddr                  *string     `json:"listen_addr" yaml:"listen_addr"`
	ConfirmTimeout              *string     `json:"confirm_timeout" yaml:"confirm_timeout"`
	KeepAliveInterval           *string     `json:"keep_alive_interval" yaml:"keep_alive_interval"`
	KeepAliveTimeout            *string     `json:"keep_alive_timeout" yaml:"keep_alive_timeout"`
	MaxJobFailures              *int        `json:"max_job_failures" yaml:"max_job_failures"`
	ConfirmEmailSubject         *string     `json:"confirm_email_subject" yaml:"confirm_email_subject"`
	ConfirmEmailTemplate        *string     `json:"confirm_email_template" yaml:"confirm_email_template"`
	FailureEmailSubject         *string     `json:"failure_email_subject" yaml:"failure_email_subject"`
	FailureEmailTemplate        *string     `json:"failure_email_template" yaml:"failure_email_template"`
	PreviouslyConfirmedCapacity *int        `json:"previously_confirmed_capacity" yaml:"previously_confirmed_capacity"`
	SMTP                        *SMTPConfig `json:"smtp" yaml:"smtp"`
}

// applyRaw overlays the fields raw actually sets onto c, parsing the
// three duration fields from their human-readable form.
func (c *BrokerConfig) applyRaw(raw rawBrokerConfig) error {
	if raw.ListenAddr != nil {
		c.ListenAddr = *raw.ListenAddr
	}
	if raw.ConfirmTimeout != nil {
		d, err := time.ParseDuration(*raw.ConfirmTimeout)
		if err != nil {
			return fmt.Errorf("confirm_timeout: %w", err)
		}
		c.ConfirmTimeout = d
	}
	if raw.KeepAliveInterval != nil {
		d, err := time.ParseDuration(*raw.KeepAliveInterval)
		if err != nil {
			return fmt.Errorf("keep_alive_interval: %w", err)
		}
		c.KeepAliveInterval = d
	}
	if raw.KeepAliveTimeout != nil {
		d, err := time.ParseDuration(*raw.KeepAliveTimeout)
		if err != nil {
			return fmt.Errorf("keep_alive_timeout: %w", err)
		}
		c.KeepAliveTimeout = d
	}
	if raw.MaxJobFailures != nil {
		c.MaxJobFailures = *raw.MaxJobFailures
	}
	if raw.ConfirmEmailSubject != nil {
		c.ConfirmEmailSubject = *raw.ConfirmEmailSubject
	}
	if raw.ConfirmEmailTemplate != nil {
		c.ConfirmEmailTemplate = *raw.ConfirmEmailTemplate
	}
	if raw.FailureEmailSubject != nil {
		c.FailureEmailSubject = *raw.FailureEmailSubject
	}
	if raw.FailureEmailTemplate != nil {
		c.FailureEmailTemplate = *raw.FailureEmailTemplate
	}
	if raw.PreviouslyConfirmedCapacity != nil {
		c.PreviouslyConfirmedCapacity = *raw.PreviouslyConfirmedCapacity
	}
	if raw.SMTP != nil {
		c.SMTP = *raw.SMTP
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler so confirm_timeout,
// keep_alive_interval and keep_alive_timeout can be written as
// human-readable durations (e.g. "24h", "30s") in configuration
// files, overlaying only the fields the document sets onto whatever
// defaults the receiver already holds.
func (c *BrokerConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw rawBrokerConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return c.applyRaw(raw)
}

// UnmarshalJSON implements json.Unmarshaler with the same
// human-readable duration support as UnmarshalYAML.
func (c *BrokerConfig) UnmarshalJSON(data []byte) error {
	var raw rawBrokerConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return c.applyRaw(raw)
}

// DefaultBrokerConfig returns a configuration with sensible defaults
// for local development.
func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{
		ListenAddr:                  ":9000",
		ConfirmTimeout:              24 * time.Hour,
		KeepAliveInterval:           30 * time.Second,
		KeepAliveTimeout:            2 * time.Minute,
		MaxJobFailures:              3,
		ConfirmEmailSubject:         "Confirm your model run",
		ConfirmEmailTemplate:        "Visit /client_confirm/{{.Code}} within {{.ExpireDelta}} to confirm your request.",
		FailureEmailSubject:         "Your model run failed",
		FailureEmailTemplate:        "Your request (task {{.TaskID}}) failed after repeated attempts.",
		PreviouslyConfirmedCapacity: 10000,
		SMTP: SMTPConfig{
			Host: "localhost",
			Port: 25,
			From: "queue@gradewatch.local",
		},
	}
}
