package config

import (
	"fmt"
	"os"
	"strings"

	domainconfig "github.com/felixgeelhaar/gradewatch-queue/domain/config"
)

// secretField names one of SMTPConfig's string fields alongside the
// accessor that reaches it. These four are the only BrokerConfig values
// ever worth pulling from the environment instead of a checked-in file;
// listen address, timeouts, and failure counts are plain operational
// values with no reason to hide in a shell variable.
type secretField struct {
	name string
	get  func(*domainconfig.SMTPConfig) *string
}

var smtpSecretFields = []secretField{
	{"smtp.host", func(s *domainconfig.SMTPConfig) *string { return &s.Host }},
	{"smtp.username", func(s *domainconfig.SMTPConfig) *string { return &s.Username }},
	{"smtp.password", func(s *domainconfig.SMTPConfig) *string { return &s.Password }},
	{"smtp.from", func(s *domainconfig.SMTPConfig) *string { return &s.From }},
}

// expandSMTPSecrets resolves any "${VAR}" or "${VAR:-default}" reference
// held by the four SMTP credential fields, in place. A field holding a
// plain literal is left untouched. A reference to an unset variable with
// no default is left in place unchanged; in strict mode it is also
// collected as an error.
func expandSMTPSecrets(smtp *domainconfig.SMTPConfig, strict bool) error {
	var unresolved []string
	for _, f := range smtpSecretFields {
		field := f.get(smtp)
		value, ok := resolveRef(*field)
		if !ok {
			if strict {
				unresolved = append(unresolved, f.name)
			}
			continue
		}
		*field = value
	}
	if len(unresolved) > 0 {
		return fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(unresolved, ", "))
	}
	return nil
}

// resolveRef resolves a single field value. A value not shaped like
// "${...}" is returned unchanged. ok is false only when the reference
// names an unset variable with no ":-default" fallback.
func resolveRef(value string) (string, bool) {
	ref, isRef := strings.CutPrefix(value, "${")
	if !isRef {
		return value, true
	}
	ref, isRef = strings.CutSuffix(ref, "}")
	if !isRef {
		return value, true
	}

	name, def, hasDefault := strings.Cut(ref, ":-")
	if v, set := os.LookupEnv(name); set {
		return v, true
	}
	if hasDefault {
		return def, true
	}
	return "", false
}
