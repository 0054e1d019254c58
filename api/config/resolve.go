package config

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var priceIDPattern = regexp.MustCompile(`^price_[A-Za-z0-9]+$`)

// Setting error kinds. The kind prefixes every error code returned to callers.
const (
	KindMissing = "ENV_MISSING"
	KindInvalid = "ENV_INVALID"
)

var (
	// ErrMissing matches any SettingError of kind ENV_MISSING.
	ErrMissing = errors.New("missing setting")
	// ErrInvalid matches any SettingError of kind ENV_INVALID.
	ErrInvalid = errors.New("invalid setting")
)

// SettingError reports a missing or malformed configuration value.
// Error() is the machine-readable code sent to callers, e.g.
// "ENV_MISSING: STRIPE_SECRET_KEY".
type SettingError struct {
	Kind    string
	Setting string
	// Alternatives lists the other variables consulted for the setting.
	Alternatives []string
	Detail       string
}

func (e *SettingError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind)
	b.WriteString(": ")
	b.WriteString(e.Setting)
	if len(e.Alternatives) > 0 {
		b.WriteString(" (or ")
		b.WriteString(strings.Join(e.Alternatives, "/"))
		b.WriteString(")")
	}
	if e.Detail != "" {
		b.WriteString(" ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *SettingError) Is(target error) bool {
	switch target {
	case ErrMissing:
		return e.Kind == KindMissing
	case ErrInvalid:
		return e.Kind == KindInvalid
	}
	return false
}

// Candidate is one source for a logical setting.
type Candidate struct {
	Key   string
	Value string
}

// Resolve returns the first non-blank candidate value, trimmed. When every
// candidate is blank the error names the setting and the other keys tried.
func Resolve(setting string, candidates ...Candidate) (string, error) {
	for _, c := range candidates {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v, nil
		}
	}
	var alts []string
	for _, c := range candidates {
		if c.Key != setting {
			alts = append(alts, c.Key)
		}
	}
	return "", &SettingError{Kind: KindMissing, Setting: setting, Alternatives: alts}
}

// Require is Resolve for a setting with a single source.
func Require(setting, value string) (string, error) {
	return Resolve(setting, Candidate{Key: setting, Value: value})
}

// NormalizeBaseURL turns a configured site address into an absolute URL
// without a trailing slash. Bare hosts get an https:// scheme.
func NormalizeBaseURL(setting, raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", &SettingError{Kind: KindMissing, Setting: setting}
	}
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		v = "https://" + v
	}
	u, err := url.Parse(v)
	if err != nil || u.Host == "" || strings.ContainsAny(u.Host, " \t") {
		return "", &SettingError{Kind: KindInvalid, Setting: setting, Detail: `got="` + raw + `"`}
	}
	return strings.TrimRight(u.String(), "/"), nil
}
