package service

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/idna"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

// ErrInvalidEmail reports that the submitted address cannot be accepted.
var ErrInvalidEmail = errors.New("invalid email address")

// DNSResolver abstracts DNS lookups to simplify testing.
type DNSResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// EmailValidator normalizes and validates submitted email addresses. Format
// and domain-shape checks always run; MX verification is opt-in because it
// adds a network round trip to every signup.
type EmailValidator struct {
	resolver DNSResolver
	verifyMX bool
}

// EmailValidatorOption configures optional validator behavior.
type EmailValidatorOption func(*EmailValidator)

// WithMXVerification enables an MX record lookup on the address domain.
func WithMXVerification() EmailValidatorOption {
	return func(v *EmailValidator) {
		v.verifyMX = true
	}
}

// WithDNSResolver overrides the default DNS resolver.
func WithDNSResolver(resolver DNSResolver) EmailValidatorOption {
	return func(v *EmailValidator) {
		if resolver != nil {
			v.resolver = resolver
		}
	}
}

// NewEmailValidator builds a validator with sensible defaults.
func NewEmailValidator(opts ...EmailValidatorOption) *EmailValidator {
	v := &EmailValidator{resolver: systemDNSResolver{}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NormalizeEmail lowercases and trims an address for consistent storage.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Validate checks a normalized address. It returns ErrInvalidEmail (possibly
// wrapped) when the address should be rejected.
func (v *EmailValidator) Validate(ctx context.Context, email string) error {
	if email == "" || !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	if !isDomainValid(domain) {
		return ErrInvalidEmail
	}

	asciiDomain, err := idnaProfile.ToASCII(domain)
	if err != nil || asciiDomain == "" {
		return ErrInvalidEmail
	}

	if v.verifyMX && !v.hasMXRecord(ctx, asciiDomain) {
		return errors.New("email domain does not accept mail")
	}

	return nil
}

func (v *EmailValidator) hasMXRecord(ctx context.Context, domain string) bool {
	if v.resolver == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	records, err := v.resolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	parts := strings.Split(domain, ".")
	for _, part := range parts {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

type systemDNSResolver struct{}

func (systemDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return net.DefaultResolver.LookupMX(ctx, domain)
}
