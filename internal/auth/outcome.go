package auth

import (
	"errors"
	"time"

	"github.com/jlr/user-service/internal/domain"
)

// Reason explains why a token or request was rejected.
type Reason string

const (
	ReasonInvalidSignature     Reason = "INVALID_SIGNATURE"
	ReasonExpired              Reason = "EXPIRED"
	ReasonNotYetValid          Reason = "NOT_YET_VALID"
	ReasonIssuerMismatch       Reason = "ISSUER_MISMATCH"
	ReasonAudienceMismatch     Reason = "AUDIENCE_MISMATCH"
	ReasonSubjectMismatch      Reason = "SUBJECT_MISMATCH"
	ReasonWrongTokenKind       Reason = "WRONG_TOKEN_KIND"
	ReasonPrincipalUnavailable Reason = "PRINCIPAL_UNAVAILABLE"
)

func (r Reason) Error() string {
	return "token rejected: " + string(r)
}

// ReasonOf returns the rejection reason carried by err, or "ERROR" for anything else.
func ReasonOf(err error) Reason {
	var r Reason
	if errors.As(err, &r) {
		return r
	}
	return "ERROR"
}

// ConfigurationError reports an unusable signing secret.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "jwt configuration: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Identity is what a verified access token asserts about its bearer.
type Identity struct {
	Username    string
	PrincipalID int64
	Roles       []domain.Role
	TokenID     string
	ExpiresAt   time.Time
}

// Outcome is either an authenticated identity or a rejection reason, never both.
type Outcome struct {
	identity *Identity
	reason   Reason
}

func authenticated(id Identity) Outcome {
	return Outcome{identity: &id}
}

func rejected(r Reason) Outcome {
	return Outcome{reason: r}
}

// Identity returns the verified identity when the outcome is authenticated.
func (o Outcome) Identity() (Identity, bool) {
	if o.identity == nil {
		return Identity{}, false
	}
	return *o.identity, true
}

// Authenticated reports whether every check passed.
func (o Outcome) Authenticated() bool {
	return o.identity != nil
}

// Reason is empty for authenticated outcomes.
func (o Outcome) Reason() Reason {
	return o.reason
}

// Err returns the rejection reason as an error, or nil.
func (o Outcome) Err() error {
	if o.identity != nil {
		return nil
	}
	return o.reason
}
