// Package auth implements the external collaborators spec.md §6 treats
// only by interface: SASL-style authentication (ANONYMOUS/PLAIN), session
// issuance, and request authorization. Grounded on the teacher's
// internal/controlplane/api/auth (JWT sessions) and pkg/identity
// (bcrypt credential verification).
package auth

import (
	"bytes"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrRejected is returned for any SASL negotiation failure; per spec.md
// §6 "Any deviation → reject", no further detail is given to the client.
var ErrRejected = errors.New("auth: authentication rejected")

// maxAssertionLength bounds the PLAIN assertion per spec.md §6.
const maxAssertionLength = 1000

// MechanismANONYMOUS and MechanismPLAIN are the two supported SASL
// mechanism names.
const (
	MechanismANONYMOUS = "ANONYMOUS"
	MechanismPLAIN      = "PLAIN"
)

// CredentialLookup resolves a bcrypt password hash by authentication
// identity (authcid). Absent returns ok=false, never an error — an
// unknown user is a rejection, not a fault.
type CredentialLookup interface {
	LookupPasswordHash(authcid string) (hash string, ok bool)
}

// Authenticator negotiates SASL mechanisms against a CredentialLookup.
type Authenticator struct {
	creds CredentialLookup
}

// NewAuthenticator builds an Authenticator backed by creds.
func NewAuthenticator(creds CredentialLookup) *Authenticator {
	return &Authenticator{creds: creds}
}

// AvailableMechanisms lists the SASL mechanisms this server supports, for
// the GetAvailableSaslMechanisms RPC.
func (a *Authenticator) AvailableMechanisms() []string {
	return []string{MechanismANONYMOUS, MechanismPLAIN}
}

// Identity is the authenticated identity produced by a successful
// negotiation.
type Identity struct {
	// AuthcID is empty for an ANONYMOUS identity.
	AuthcID   string
	Anonymous bool
}

// Authenticate negotiates mechanism against assertion, per spec.md §6.
func (a *Authenticator) Authenticate(mechanism string, assertion []byte) (Identity, error) {
	switch mechanism {
	case MechanismANONYMOUS:
		return Identity{Anonymous: true}, nil
	case MechanismPLAIN:
		return a.authenticatePlain(assertion)
	default:
		return Identity{}, ErrRejected
	}
}

// authenticatePlain implements the PLAIN mechanism: assertion is
// "<authzid>\0<authcid>\0<password>" with exactly two NUL separators.
func (a *Authenticator) authenticatePlain(assertion []byte) (Identity, error) {
	if len(assertion) > maxAssertionLength {
		return Identity{}, ErrRejected
	}
	// Unbounded split: there MUST be exactly two NUL separators. A third
	// NUL (a 4th part) means the assertion is malformed, not that the
	// password contains a literal NUL byte.
	parts := bytes.Split(assertion, []byte{0})
	if len(parts) != 3 {
		return Identity{}, ErrRejected
	}
	authzid, authcid, password := string(parts[0]), string(parts[1]), parts[2]

	if authzid != "" && authzid != authcid {
		return Identity{}, ErrRejected
	}
	if authcid == "" {
		return Identity{}, ErrRejected
	}

	hash, ok := a.creds.LookupPasswordHash(authcid)
	if !ok {
		return Identity{}, ErrRejected
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), password); err != nil {
		return Identity{}, ErrRejected
	}
	return Identity{AuthcID: authcid}, nil
}
