// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package tlsprofile

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"strings"
)

// List of NegotiationError reasons
const (
	// ErrTransportUnreachable is returned when the TCP connection itself
	// could not be established (refused, timed out or unresolvable). The
	// profile does not matter in that case, so the fallback sequence is
	// aborted
	ErrTransportUnreachable Reason = iota

	// ErrHandshakeFailure is returned when the server rejected the offered
	// protocol parameters or cipher set after the TCP connection succeeded
	ErrHandshakeFailure

	// ErrProtocolVersionMismatch is returned when no protocol version within
	// the profile's bounds was acceptable to the server
	ErrProtocolVersionMismatch

	// ErrCertificateVerifyFailed is returned when the handshake itself
	// succeeded but the peer certificate is untrusted, expired or does not
	// match the hostname
	ErrCertificateVerifyFailed

	// ErrAllProfilesExhausted is returned when every profile in the fallback
	// sequence was attempted without success
	ErrAllProfilesExhausted

	// ErrUnsafeProfileRejected is returned when a verification-disabled
	// profile was requested for a non-loopback host. No socket is opened in
	// that case
	ErrUnsafeProfileRejected

	// ErrUnknownProfile is returned when the selector names a profile that
	// does not exist in the profile table
	ErrUnknownProfile
)

// Reason represents a comparable classification of why a connection attempt
// or a whole negotiation failed.
type Reason int

// String satisfies the fmt.Stringer interface for the Reason type.
func (r Reason) String() string {
	switch r {
	case ErrTransportUnreachable:
		return "transport unreachable"
	case ErrHandshakeFailure:
		return "handshake failure"
	case ErrProtocolVersionMismatch:
		return "protocol version mismatch"
	case ErrCertificateVerifyFailed:
		return "certificate verification failed"
	case ErrAllProfilesExhausted:
		return "all profiles exhausted"
	case ErrUnsafeProfileRejected:
		return "unsafe profile rejected for non-loopback host"
	case ErrUnknownProfile:
		return "unknown profile"
	}
	return "unknown reason"
}

// Attempt is the recorded outcome of a single profile attempt. Attempts are
// collected in negotiation order into the NegotiationError report when the
// sequence fails.
type Attempt struct {
	// Profile is the name of the attempted profile
	Profile string

	// Reason classifies the failure; meaningless when Err is nil
	Reason Reason

	// Err is the underlying error, nil for a successful probe attempt
	Err error

	// TLSVersion and CipherSuite carry the negotiated parameters of a
	// successful probe attempt
	TLSVersion  string
	CipherSuite string
}

// OK reports whether the attempt completed a handshake.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// NegotiationError is the structured failure result of a Negotiator.Connect
// call. It carries the terminal reason plus the ordered list of per-profile
// attempt outcomes that led to it.
type NegotiationError struct {
	addr     string
	attempts []Attempt
	Reason   Reason
}

// Error implements the error interface for the NegotiationError type.
func (e *NegotiationError) Error() string {
	var msg strings.Builder
	msg.WriteString(e.Reason.String())
	if e.addr != "" {
		msg.WriteString(" for ")
		msg.WriteString(e.addr)
	}
	for i := range e.attempts {
		if i == 0 {
			msg.WriteString(": ")
		} else {
			msg.WriteString("; ")
		}
		msg.WriteString("[")
		msg.WriteString(e.attempts[i].Profile)
		msg.WriteString("] ")
		msg.WriteString(e.attempts[i].Reason.String())
		if e.attempts[i].Err != nil {
			msg.WriteString(": ")
			msg.WriteString(e.attempts[i].Err.Error())
		}
	}
	return msg.String()
}

// Is implements the errors.Is functionality and compares the Reason.
func (e *NegotiationError) Is(errType error) bool {
	var t *NegotiationError
	if errors.As(errType, &t) && t != nil {
		return e.Reason == t.Reason
	}
	return false
}

// Unwrap returns the underlying error of the last recorded attempt, which is
// the most specific cause available.
func (e *NegotiationError) Unwrap() error {
	if len(e.attempts) == 0 {
		return nil
	}
	return e.attempts[len(e.attempts)-1].Err
}

// Attempts returns the per-profile attempt outcomes in the order they were
// made.
func (e *NegotiationError) Attempts() []Attempt {
	return e.attempts
}

// Addr returns the host:port the failed negotiation targeted.
func (e *NegotiationError) Addr() string {
	return e.addr
}

// reasonError builds a comparison target for errors.Is checks against a
// NegotiationError reason.
func reasonError(r Reason) error {
	return &NegotiationError{Reason: r}
}

// Convenience comparison targets for errors.Is.
var (
	ErrIsTransportUnreachable = reasonError(ErrTransportUnreachable)
	ErrIsExhausted            = reasonError(ErrAllProfilesExhausted)
	ErrIsUnsafeProfile        = reasonError(ErrUnsafeProfileRejected)
	ErrIsUnknownProfile       = reasonError(ErrUnknownProfile)
)

// classifyHandshake assigns a failed TLS handshake error to exactly one
// recoverable reason class. Certificate problems are checked first since the
// TLS library wraps them in generic handshake errors, then version
// negotiation failures; everything else counts as a plain handshake failure.
func classifyHandshake(err error) Reason {
	var certVerify *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certVerify) || errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) || errors.As(err, &certInvalid) {
		return ErrCertificateVerifyFailed
	}

	var alert tls.AlertError
	if errors.As(err, &alert) && alert == 70 { // alertProtocolVersion
		return ErrProtocolVersionMismatch
	}
	if strings.Contains(err.Error(), "protocol version") {
		return ErrProtocolVersionMismatch
	}

	return ErrHandshakeFailure
}
