// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package tlsprofile

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cheaterdxd/mail-client/log"
)

// Defaults
const (
	// DefaultTimeout bounds a single profile attempt, covering both the TCP
	// dial and the TLS handshake
	DefaultTimeout = 10 * time.Second
)

var (
	// ErrNoHost should be used if an empty target host is provided
	ErrNoHost = errors.New("target host cannot be empty")

	// ErrInvalidPort should be used if a port is specified that is not valid
	ErrInvalidPort = errors.New("invalid port number")

	// ErrInvalidTimeout should be used if a timeout is set that is zero or negative
	ErrInvalidTimeout = errors.New("timeout cannot be zero or negative")

	// ErrNoProfiles should be used if an empty profile list is provided
	ErrNoProfiles = errors.New("profile list cannot be empty")
)

// DialContextFunc is a type to define custom DialContext function.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Negotiator attempts TCP+TLS connections to a mail server using named
// profiles. A Negotiator holds no per-connection state and is safe to reuse
// across Connect calls; attempts within a single call are strictly
// sequential.
type Negotiator struct {
	// profiles is the fallback table, ordered most- to least-secure
	profiles []Profile

	// timeout bounds each individual profile attempt
	timeout time.Duration

	// dialContextFunc is a custom DialContext function to reach the target server
	dialContextFunc DialContextFunc

	// l is a logger that implements the log.Logger interface
	l log.Logger
}

// Option returns a function that can be used for grouping Negotiator options
type Option func(*Negotiator) error

// New returns a new Negotiator with the built-in profile table.
func New(opts ...Option) (*Negotiator, error) {
	n := &Negotiator{
		profiles: Profiles(),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(n); err != nil {
			return n, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return n, nil
}

// WithTimeout overrides the default per-attempt timeout
func WithTimeout(t time.Duration) Option {
	return func(n *Negotiator) error {
		if t <= 0 {
			return ErrInvalidTimeout
		}
		n.timeout = t
		return nil
	}
}

// WithProfiles overrides the built-in profile table. The given profiles are
// tried in slice order under the auto selector, so callers must keep the
// most-secure profile first.
func WithProfiles(profiles []Profile) Option {
	return func(n *Negotiator) error {
		if len(profiles) == 0 {
			return ErrNoProfiles
		}
		n.profiles = append([]Profile(nil), profiles...)
		return nil
	}
}

// WithDialContextFunc overrides the default DialContext for reaching the
// target server
func WithDialContextFunc(f DialContextFunc) Option {
	return func(n *Negotiator) error {
		n.dialContextFunc = f
		return nil
	}
}

// WithLogger sets a log.Logger for negotiation diagnostics
func WithLogger(l log.Logger) Option {
	return func(n *Negotiator) error {
		n.l = l
		return nil
	}
}

// Session is the successful result of a negotiation: an established
// encrypted connection plus the metadata of how it was negotiated.
type Session struct {
	conn *tls.Conn

	// Profile is the name of the profile that completed the handshake
	Profile string

	// TLSVersion is the human-readable negotiated protocol version
	TLSVersion string

	// CipherSuite is the human-readable negotiated cipher suite
	CipherSuite string
}

// Conn returns the established encrypted connection. The caller owns it and
// is responsible for closing it, either directly or via Session.Close.
func (s *Session) Conn() net.Conn {
	return s.conn
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Connect establishes an encrypted connection to host:port.
//
// If selector names a profile, exactly that profile is attempted once and a
// failure is final: there is no fallback past an explicit choice. If selector
// is SelectorAuto (or empty), the profile table is tried in order until a
// handshake succeeds; verification-disabled profiles are skipped unless the
// host is loopback.
//
// All failures come back as a *NegotiationError carrying the per-profile
// attempt report; Connect never panics across this boundary.
func (n *Negotiator) Connect(ctx context.Context, host string, port int, selector string) (*Session, error) {
	if host == "" {
		return nil, ErrNoHost
	}
	if port < 1 || port > 65535 {
		return nil, ErrInvalidPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	candidates, err := n.candidates(host, addr, selector)
	if err != nil {
		return nil, err
	}

	single := selector != SelectorAuto && selector != ""
	var attempts []Attempt
	for _, p := range candidates {
		session, attempt := n.attempt(ctx, host, addr, p)
		if session != nil {
			n.debugf("profile %q negotiated %s / %s with %s", p.Name, session.TLSVersion, session.CipherSuite, addr)
			return session, nil
		}
		n.debugf("profile %q failed against %s: %s: %s", p.Name, addr, attempt.Reason, attempt.Err)
		attempts = append(attempts, attempt)

		if attempt.Reason == ErrTransportUnreachable {
			// No TLS profile can help when TCP cannot be established
			return nil, &NegotiationError{addr: addr, attempts: attempts, Reason: ErrTransportUnreachable}
		}
		if single {
			return nil, &NegotiationError{addr: addr, attempts: attempts, Reason: attempt.Reason}
		}
	}

	return nil, &NegotiationError{addr: addr, attempts: attempts, Reason: ErrAllProfilesExhausted}
}

// candidates resolves the selector into the ordered list of profiles to try.
// The unsafe-profile check runs here, before any socket is opened.
func (n *Negotiator) candidates(host, addr, selector string) ([]Profile, error) {
	if selector == SelectorAuto || selector == "" {
		loopback := IsLoopback(host)
		var list []Profile
		for _, p := range n.profiles {
			if p.InsecureSkipVerify && !loopback {
				continue
			}
			list = append(list, p)
		}
		if len(list) == 0 {
			return nil, ErrNoProfiles
		}
		return list, nil
	}

	for _, p := range n.profiles {
		if p.Name != selector {
			continue
		}
		if p.InsecureSkipVerify && !IsLoopback(host) {
			n.warnf("refusing profile %q for non-loopback target %s", p.Name, addr)
			return nil, &NegotiationError{addr: addr, Reason: ErrUnsafeProfileRejected}
		}
		return []Profile{p}, nil
	}
	return nil, &NegotiationError{addr: addr, Reason: ErrUnknownProfile}
}

// attempt performs one TCP dial and one TLS handshake with the given
// profile. The attempt owns its socket: on any failure the socket is closed
// before attempt returns, on success ownership moves into the Session.
func (n *Negotiator) attempt(ctx context.Context, host, addr string, p Profile) (*Session, Attempt) {
	actx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	dial := n.dialContextFunc
	if dial == nil {
		nd := net.Dialer{}
		dial = nd.DialContext
	}
	conn, err := dial(actx, "tcp", addr)
	if err != nil {
		return nil, Attempt{Profile: p.Name, Reason: ErrTransportUnreachable, Err: err}
	}

	tlsConn := tls.Client(conn, p.TLSConfig(host))
	if err := tlsConn.HandshakeContext(actx); err != nil {
		_ = conn.Close()
		return nil, Attempt{Profile: p.Name, Reason: classifyHandshake(err), Err: err}
	}

	state := tlsConn.ConnectionState()
	return &Session{
		conn:        tlsConn,
		Profile:     p.Name,
		TLSVersion:  tls.VersionName(state.Version),
		CipherSuite: tls.CipherSuiteName(state.CipherSuite),
	}, Attempt{Profile: p.Name}
}

func (n *Negotiator) debugf(format string, args ...interface{}) {
	if n.l != nil {
		n.l.Debugf(format, args...)
	}
}

func (n *Negotiator) warnf(format string, args ...interface{}) {
	if n.l != nil {
		n.l.Warnf(format, args...)
	}
}
