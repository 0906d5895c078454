// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package tlsprofile

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
)

// Probe attempts every eligible profile against host:port without stopping
// at the first success and returns one Attempt per profile, in table order.
// Unlike Connect, Probe is a diagnostic: successful handshakes are recorded
// with their negotiated version and cipher and the connection is closed
// immediately. Verification-disabled profiles are skipped for non-loopback
// hosts, same as under the auto selector.
//
// A transport-level failure still ends the sweep early, since the remaining
// profiles would only repeat the same dial error.
func (n *Negotiator) Probe(ctx context.Context, host string, port int) ([]Attempt, error) {
	if host == "" {
		return nil, ErrNoHost
	}
	if port < 1 || port > 65535 {
		return nil, ErrInvalidPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	loopback := IsLoopback(host)

	var results []Attempt
	for _, p := range n.profiles {
		if p.InsecureSkipVerify && !loopback {
			continue
		}
		session, attempt := n.attempt(ctx, host, addr, p)
		if session != nil {
			attempt.TLSVersion = session.TLSVersion
			attempt.CipherSuite = session.CipherSuite
			_ = session.Close()
		}
		results = append(results, attempt)
		if !attempt.OK() && attempt.Reason == ErrTransportUnreachable {
			break
		}
	}
	return results, nil
}

// scanVersions lists the protocol versions tried by VersionScan, newest
// first.
var scanVersions = []uint16{
	tls.VersionTLS13,
	tls.VersionTLS12,
	tls.VersionTLS11,
	tls.VersionTLS10,
}

// VersionScan pins min and max to each TLS version in turn, with the
// permissive legacy cipher set, to find out which protocol versions the
// server speaks at all. Certificate verification stays enabled; a version
// the server speaks behind an untrusted certificate is reported as a
// certificate failure for that version.
func (n *Negotiator) VersionScan(ctx context.Context, host string, port int) ([]Attempt, error) {
	if host == "" {
		return nil, ErrNoHost
	}
	if port < 1 || port > 65535 {
		return nil, ErrInvalidPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var results []Attempt
	for _, v := range scanVersions {
		p := Profile{
			Name:         tls.VersionName(v),
			MinVersion:   v,
			MaxVersion:   v,
			CipherSuites: legacyCipherSuites(),
		}
		session, attempt := n.attempt(ctx, host, addr, p)
		if session != nil {
			attempt.TLSVersion = session.TLSVersion
			attempt.CipherSuite = session.CipherSuite
			_ = session.Close()
		}
		results = append(results, attempt)
		if !attempt.OK() && attempt.Reason == ErrTransportUnreachable {
			break
		}
	}
	return results, nil
}
