// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

// Package tlsprofile negotiates a TLS connection to a mail server by trying a
// fixed, ordered list of named connection profiles until one of them results
// in a completed handshake. Different providers (Gmail, Outlook, old cPanel
// hosts, ProtonMail Bridge) accept very different protocol versions and
// cipher sets; the profiles encode those differences so the caller does not
// have to.
package tlsprofile

import (
	"crypto/tls"
	"net"
	"strings"
)

// Profile is a named, immutable bundle of TLS negotiation parameters. The
// zero value is not usable; profiles are taken from the built-in table or
// constructed once at startup and never mutated afterwards.
type Profile struct {
	// Name identifies the profile in reports and as the connect selector
	Name string

	// MinVersion and MaxVersion bound the acceptable protocol versions.
	// A zero MaxVersion leaves the upper bound to the TLS library
	MinVersion uint16
	MaxVersion uint16

	// CipherSuites is the cipher policy for TLS 1.0-1.2. A nil slice offers
	// the library default set. TLS 1.3 suites are not configurable in Go
	// and are always available when the version bounds allow 1.3
	CipherSuites []uint16

	// InsecureSkipVerify disables certificate and hostname verification.
	// The negotiator only honors this for loopback targets
	InsecureSkipVerify bool
}

// SelectorAuto requests the ordered fallback sequence instead of a single
// named profile.
const SelectorAuto = "auto"

// Built-in profile names, ordered from most- to least-secure.
const (
	ProfileStrict   = "strict"
	ProfileBalanced = "balanced"
	ProfileLegacy   = "legacy"
	ProfileInsecure = "insecure"
)

// strictCipherSuites is the cipher policy of the strict profile: forward
// secrecy and AEAD only. Mirrors what modern providers negotiate anyway.
var strictCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
}

// legacyCipherSuites offers every suite the TLS library knows about,
// including the ones it considers insecure. Needed for ancient cPanel and
// self-hosted servers that never saw an update.
func legacyCipherSuites() []uint16 {
	var ids []uint16
	for _, cs := range tls.CipherSuites() {
		ids = append(ids, cs.ID)
	}
	for _, cs := range tls.InsecureCipherSuites() {
		ids = append(ids, cs.ID)
	}
	return ids
}

// Built-in profiles.
var (
	// Strict accepts TLS 1.2+ with modern forward-secrecy suites only and
	// verifies the peer certificate
	Strict = Profile{
		Name:         ProfileStrict,
		MinVersion:   tls.VersionTLS12,
		CipherSuites: strictCipherSuites,
	}

	// Balanced accepts TLS 1.2+ with the library default suite set. This is
	// the recommended profile for most providers
	Balanced = Profile{
		Name:       ProfileBalanced,
		MinVersion: tls.VersionTLS12,
	}

	// Legacy accepts TLS 1.0+ and every available cipher suite, but still
	// verifies the peer certificate. For servers that predate TLS 1.2
	Legacy = Profile{
		Name:         ProfileLegacy,
		MinVersion:   tls.VersionTLS10,
		CipherSuites: legacyCipherSuites(),
	}

	// Insecure is Legacy with certificate verification disabled. It exists
	// for local bridge tools (ProtonMail Bridge serves a self-signed
	// certificate on 127.0.0.1) and is refused for non-loopback targets
	Insecure = Profile{
		Name:               ProfileInsecure,
		MinVersion:         tls.VersionTLS10,
		CipherSuites:       legacyCipherSuites(),
		InsecureSkipVerify: true,
	}
)

// Profiles returns the built-in profile table in fallback order, from most-
// to least-secure. Insecure is part of the table but only ever attempted
// automatically for loopback targets.
func Profiles() []Profile {
	return []Profile{Strict, Balanced, Legacy, Insecure}
}

// ProfileByName returns the built-in profile with the given name.
func ProfileByName(name string) (Profile, bool) {
	for _, p := range Profiles() {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// TLSConfig renders the profile into a tls.Config for the given server name.
// Every call returns a fresh config; profiles carry no shared state between
// connection attempts.
func (p Profile) TLSConfig(serverName string) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		MinVersion:         p.MinVersion,
		MaxVersion:         p.MaxVersion,
		CipherSuites:       append([]uint16(nil), p.CipherSuites...),
		InsecureSkipVerify: p.InsecureSkipVerify,
	}
}

// String returns the profile name.
func (p Profile) String() string {
	return p.Name
}

// IsLoopback reports whether host names the local machine. The check is
// purely syntactic (IP literal or localhost name) so that it can run before
// any resolver or socket activity.
func IsLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return host == "localhost" || strings.HasSuffix(host, ".localhost")
}
