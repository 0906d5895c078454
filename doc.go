// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

// Package mailclient implements a small POP3/IMAP/SMTP mail utility that
// reaches its servers through a TLS profile negotiator. Providers differ wildly in
// the protocol versions, cipher sets and certificates they accept, so every
// connection is established by trying an ordered list of named TLS profiles
// (see the tlsprofile package) until one completes a handshake.
//
// The package covers fetching new mail into an offline store, sending mail
// with attachments, reading the offline store and diagnosing a server's TLS
// behavior. All I/O is synchronous and sequential.
package mailclient
