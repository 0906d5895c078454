// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"context"

	"github.com/cheaterdxd/mail-client/tlsprofile"
)

// Diagnosis is the result of a TLS compatibility sweep against one server.
type Diagnosis struct {
	// Host and Port identify the probed server
	Host string
	Port int

	// Profiles holds one attempt per eligible profile, in fallback order
	Profiles []tlsprofile.Attempt

	// Versions holds the pinned protocol version scan, newest first
	Versions []tlsprofile.Attempt

	// Recommended is the name of the most secure working profile, empty
	// when nothing worked
	Recommended string
}

// Diagnose probes every TLS profile and every protocol version against
// host:port and recommends the most secure profile that completed a
// handshake. Unlike Connect this keeps going after a success, so the result
// shows the full compatibility picture of the server.
func (c *Client) Diagnose(ctx context.Context, host string, port int) (*Diagnosis, error) {
	profiles, err := c.negotiator.Probe(ctx, host, port)
	if err != nil {
		return nil, err
	}
	versions, err := c.negotiator.VersionScan(ctx, host, port)
	if err != nil {
		return nil, err
	}

	diag := &Diagnosis{Host: host, Port: port, Profiles: profiles, Versions: versions}
	for _, attempt := range profiles {
		if attempt.OK() {
			diag.Recommended = attempt.Profile
			break
		}
	}
	return diag, nil
}

// DiagnoseMailbox runs Diagnose against the configured mailbox server. The
// sweep is TLS-level only, so it serves POP3 and IMAP targets alike.
func (c *Client) DiagnoseMailbox(ctx context.Context) (*Diagnosis, error) {
	if c.mailHost == "" {
		return nil, ErrNoMailboxHost
	}
	return c.Diagnose(ctx, c.mailHost, c.mailPort)
}
