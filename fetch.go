// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/knadh/go-pop3"
)

// profileDialer adapts the TLS profile negotiator to go-pop3's Dialer seam.
// go-pop3 is configured with TLSEnabled false so that it treats the
// connection as ready to use; the encryption already happened here.
type profileDialer struct {
	client *Client
	ctx    context.Context
}

// Dial negotiates a TLS connection to addr using the client's profile
// selector.
func (d profileDialer) Dial(network, addr string) (net.Conn, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	session, err := d.client.negotiator.Connect(d.ctx, host, port, d.client.profile)
	if err != nil {
		return nil, err
	}
	d.client.infof("connected to %s using profile %q (%s, %s)",
		addr, session.Profile, session.TLSVersion, session.CipherSuite)
	return session.Conn(), nil
}

// FetchResult summarizes one mailbox poll.
type FetchResult struct {
	// Total is the number of messages on the server
	Total int

	// New is the number of messages downloaded into the store
	New int

	// Folders lists the store folders of the downloaded messages
	Folders []string
}

// FetchNew connects to the mailbox server through the profile negotiator,
// downloads every message whose UID has not been seen before into the
// offline store and marks it seen. Messages are left on the server. The
// retrieval protocol follows Protocol: POP3 by default, IMAP when forced or
// when the mailbox port is an IMAP port.
func (c *Client) FetchNew(ctx context.Context) (*FetchResult, error) {
	if c.mailHost == "" {
		return nil, ErrNoMailboxHost
	}
	if c.user == "" || c.pass == "" {
		return nil, ErrNoCredentials
	}
	if c.Protocol() == ProtocolIMAP {
		return c.fetchNewIMAP(ctx)
	}
	return c.fetchNewPOP3(ctx)
}

// fetchNewPOP3 polls the mailbox via POP3.
func (c *Client) fetchNewPOP3(ctx context.Context) (*FetchResult, error) {
	store, err := c.Store()
	if err != nil {
		return nil, err
	}

	client := pop3.New(pop3.Opt{
		Host:        c.mailHost,
		Port:        c.mailPort,
		Dialer:      profileDialer{client: c, ctx: ctx},
		DialTimeout: c.timeout,
	})
	conn, err := client.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to POP3 server %s: %w", c.MailboxAddr(), err)
	}
	defer func() {
		_ = conn.Quit()
	}()

	if err := conn.Auth(c.user, c.pass); err != nil {
		return nil, fmt.Errorf("POP3 authentication failed for %q: %w", c.user, err)
	}

	msgs, err := conn.Uidl(0)
	if err != nil {
		return nil, fmt.Errorf("failed to list mailbox: %w", err)
	}

	result := &FetchResult{Total: len(msgs)}
	for _, msg := range msgs {
		if store.Seen(msg.UID) {
			continue
		}
		buf, err := conn.RetrRaw(msg.ID)
		if err != nil {
			c.warnf("failed to retrieve message %d (uid %s): %s", msg.ID, msg.UID, err)
			continue
		}
		folder, attachments, err := c.saveFetched(store, msg.UID, buf.Bytes())
		if err != nil {
			return result, err
		}
		c.infof("stored new mail %q (%d attachment(s))", folder, attachments)
		result.New++
		result.Folders = append(result.Folders, folder)
	}
	return result, nil
}

// saveFetched stores one downloaded message and records its UID. A broken
// MIME structure is reported but does not fail the poll; the raw message is
// on disk either way.
func (c *Client) saveFetched(store *Store, uid string, raw []byte) (string, int, error) {
	folder, attachments, err := store.Save(uid, raw)
	if err != nil {
		if !errors.Is(err, ErrAttachmentExtraction) {
			return "", 0, fmt.Errorf("failed to store message %s: %w", uid, err)
		}
		c.warnf("stored mail %q with broken MIME structure: %s", folder, err)
	}
	if err := store.MarkSeen(uid); err != nil {
		return "", 0, fmt.Errorf("failed to record uid %s: %w", uid, err)
	}
	return folder, attachments, nil
}
