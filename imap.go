// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// fetchNewIMAP polls the mailbox via IMAP. The negotiator establishes the TLS
// connection; go-imap only ever sees the finished session. Seen-UID tracking
// keys on UIDVALIDITY plus UID because IMAP UIDs are only stable within one
// validity epoch.
func (c *Client) fetchNewIMAP(ctx context.Context) (*FetchResult, error) {
	store, err := c.Store()
	if err != nil {
		return nil, err
	}

	session, err := c.negotiator.Connect(ctx, c.mailHost, c.mailPort, c.profile)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server %s: %w", c.MailboxAddr(), err)
	}
	c.infof("connected to %s using profile %q (%s, %s)",
		c.MailboxAddr(), session.Profile, session.TLSVersion, session.CipherSuite)

	client := imapclient.New(session.Conn(), nil)
	defer client.Close()
	if err := client.WaitGreeting(); err != nil {
		return nil, fmt.Errorf("failed to read IMAP greeting from %s: %w", c.MailboxAddr(), err)
	}

	if err := client.Login(c.user, c.pass).Wait(); err != nil {
		return nil, fmt.Errorf("IMAP authentication failed for %q: %w", c.user, err)
	}
	defer func() {
		_ = client.Logout().Wait()
	}()

	selectData, err := client.Select("INBOX", nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to list mailbox: %w", err)
	}
	uids := searchData.AllUIDs()

	result := &FetchResult{Total: len(uids)}
	for _, uid := range uids {
		seenKey := fmt.Sprintf("%d:%d", selectData.UIDValidity, uid)
		if store.Seen(seenKey) {
			continue
		}
		raw, err := c.fetchIMAPMessage(client, uid)
		if err != nil {
			c.warnf("failed to retrieve message uid %d: %s", uid, err)
			continue
		}
		folder, attachments, err := c.saveFetched(store, seenKey, raw)
		if err != nil {
			return result, err
		}
		c.infof("stored new mail %q (%d attachment(s))", folder, attachments)
		result.New++
		result.Folders = append(result.Folders, folder)
	}
	return result, nil
}

// fetchIMAPMessage downloads the full raw body of one message. The body
// section is fetched with peek so the server-side seen flag stays untouched;
// which messages are new is this client's call, not the server's.
func (c *Client) fetchIMAPMessage(client *imapclient.Client, uid imap.UID) ([]byte, error) {
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message uid %d not found", uid)
	}
	buf, err := msg.Collect()
	if err != nil {
		return nil, err
	}
	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("server returned no body for uid %d", uid)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, err
	}
	return raw, nil
}
