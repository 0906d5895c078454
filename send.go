// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"context"
	"fmt"
	"net"
	"strconv"

	mail "github.com/wneessen/go-mail"
)

// Send builds a plain-text message with optional file attachments and
// submits it to the configured SMTP server over a connection negotiated by
// the TLS profile machinery (implicit TLS, as on port 465). go-mail's own
// dialing is bypassed through its DialContextFunc seam, and its STARTTLS
// policy is set to NoTLS because the connection it receives is already
// encrypted.
func (c *Client) Send(ctx context.Context, to []string, subject, body string, attachments []string) error {
	if c.smtpHost == "" {
		return ErrNoSMTPHost
	}
	if c.user == "" || c.pass == "" {
		return ErrNoCredentials
	}

	msg := mail.NewMsg()
	if err := msg.From(c.from); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", c.from, err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	for _, path := range attachments {
		msg.AttachFile(path)
	}

	dial := func(dctx context.Context, network, address string) (net.Conn, error) {
		host, portStr, err := net.SplitHostPort(address)
		if err != nil {
			return nil, err
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, err
		}
		session, err := c.negotiator.Connect(dctx, host, port, c.profile)
		if err != nil {
			return nil, err
		}
		c.infof("connected to %s using profile %q (%s, %s)",
			address, session.Profile, session.TLSVersion, session.CipherSuite)
		return session.Conn(), nil
	}

	smtpClient, err := mail.NewClient(c.smtpHost,
		mail.WithPort(c.smtpPort),
		mail.WithTimeout(c.timeout),
		mail.WithTLSPolicy(mail.NoTLS),
		mail.WithDialContextFunc(dial),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.user),
		mail.WithPassword(c.pass),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := smtpClient.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", c.SMTPAddr(), err)
	}
	c.infof("mail %q sent to %d recipient(s) via %s", subject, len(to), c.SMTPAddr())
	return nil
}
