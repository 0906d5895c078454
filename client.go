// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cheaterdxd/mail-client/log"
	"github.com/cheaterdxd/mail-client/tlsprofile"
)

// Mailbox protocols.
const (
	// ProtocolPOP3 retrieves mail via POP3
	ProtocolPOP3 = "pop3"

	// ProtocolIMAP retrieves mail via IMAP
	ProtocolIMAP = "imap"
)

// Defaults
const (
	// DefaultPOP3Port is the default POP3-over-TLS port
	DefaultPOP3Port = 995

	// DefaultIMAPPort is the default IMAP-over-TLS port
	DefaultIMAPPort = 993

	// DefaultSMTPPort is the default SMTP submission port for implicit TLS
	DefaultSMTPPort = 465

	// DefaultTimeout is the default timeout for a single connection attempt
	DefaultTimeout = 10 * time.Second

	// DefaultStorageDir is the default directory for the offline mail store
	DefaultStorageDir = "emails_offline"
)

var (
	// ErrInvalidPort should be used if a port is specified that is not valid
	ErrInvalidPort = errors.New("invalid port number")

	// ErrInvalidTimeout should be used if a timeout is set that is zero or negative
	ErrInvalidTimeout = errors.New("timeout cannot be zero or negative")

	// ErrNoMailboxHost should be used when a mailbox operation is requested
	// but no mailbox server is configured
	ErrNoMailboxHost = errors.New("no mailbox server configured")

	// ErrNoSMTPHost should be used when sending is requested but no SMTP
	// server is configured
	ErrNoSMTPHost = errors.New("no SMTP server configured")

	// ErrNoCredentials should be used when an operation requires
	// authentication but no username/password is set
	ErrNoCredentials = errors.New("no credentials configured")

	// ErrUnknownProfile should be used if a profile selector is neither
	// "auto" nor a known profile name
	ErrUnknownProfile = errors.New("unknown TLS profile")

	// ErrUnknownProtocol should be used if a mailbox protocol is neither
	// empty (auto-detect) nor "pop3"/"imap"
	ErrUnknownProtocol = errors.New("unknown mailbox protocol")
)

// Client is the mail client struct. It bundles the server coordinates, the
// TLS profile selector, the offline store and the negotiator that every
// connection goes through.
type Client struct {
	// mailHost and mailPort locate the mailbox server, POP3 or IMAP
	mailHost string
	mailPort int

	// proto forces the mailbox protocol; empty means detect by port
	proto string

	// smtpHost and smtpPort locate the SMTP submission server
	smtpHost string
	smtpPort int

	// user is the mailbox login, pass the corresponding password
	user string
	pass string

	// from is the sender address for outgoing mail, defaults to user
	from string

	// profile is the TLS profile selector: a profile name for a single
	// attempt or tlsprofile.SelectorAuto for the fallback sequence
	profile string

	// timeout bounds each connection attempt
	timeout time.Duration

	// storageDir is the offline mail store location
	storageDir string

	// l is a logger that implements the log.Logger interface
	l log.Logger

	// dialContextFunc overrides the negotiator's dialer, for tests
	dialContextFunc tlsprofile.DialContextFunc

	// negotiator performs all TLS connection establishment
	negotiator *tlsprofile.Negotiator

	// store is the lazily opened offline mail store
	store *Store
}

// Option returns a function that can be used for grouping Client options
type Option func(*Client) error

// NewClient returns a new mail client object
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		mailPort:   DefaultPOP3Port,
		smtpPort:   DefaultSMTPPort,
		profile:    tlsprofile.SelectorAuto,
		timeout:    DefaultTimeout,
		storageDir: DefaultStorageDir,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return c, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if c.from == "" {
		c.from = c.user
	}

	negotiator, err := tlsprofile.New(
		tlsprofile.WithTimeout(c.timeout),
		tlsprofile.WithLogger(c.l),
		tlsprofile.WithDialContextFunc(c.dialContextFunc),
	)
	if err != nil {
		return c, err
	}
	c.negotiator = negotiator
	return c, nil
}

// WithMailbox sets the mailbox server. The retrieval protocol is detected
// from the port (993/143 mean IMAP, everything else POP3) unless
// WithProtocol overrides it
func WithMailbox(host string, port int) Option {
	return func(c *Client) error {
		if port < 1 || port > 65535 {
			return ErrInvalidPort
		}
		c.mailHost = host
		c.mailPort = port
		return nil
	}
}

// WithProtocol forces the mailbox retrieval protocol instead of detecting it
// from the port. Accepts ProtocolPOP3, ProtocolIMAP or an empty string for
// detection
func WithProtocol(proto string) Option {
	return func(c *Client) error {
		switch proto {
		case "", ProtocolPOP3, ProtocolIMAP:
			c.proto = proto
			return nil
		}
		return fmt.Errorf("%w: %q", ErrUnknownProtocol, proto)
	}
}

// WithSMTP sets the SMTP submission server
func WithSMTP(host string, port int) Option {
	return func(c *Client) error {
		if port < 1 || port > 65535 {
			return ErrInvalidPort
		}
		c.smtpHost = host
		c.smtpPort = port
		return nil
	}
}

// WithCredentials sets the mailbox login and password
func WithCredentials(user, pass string) Option {
	return func(c *Client) error {
		c.user = user
		c.pass = pass
		return nil
	}
}

// WithFrom overrides the sender address for outgoing mail. Without it the
// username doubles as sender address
func WithFrom(addr string) Option {
	return func(c *Client) error {
		c.from = addr
		return nil
	}
}

// WithProfile sets the TLS profile selector. Accepts a built-in profile name
// or tlsprofile.SelectorAuto
func WithProfile(selector string) Option {
	return func(c *Client) error {
		if selector == "" || selector == tlsprofile.SelectorAuto {
			c.profile = tlsprofile.SelectorAuto
			return nil
		}
		if _, ok := tlsprofile.ProfileByName(selector); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownProfile, selector)
		}
		c.profile = selector
		return nil
	}
}

// WithTimeout overrides the default connection timeout
func WithTimeout(t time.Duration) Option {
	return func(c *Client) error {
		if t <= 0 {
			return ErrInvalidTimeout
		}
		c.timeout = t
		return nil
	}
}

// WithStorageDir overrides the default offline store directory
func WithStorageDir(dir string) Option {
	return func(c *Client) error {
		c.storageDir = dir
		return nil
	}
}

// WithLogger sets a log.Logger for the client
func WithLogger(l log.Logger) Option {
	return func(c *Client) error {
		c.l = l
		return nil
	}
}

// WithDialContextFunc overrides the dialer used underneath the TLS
// negotiation, primarily for tests
func WithDialContextFunc(f tlsprofile.DialContextFunc) Option {
	return func(c *Client) error {
		c.dialContextFunc = f
		return nil
	}
}

// Profile returns the currently set TLS profile selector
func (c *Client) Profile() string {
	return c.profile
}

// Protocol returns the mailbox retrieval protocol: the forced one if set,
// otherwise the one detected from the mailbox port.
func (c *Client) Protocol() string {
	if c.proto != "" {
		return c.proto
	}
	return detectProtocol(c.mailPort)
}

// detectProtocol maps a mailbox port to its retrieval protocol. The IMAP
// ports (993 implicit TLS, 143 cleartext/STARTTLS) select IMAP, everything
// else counts as POP3.
func detectProtocol(port int) string {
	switch port {
	case DefaultIMAPPort, 143:
		return ProtocolIMAP
	}
	return ProtocolPOP3
}

// MailboxAddr returns the currently set combination of mailbox hostname and
// port
func (c *Client) MailboxAddr() string {
	return net.JoinHostPort(c.mailHost, strconv.Itoa(c.mailPort))
}

// SMTPAddr returns the currently set combination of SMTP hostname and port
func (c *Client) SMTPAddr() string {
	return net.JoinHostPort(c.smtpHost, strconv.Itoa(c.smtpPort))
}

// Store returns the offline mail store, opening it on first use.
func (c *Client) Store() (*Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	store, err := OpenStore(c.storageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open mail store: %w", err)
	}
	c.store = store
	return c.store, nil
}

func (c *Client) debugf(format string, args ...interface{}) {
	if c.l != nil {
		c.l.Debugf(format, args...)
	}
}

func (c *Client) infof(format string, args ...interface{}) {
	if c.l != nil {
		c.l.Infof(format, args...)
	}
}

func (c *Client) warnf(format string, args ...interface{}) {
	if c.l != nil {
		c.l.Warnf(format, args...)
	}
}
