// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cheaterdxd/mail-client/credential"
)

// Environment variable names read by LoadConfig. They match the .env keys
// the tool has always used.
const (
	EnvMailHost   = "MAIL_HOST"
	EnvMailPort   = "MAIL_PORT"
	EnvProtocol   = "MAIL_PROTOCOL"
	EnvSMTPServer = "SMTP_SERVER"
	EnvSMTPPort   = "SMTP_PORT"
	EnvMailUser   = "MAIL_USER"
	EnvMailPass   = "MAIL_PASS"
	EnvProfile    = "MAIL_PROFILE"
	EnvStorageDir = "MAIL_STORAGE_DIR"
	EnvTimeout    = "MAIL_TIMEOUT"
	EnvDebugMode  = "DEBUG_MODE"
)

// ErrIncompleteConfig is returned when the environment is missing values
// that every operation needs.
var ErrIncompleteConfig = errors.New("incomplete configuration: MAIL_HOST, SMTP_SERVER and MAIL_USER must be set")

// Config holds the runtime configuration assembled from a .env file and the
// process environment.
type Config struct {
	// MailHost and MailPort locate the mailbox server, POP3 or IMAP
	MailHost string
	MailPort int

	// Protocol forces the mailbox protocol; empty means detect by port
	Protocol string

	// SMTPHost and SMTPPort locate the submission server
	SMTPHost string
	SMTPPort int

	// Username and Password are the mailbox credentials. Password may be
	// empty after loading; see ResolvePassword
	Username string
	Password string

	// Profile is the TLS profile selector, "auto" when unset
	Profile string

	// StorageDir is the offline mail store location
	StorageDir string

	// Timeout bounds each connection attempt
	Timeout time.Duration

	// Debug enables debug logging
	Debug bool
}

// LoadConfig reads the given .env file (optional, missing files are ignored)
// and the process environment into a Config. Values already present in the
// environment win over the .env file.
func LoadConfig(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{
		MailHost:   os.Getenv(EnvMailHost),
		MailPort:   DefaultPOP3Port,
		Protocol:   strings.ToLower(os.Getenv(EnvProtocol)),
		SMTPHost:   os.Getenv(EnvSMTPServer),
		SMTPPort:   DefaultSMTPPort,
		Username:   os.Getenv(EnvMailUser),
		Password:   os.Getenv(EnvMailPass),
		Profile:    os.Getenv(EnvProfile),
		StorageDir: os.Getenv(EnvStorageDir),
		Timeout:    DefaultTimeout,
		Debug:      isTruthy(os.Getenv(EnvDebugMode)),
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = DefaultStorageDir
	}

	switch cfg.Protocol {
	case "", ProtocolPOP3, ProtocolIMAP:
	default:
		return nil, fmt.Errorf("invalid %s value %q: %w", EnvProtocol, cfg.Protocol, ErrUnknownProtocol)
	}

	var err error
	if cfg.MailPort, err = portFromEnv(EnvMailPort, DefaultPOP3Port); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = portFromEnv(EnvSMTPPort, DefaultSMTPPort); err != nil {
		return nil, err
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, perr := time.ParseDuration(v)
		if perr != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", EnvTimeout, v, perr)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s value %q: %w", EnvTimeout, v, ErrInvalidTimeout)
		}
		cfg.Timeout = d
	}

	if cfg.MailHost == "" || cfg.SMTPHost == "" || cfg.Username == "" {
		return nil, ErrIncompleteConfig
	}
	return cfg, nil
}

// ResolvePassword fills in Config.Password when the environment did not
// provide one. It consults the system keyring first and falls back to the
// given prompt function (nil to skip prompting). The resolved password is
// not written back to the keyring.
func (cfg *Config) ResolvePassword(prompt func() (string, error)) error {
	if cfg.Password != "" {
		return nil
	}
	if pass, err := credential.Get(cfg.Username); err == nil && pass != "" {
		cfg.Password = pass
		return nil
	}
	if prompt == nil {
		return ErrNoCredentials
	}
	pass, err := prompt()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if pass == "" {
		return ErrNoCredentials
	}
	cfg.Password = pass
	return nil
}

// ClientOptions renders the Config into the option list for NewClient.
func (cfg *Config) ClientOptions() []Option {
	return []Option{
		WithMailbox(cfg.MailHost, cfg.MailPort),
		WithProtocol(cfg.Protocol),
		WithSMTP(cfg.SMTPHost, cfg.SMTPPort),
		WithCredentials(cfg.Username, cfg.Password),
		WithProfile(cfg.Profile),
		WithTimeout(cfg.Timeout),
		WithStorageDir(cfg.StorageDir),
	}
}

// portFromEnv parses an optional port environment variable.
func portFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: %s=%d", ErrInvalidPort, key, port)
	}
	return port, nil
}

// isTruthy interprets the loose boolean syntax common in .env files.
func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
