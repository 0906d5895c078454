// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"errors"
	"testing"
	"time"

	"github.com/cheaterdxd/mail-client/tlsprofile"
)

// TestNewClient tests the NewClient method with its options
func TestNewClient(t *testing.T) {
	t.Run("NewClient with defaults", func(t *testing.T) {
		client, err := NewClient()
		if err != nil {
			t.Fatalf("failed to create client: %s", err)
		}
		if client.mailPort != DefaultPOP3Port {
			t.Errorf("wrong default mailbox port: %d", client.mailPort)
		}
		if client.Protocol() != ProtocolPOP3 {
			t.Errorf("wrong default protocol: %s", client.Protocol())
		}
		if client.smtpPort != DefaultSMTPPort {
			t.Errorf("wrong default SMTP port: %d", client.smtpPort)
		}
		if client.Profile() != tlsprofile.SelectorAuto {
			t.Errorf("wrong default profile selector: %s", client.Profile())
		}
		if client.timeout != DefaultTimeout {
			t.Errorf("wrong default timeout: %s", client.timeout)
		}
		if client.storageDir != DefaultStorageDir {
			t.Errorf("wrong default storage dir: %s", client.storageDir)
		}
	})
	t.Run("NewClient with nil option", func(t *testing.T) {
		if _, err := NewClient(nil); err != nil {
			t.Errorf("failed to create client with nil option: %s", err)
		}
	})
	t.Run("WithMailbox", func(t *testing.T) {
		client, err := NewClient(WithMailbox("pop.example.com", 995))
		if err != nil {
			t.Fatalf("failed to create client: %s", err)
		}
		if client.MailboxAddr() != "pop.example.com:995" {
			t.Errorf("failed to set mailbox server, got: %s", client.MailboxAddr())
		}
	})
	t.Run("WithMailbox with invalid port", func(t *testing.T) {
		if _, err := NewClient(WithMailbox("pop.example.com", 0)); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort, got: %s", err)
		}
	})
	t.Run("protocol detection by port", func(t *testing.T) {
		tests := []struct {
			name string
			port int
			want string
		}{
			{"POP3 over TLS port", 995, ProtocolPOP3},
			{"cleartext POP3 port", 110, ProtocolPOP3},
			{"IMAP over TLS port", 993, ProtocolIMAP},
			{"cleartext IMAP port", 143, ProtocolIMAP},
			{"bridge POP3 port", 1110, ProtocolPOP3},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				client, err := NewClient(WithMailbox("mail.example.com", tt.port))
				if err != nil {
					t.Fatalf("failed to create client: %s", err)
				}
				if client.Protocol() != tt.want {
					t.Errorf("wrong protocol for port %d. Want: %s, got: %s",
						tt.port, tt.want, client.Protocol())
				}
			})
		}
	})
	t.Run("WithProtocol overrides detection", func(t *testing.T) {
		client, err := NewClient(
			WithMailbox("mail.example.com", 995),
			WithProtocol(ProtocolIMAP),
		)
		if err != nil {
			t.Fatalf("failed to create client: %s", err)
		}
		if client.Protocol() != ProtocolIMAP {
			t.Errorf("failed to force the protocol, got: %s", client.Protocol())
		}
	})
	t.Run("WithProtocol with unknown protocol", func(t *testing.T) {
		if _, err := NewClient(WithProtocol("nntp")); !errors.Is(err, ErrUnknownProtocol) {
			t.Errorf("expected ErrUnknownProtocol, got: %s", err)
		}
	})
	t.Run("WithSMTP", func(t *testing.T) {
		client, err := NewClient(WithSMTP("smtp.example.com", 465))
		if err != nil {
			t.Fatalf("failed to create client: %s", err)
		}
		if client.SMTPAddr() != "smtp.example.com:465" {
			t.Errorf("failed to set SMTP server, got: %s", client.SMTPAddr())
		}
	})
	t.Run("WithSMTP with invalid port", func(t *testing.T) {
		if _, err := NewClient(WithSMTP("smtp.example.com", 65536)); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort, got: %s", err)
		}
	})
	t.Run("WithCredentials sets the sender fallback", func(t *testing.T) {
		client, err := NewClient(WithCredentials("user@example.com", "secret"))
		if err != nil {
			t.Fatalf("failed to create client: %s", err)
		}
		if client.from != "user@example.com" {
			t.Errorf("expected the username as sender fallback, got: %s", client.from)
		}
	})
	t.Run("WithFrom overrides the sender", func(t *testing.T) {
		client, err := NewClient(
			WithCredentials("user@example.com", "secret"),
			WithFrom("Sender <sender@example.com>"),
		)
		if err != nil {
			t.Fatalf("failed to create client: %s", err)
		}
		if client.from != "Sender <sender@example.com>" {
			t.Errorf("failed to override the sender, got: %s", client.from)
		}
	})
	t.Run("WithProfile", func(t *testing.T) {
		tests := []struct {
			name     string
			selector string
			want     string
			wantErr  bool
		}{
			{"auto selector", tlsprofile.SelectorAuto, tlsprofile.SelectorAuto, false},
			{"empty selector becomes auto", "", tlsprofile.SelectorAuto, false},
			{"strict profile", tlsprofile.ProfileStrict, tlsprofile.ProfileStrict, false},
			{"insecure profile", tlsprofile.ProfileInsecure, tlsprofile.ProfileInsecure, false},
			{"unknown profile", "paranoid", "", true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				client, err := NewClient(WithProfile(tt.selector))
				if tt.wantErr {
					if !errors.Is(err, ErrUnknownProfile) {
						t.Errorf("expected ErrUnknownProfile, got: %s", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("failed to create client: %s", err)
				}
				if client.Profile() != tt.want {
					t.Errorf("failed to set profile. Want: %s, got: %s", tt.want, client.Profile())
				}
			})
		}
	})
	t.Run("WithTimeout", func(t *testing.T) {
		client, err := NewClient(WithTimeout(30 * time.Second))
		if err != nil {
			t.Fatalf("failed to create client: %s", err)
		}
		if client.timeout != 30*time.Second {
			t.Errorf("failed to set timeout, got: %s", client.timeout)
		}
	})
	t.Run("WithTimeout with invalid value", func(t *testing.T) {
		if _, err := NewClient(WithTimeout(0)); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got: %s", err)
		}
	})
	t.Run("WithStorageDir", func(t *testing.T) {
		dir := t.TempDir()
		client, err := NewClient(WithStorageDir(dir))
		if err != nil {
			t.Fatalf("failed to create client: %s", err)
		}
		if client.storageDir != dir {
			t.Errorf("failed to set storage dir, got: %s", client.storageDir)
		}
	})
}

// TestClient_Store tests the lazy opening of the offline store
func TestClient_Store(t *testing.T) {
	dir := t.TempDir()
	client, err := NewClient(WithStorageDir(dir))
	if err != nil {
		t.Fatalf("failed to create client: %s", err)
	}
	store, err := client.Store()
	if err != nil {
		t.Fatalf("failed to open store: %s", err)
	}
	if store.Dir() != dir {
		t.Errorf("store opened at wrong location: %s", store.Dir())
	}
	again, err := client.Store()
	if err != nil {
		t.Fatalf("failed to reuse store: %s", err)
	}
	if again != store {
		t.Error("expected the same store instance on the second call")
	}
}
