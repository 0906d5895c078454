// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearMailEnv unsets every configuration variable for the duration of the
// test, so results do not depend on the caller's environment.
func clearMailEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvMailHost, EnvMailPort, EnvProtocol, EnvSMTPServer, EnvSMTPPort,
		EnvMailUser, EnvMailPass, EnvProfile, EnvStorageDir, EnvTimeout,
		EnvDebugMode,
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

// minimalMailEnv sets the three required variables.
func minimalMailEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvMailHost, "pop.example.com")
	t.Setenv(EnvSMTPServer, "smtp.example.com")
	t.Setenv(EnvMailUser, "user@example.com")
}

// TestLoadConfig tests the configuration assembly from the environment
func TestLoadConfig(t *testing.T) {
	t.Run("minimal environment with defaults", func(t *testing.T) {
		clearMailEnv(t)
		minimalMailEnv(t)
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.env"))
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if cfg.MailHost != "pop.example.com" || cfg.MailPort != DefaultPOP3Port {
			t.Errorf("wrong mailbox server: %s:%d", cfg.MailHost, cfg.MailPort)
		}
		if cfg.Protocol != "" {
			t.Errorf("protocol should be unset by default, got: %s", cfg.Protocol)
		}
		if cfg.SMTPHost != "smtp.example.com" || cfg.SMTPPort != DefaultSMTPPort {
			t.Errorf("wrong SMTP server: %s:%d", cfg.SMTPHost, cfg.SMTPPort)
		}
		if cfg.Username != "user@example.com" {
			t.Errorf("wrong username: %s", cfg.Username)
		}
		if cfg.StorageDir != DefaultStorageDir {
			t.Errorf("wrong storage dir: %s", cfg.StorageDir)
		}
		if cfg.Timeout != DefaultTimeout {
			t.Errorf("wrong timeout: %s", cfg.Timeout)
		}
		if cfg.Debug {
			t.Error("debug should be off by default")
		}
	})
	t.Run("full environment", func(t *testing.T) {
		clearMailEnv(t)
		minimalMailEnv(t)
		t.Setenv(EnvMailPort, "1110")
		t.Setenv(EnvSMTPPort, "1025")
		t.Setenv(EnvMailPass, "secret")
		t.Setenv(EnvProfile, "legacy")
		t.Setenv(EnvStorageDir, "archive")
		t.Setenv(EnvTimeout, "30s")
		t.Setenv(EnvDebugMode, "true")
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.env"))
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if cfg.MailPort != 1110 || cfg.SMTPPort != 1025 {
			t.Errorf("wrong ports: %d/%d", cfg.MailPort, cfg.SMTPPort)
		}
		if cfg.Password != "secret" {
			t.Errorf("wrong password: %s", cfg.Password)
		}
		if cfg.Profile != "legacy" {
			t.Errorf("wrong profile: %s", cfg.Profile)
		}
		if cfg.StorageDir != "archive" {
			t.Errorf("wrong storage dir: %s", cfg.StorageDir)
		}
		if cfg.Timeout != 30*time.Second {
			t.Errorf("wrong timeout: %s", cfg.Timeout)
		}
		if !cfg.Debug {
			t.Error("debug should be on")
		}
	})
	t.Run("missing required values", func(t *testing.T) {
		clearMailEnv(t)
		t.Setenv(EnvMailHost, "pop.example.com")
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.env")); !errors.Is(err, ErrIncompleteConfig) {
			t.Errorf("expected ErrIncompleteConfig, got: %s", err)
		}
	})
	t.Run("invalid port values", func(t *testing.T) {
		tests := []struct {
			name  string
			value string
		}{
			{"not a number", "nine-nine-five"},
			{"out of range", "70000"},
			{"negative", "-1"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				clearMailEnv(t)
				minimalMailEnv(t)
				t.Setenv(EnvMailPort, tt.value)
				if _, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.env")); err == nil {
					t.Errorf("expected port value %q to be rejected", tt.value)
				}
			})
		}
	})
	t.Run("invalid timeout values", func(t *testing.T) {
		for _, value := range []string{"soon", "-5s", "0s"} {
			clearMailEnv(t)
			minimalMailEnv(t)
			t.Setenv(EnvTimeout, value)
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.env")); err == nil {
				t.Errorf("expected timeout value %q to be rejected", value)
			}
		}
	})
	t.Run("debug mode syntax", func(t *testing.T) {
		tests := []struct {
			value string
			want  bool
		}{
			{"1", true}, {"true", true}, {"YES", true}, {"on", true},
			{"0", false}, {"false", false}, {"", false}, {"maybe", false},
		}
		for _, tt := range tests {
			clearMailEnv(t)
			minimalMailEnv(t)
			t.Setenv(EnvDebugMode, tt.value)
			cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.env"))
			if err != nil {
				t.Fatalf("failed to load config: %s", err)
			}
			if cfg.Debug != tt.want {
				t.Errorf("DEBUG_MODE=%q parsed as %t, want %t", tt.value, cfg.Debug, tt.want)
			}
		}
	})
	t.Run("values from a .env file", func(t *testing.T) {
		clearMailEnv(t)
		envFile := filepath.Join(t.TempDir(), ".env")
		content := "MAIL_HOST=pop.example.com\nSMTP_SERVER=smtp.example.com\n" +
			"MAIL_USER=fileuser@example.com\nMAIL_PORT=2995\n"
		if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write .env file: %s", err)
		}
		cfg, err := LoadConfig(envFile)
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if cfg.Username != "fileuser@example.com" {
			t.Errorf("wrong username from .env file: %s", cfg.Username)
		}
		if cfg.MailPort != 2995 {
			t.Errorf("wrong mailbox port from .env file: %d", cfg.MailPort)
		}
	})
	t.Run("environment wins over the .env file", func(t *testing.T) {
		clearMailEnv(t)
		envFile := filepath.Join(t.TempDir(), ".env")
		content := "MAIL_HOST=pop.example.com\nSMTP_SERVER=smtp.example.com\nMAIL_USER=fileuser@example.com\n"
		if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write .env file: %s", err)
		}
		t.Setenv(EnvMailUser, "envuser@example.com")
		cfg, err := LoadConfig(envFile)
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if cfg.Username != "envuser@example.com" {
			t.Errorf("environment should win over the .env file, got: %s", cfg.Username)
		}
	})
	t.Run("protocol override", func(t *testing.T) {
		clearMailEnv(t)
		minimalMailEnv(t)
		t.Setenv(EnvProtocol, "IMAP")
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.env"))
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if cfg.Protocol != ProtocolIMAP {
			t.Errorf("wrong protocol: %s", cfg.Protocol)
		}
	})
	t.Run("invalid protocol value", func(t *testing.T) {
		clearMailEnv(t)
		minimalMailEnv(t)
		t.Setenv(EnvProtocol, "nntp")
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.env")); !errors.Is(err, ErrUnknownProtocol) {
			t.Errorf("expected ErrUnknownProtocol, got: %s", err)
		}
	})
	t.Run("malformed .env file", func(t *testing.T) {
		clearMailEnv(t)
		minimalMailEnv(t)
		envFile := filepath.Join(t.TempDir(), "broken.env")
		if err := os.WriteFile(envFile, []byte("MAIL_HOST"), 0o600); err != nil {
			t.Fatalf("failed to write .env file: %s", err)
		}
		if _, err := LoadConfig(envFile); err == nil {
			t.Error("expected a syntax error from the .env file")
		}
	})
}

// TestConfig_ResolvePassword tests the password fallback chain
func TestConfig_ResolvePassword(t *testing.T) {
	t.Run("environment password wins", func(t *testing.T) {
		cfg := &Config{Username: "user@example.com", Password: "fromenv"}
		err := cfg.ResolvePassword(func() (string, error) {
			t.Error("prompt should not run when a password is present")
			return "", nil
		})
		if err != nil {
			t.Fatalf("failed to resolve password: %s", err)
		}
		if cfg.Password != "fromenv" {
			t.Errorf("password changed unexpectedly: %s", cfg.Password)
		}
	})
	t.Run("prompt fallback", func(t *testing.T) {
		cfg := &Config{Username: "nobody-has-this-account@example.invalid"}
		err := cfg.ResolvePassword(func() (string, error) { return "prompted", nil })
		if err != nil {
			t.Fatalf("failed to resolve password: %s", err)
		}
		if cfg.Password != "prompted" {
			t.Errorf("wrong resolved password: %s", cfg.Password)
		}
	})
	t.Run("empty prompt result", func(t *testing.T) {
		cfg := &Config{Username: "nobody-has-this-account@example.invalid"}
		if err := cfg.ResolvePassword(func() (string, error) { return "", nil }); !errors.Is(err, ErrNoCredentials) {
			t.Errorf("expected ErrNoCredentials, got: %s", err)
		}
	})
	t.Run("no prompt available", func(t *testing.T) {
		cfg := &Config{Username: "nobody-has-this-account@example.invalid"}
		if err := cfg.ResolvePassword(nil); !errors.Is(err, ErrNoCredentials) {
			t.Errorf("expected ErrNoCredentials, got: %s", err)
		}
	})
}

// TestConfig_ClientOptions tests the rendering of a Config into client options
func TestConfig_ClientOptions(t *testing.T) {
	cfg := &Config{
		MailHost: "pop.example.com", MailPort: 995,
		Protocol: ProtocolIMAP,
		SMTPHost: "smtp.example.com", SMTPPort: 465,
		Username: "user@example.com", Password: "secret",
		Profile:    "balanced",
		StorageDir: t.TempDir(),
		Timeout:    20 * time.Second,
	}
	client, err := NewClient(cfg.ClientOptions()...)
	if err != nil {
		t.Fatalf("failed to create client from config: %s", err)
	}
	if client.MailboxAddr() != "pop.example.com:995" {
		t.Errorf("wrong mailbox server: %s", client.MailboxAddr())
	}
	if client.Protocol() != ProtocolIMAP {
		t.Errorf("wrong protocol: %s", client.Protocol())
	}
	if client.SMTPAddr() != "smtp.example.com:465" {
		t.Errorf("wrong SMTP server: %s", client.SMTPAddr())
	}
	if client.Profile() != "balanced" {
		t.Errorf("wrong profile: %s", client.Profile())
	}
	if client.timeout != 20*time.Second {
		t.Errorf("wrong timeout: %s", client.timeout)
	}
}
