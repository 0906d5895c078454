// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"testing"

	"github.com/cheaterdxd/mail-client/tlsprofile"
)

// TestLookupProvider tests the provider lookup by address and domain
func TestLookupProvider(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
		found bool
	}{
		{"gmail address", "someone@gmail.com", "Gmail", true},
		{"gmail domain", "gmail.com", "Gmail", true},
		{"gmail uppercase", "Someone@GMAIL.COM", "Gmail", true},
		{"googlemail alias", "someone@googlemail.com", "Gmail", true},
		{"outlook address", "someone@outlook.com", "Outlook / Office 365", true},
		{"proton address", "someone@proton.me", "ProtonMail Bridge", true},
		{"yahoo address", "someone@yahoo.com", "Yahoo Mail", true},
		{"unknown domain", "someone@example.org", "", false},
		{"empty string", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := LookupProvider(tt.value)
			if ok != tt.found {
				t.Fatalf("LookupProvider(%q) failed. Want found: %t, got: %t", tt.value, tt.found, ok)
			}
			if ok && p.Name != tt.want {
				t.Errorf("wrong provider. Want: %s, got: %s", tt.want, p.Name)
			}
		})
	}
}

// TestProviders_Table tests invariants of the built-in provider table
func TestProviders_Table(t *testing.T) {
	for _, p := range Providers {
		if p.Profile != tlsprofile.SelectorAuto {
			if _, ok := tlsprofile.ProfileByName(p.Profile); !ok {
				t.Errorf("provider %s recommends unknown profile %q", p.Name, p.Profile)
			}
		}
		if p.POP3Host == "" && p.IMAPHost == "" && p.SMTPHost == "" && len(p.Domains) > 0 {
			t.Errorf("provider %s has domains but no endpoints", p.Name)
		}
	}

	// The verification-disabled recommendation is only acceptable for
	// loopback endpoints
	for _, p := range Providers {
		if p.Profile != tlsprofile.ProfileInsecure {
			continue
		}
		if p.POP3Host != "" && !tlsprofile.IsLoopback(p.POP3Host) {
			t.Errorf("provider %s recommends the insecure profile for non-loopback host %s", p.Name, p.POP3Host)
		}
		if p.IMAPHost != "" && !tlsprofile.IsLoopback(p.IMAPHost) {
			t.Errorf("provider %s recommends the insecure profile for non-loopback host %s", p.Name, p.IMAPHost)
		}
		if p.SMTPHost != "" && !tlsprofile.IsLoopback(p.SMTPHost) {
			t.Errorf("provider %s recommends the insecure profile for non-loopback host %s", p.Name, p.SMTPHost)
		}
	}
}
