// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"strings"

	"github.com/cheaterdxd/mail-client/tlsprofile"
)

// Provider describes the known POP3/IMAP/SMTP endpoints of a mail provider
// and the TLS profile that matches its negotiation behavior. The table
// encodes the compatibility matrix from docs/providers.md. An empty host
// means the provider does not offer that protocol.
type Provider struct {
	Name     string
	POP3Host string
	POP3Port int
	IMAPHost string
	IMAPPort int
	SMTPHost string
	SMTPPort int

	// Profile is the recommended selector for this provider
	Profile string

	// Domains are the mail address domains served by this provider
	Domains []string

	// Note carries provider-specific caveats (app passwords, bridge setup)
	Note string
}

// Providers is the built-in provider table.
var Providers = []Provider{
	{
		Name:     "Gmail",
		POP3Host: "pop.gmail.com", POP3Port: 995,
		IMAPHost: "imap.gmail.com", IMAPPort: 993,
		SMTPHost: "smtp.gmail.com", SMTPPort: 465,
		Profile: tlsprofile.ProfileStrict,
		Domains: []string{"gmail.com", "googlemail.com"},
		Note:    "requires an app password; POP must be enabled in the web settings",
	},
	{
		Name:     "Outlook / Office 365",
		POP3Host: "outlook.office365.com", POP3Port: 995,
		IMAPHost: "outlook.office365.com", IMAPPort: 993,
		SMTPHost: "smtp.office365.com", SMTPPort: 587,
		Profile: tlsprofile.ProfileStrict,
		Domains: []string{"outlook.com", "hotmail.com", "live.com"},
		Note:    "TLS 1.2 minimum is enforced server-side",
	},
	{
		Name:     "Yahoo Mail",
		POP3Host: "pop.mail.yahoo.com", POP3Port: 995,
		IMAPHost: "imap.mail.yahoo.com", IMAPPort: 993,
		SMTPHost: "smtp.mail.yahoo.com", SMTPPort: 465,
		Profile: tlsprofile.ProfileBalanced,
		Domains: []string{"yahoo.com", "ymail.com"},
		Note:    "requires an app password",
	},
	{
		Name:     "Zoho Mail",
		POP3Host: "pop.zoho.com", POP3Port: 995,
		IMAPHost: "imap.zoho.com", IMAPPort: 993,
		SMTPHost: "smtp.zoho.com", SMTPPort: 465,
		Profile: tlsprofile.ProfileBalanced,
		Domains: []string{"zoho.com", "zohomail.com"},
	},
	{
		Name:     "iCloud Mail",
		IMAPHost: "imap.mail.me.com", IMAPPort: 993,
		SMTPHost: "smtp.mail.me.com", SMTPPort: 587,
		Profile: tlsprofile.ProfileStrict,
		Domains: []string{"icloud.com", "me.com", "mac.com"},
		Note:    "no POP3 endpoint exists; use the IMAP server with an app password",
	},
	{
		Name:     "ProtonMail Bridge",
		POP3Host: "127.0.0.1", POP3Port: 1110,
		IMAPHost: "127.0.0.1", IMAPPort: 1143,
		SMTPHost: "127.0.0.1", SMTPPort: 1025,
		Profile: tlsprofile.ProfileInsecure,
		Domains: []string{"proton.me", "protonmail.com"},
		Note:    "the bridge serves a self-signed certificate on loopback",
	},
	{
		Name:     "cPanel host",
		POP3Host: "", POP3Port: 995,
		IMAPHost: "", IMAPPort: 993,
		SMTPHost: "", SMTPPort: 465,
		Profile: tlsprofile.ProfileLegacy,
		Note:    "self-hosted servers often only offer TLS 1.0/1.1 with old cipher sets",
	},
}

// LookupProvider finds the provider serving the given mail address or
// domain.
func LookupProvider(addressOrDomain string) (Provider, bool) {
	domain := strings.ToLower(addressOrDomain)
	if at := strings.LastIndexByte(domain, '@'); at >= 0 {
		domain = domain[at+1:]
	}
	for _, p := range Providers {
		for _, d := range p.Domains {
			if d == domain {
				return p, true
			}
		}
	}
	return Provider{}, false
}
