// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	mailclient "github.com/cheaterdxd/mail-client"
	"github.com/cheaterdxd/mail-client/tlsprofile"
)

func sendCmd() *cobra.Command {
	var (
		to          []string
		subject     string
		body        string
		attachments []string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a mail via the configured SMTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(to) == 0 {
				return fmt.Errorf("at least one --to recipient is required")
			}
			client, err := newClient(true)
			if err != nil {
				return err
			}
			if err := client.Send(cmd.Context(), to, subject, body, attachments); err != nil {
				return err
			}
			fmt.Printf("Mail sent to %s\n", strings.Join(to, ", "))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&to, "to", nil, "Recipient address (repeatable)")
	cmd.Flags().StringVar(&subject, "subject", "", "Mail subject")
	cmd.Flags().StringVar(&body, "body", "", "Plain-text mail body")
	cmd.Flags().StringSliceVar(&attachments, "attach", nil, "File to attach (repeatable)")
	return cmd
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download new mail into the offline store",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(true)
			if err != nil {
				return err
			}
			result, err := client.FetchNew(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%d new mail(s) downloaded, %d on server\n", result.New, result.Total)
			for _, folder := range result.Folders {
				fmt.Println("  ", folder)
			}
			return nil
		},
	}
}

func readCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read [index]",
		Short: "List stored mail, or show one message by its list index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(false)
			if err != nil {
				return err
			}
			store, err := client.Store()
			if err != nil {
				return err
			}
			mails, err := store.List()
			if err != nil {
				return err
			}
			if len(mails) == 0 {
				fmt.Println("No stored mail")
				return nil
			}

			if len(args) == 0 {
				for i, m := range mails {
					fmt.Printf("[%d] %s\n    From: %s\n    Date: %s\n",
						i+1, m.Subject, m.From, m.Date.Format(time.RFC1123))
				}
				return nil
			}

			index, err := strconv.Atoi(args[0])
			if err != nil || index < 1 || index > len(mails) {
				return fmt.Errorf("index must be between 1 and %d", len(mails))
			}
			m, body, err := store.Read(mails[index-1].Folder)
			if err != nil {
				return err
			}
			fmt.Printf("From: %s\nSubject: %s\nDate: %s\n\n%s\n",
				m.From, m.Subject, m.Date.Format(time.RFC1123), body)
			if len(m.Attachments) > 0 {
				fmt.Printf("\nAttachments (%d):\n", len(m.Attachments))
				for _, a := range m.Attachments {
					fmt.Println("  ", a)
				}
			}
			return nil
		},
	}
	return cmd
}

func watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the mailbox periodically until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(true)
			if err != nil {
				return err
			}
			fmt.Printf("Watching mailbox every %s, Ctrl-C to stop\n", interval)
			err = client.Watch(cmd.Context(), interval)
			if err != nil && cmd.Context().Err() != nil {
				// Interrupted by the user, not a failure
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", mailclient.DefaultWatchInterval, "Delay between polls")
	return cmd
}

// targetFromArgs resolves the optional host/port argument pair of the
// diagnostic commands, defaulting to the configured mailbox server.
func targetFromArgs(args []string) (string, int, error) {
	if len(args) == 0 {
		cfg, err := mailclient.LoadConfig(flagEnvFile)
		if err != nil {
			return "", 0, err
		}
		return cfg.MailHost, cfg.MailPort, nil
	}
	host := args[0]
	port := mailclient.DefaultPOP3Port
	if len(args) > 1 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return "", 0, fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		port = p
	}
	return host, port, nil
}

// diagClient builds a client for the diagnostic commands, which need no
// credentials or mailbox configuration.
func diagClient() (*mailclient.Client, error) {
	return mailclient.NewClient(mailclient.WithLogger(newLogger(false)))
}

func printAttempts(attempts []tlsprofile.Attempt) {
	for _, a := range attempts {
		if a.OK() {
			fmt.Printf("  [%s] OK: %s, %s\n", a.Profile, a.TLSVersion, a.CipherSuite)
			continue
		}
		fmt.Printf("  [%s] FAIL: %s: %s\n", a.Profile, a.Reason, a.Err)
	}
}

func diagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose [host] [port]",
		Short: "Probe every TLS profile and protocol version against a server",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, port, err := targetFromArgs(args)
			if err != nil {
				return err
			}
			client, err := diagClient()
			if err != nil {
				return err
			}
			diag, err := client.Diagnose(cmd.Context(), host, port)
			if err != nil {
				return err
			}

			fmt.Printf("Target: %s:%d\n\nProfiles:\n", diag.Host, diag.Port)
			printAttempts(diag.Profiles)
			fmt.Println("\nProtocol versions:")
			printAttempts(diag.Versions)
			if diag.Recommended != "" {
				fmt.Printf("\nRecommended profile: %s\n", diag.Recommended)
			} else {
				fmt.Println("\nNo profile could connect; check host, port and firewall")
			}
			return nil
		},
	}
}

func probeCmd() *cobra.Command {
	var selector string
	cmd := &cobra.Command{
		Use:   "probe <host> <port>",
		Short: "Attempt a single negotiated connection and report the outcome",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := args[0]
			port, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", args[1], err)
			}
			negotiator, err := tlsprofile.New()
			if err != nil {
				return err
			}
			session, err := negotiator.Connect(cmd.Context(), host, port, selector)
			if err != nil {
				return err
			}
			defer session.Close()
			fmt.Printf("Connected to %s:%d using profile %q (%s, %s)\n",
				host, port, session.Profile, session.TLSVersion, session.CipherSuite)
			return nil
		},
	}
	cmd.Flags().StringVar(&selector, "tls-profile", tlsprofile.SelectorAuto, "Profile name or auto")
	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers [address]",
		Short: "Show the built-in provider table, or the match for a mail address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providers := mailclient.Providers
			if len(args) == 1 {
				p, ok := mailclient.LookupProvider(args[0])
				if !ok {
					return fmt.Errorf("no known provider for %q", args[0])
				}
				providers = []mailclient.Provider{p}
			}
			for _, p := range providers {
				fmt.Printf("%s (profile: %s)\n", p.Name, p.Profile)
				if p.POP3Host != "" {
					fmt.Printf("  POP3: %s:%d\n", p.POP3Host, p.POP3Port)
				}
				if p.IMAPHost != "" {
					fmt.Printf("  IMAP: %s:%d\n", p.IMAPHost, p.IMAPPort)
				}
				if p.SMTPHost != "" {
					fmt.Printf("  SMTP: %s:%d\n", p.SMTPHost, p.SMTPPort)
				}
				if p.Note != "" {
					fmt.Printf("  Note: %s\n", p.Note)
				}
			}
			return nil
		},
	}
}
