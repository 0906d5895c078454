// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	mailclient "github.com/cheaterdxd/mail-client"
	"github.com/cheaterdxd/mail-client/log"
)

var (
	flagEnvFile string
	flagProfile string
	flagDebug   bool
	flagJSONLog bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mail-client",
		Short:         "POP3/IMAP/SMTP mail utility with TLS profile fallback",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Path to the .env configuration file")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "TLS profile (strict, balanced, legacy, insecure) or auto")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLog, "json-log", false, "Log in JSON format")

	rootCmd.AddCommand(
		sendCmd(), fetchCmd(), readCmd(), watchCmd(),
		diagnoseCmd(), probeCmd(), providersCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger builds the logger the flags ask for.
func newLogger(debug bool) log.Logger {
	level := log.LevelInfo
	if debug || flagDebug {
		level = log.LevelDebug
	}
	if flagJSONLog {
		return log.NewJSON(os.Stderr, level)
	}
	return log.New(os.Stderr, level)
}

// newClient loads the configuration and builds the mail client shared by
// the mailbox commands.
func newClient(needPassword bool) (*mailclient.Client, error) {
	cfg, err := mailclient.LoadConfig(flagEnvFile)
	if err != nil {
		return nil, err
	}
	if flagProfile != "" {
		cfg.Profile = flagProfile
	}
	logger := newLogger(cfg.Debug)

	if needPassword {
		if err := cfg.ResolvePassword(func() (string, error) {
			return promptPassword(fmt.Sprintf("Password for %s: ", cfg.Username))
		}); err != nil {
			return nil, err
		}
	}

	opts := append(cfg.ClientOptions(), mailclient.WithLogger(logger))
	return mailclient.NewClient(opts...)
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pass), nil
}
