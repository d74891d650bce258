package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/prn-tf/monedero/internal/app"
	"github.com/prn-tf/monedero/internal/config"
	"github.com/prn-tf/monedero/internal/logging"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "monedero-admin",
		Short:         "Monedero administration CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("MONEDERO_CONFIG"), "path to the configuration file")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newUserCmd(opts))
	root.AddCommand(newTokenCmd(opts))
	root.AddCommand(newSecretCmd())
	root.AddCommand(newRecurringCmd(opts))
	return root
}

// openApp wires the application without serving HTTP. The caller must Close it.
func (o *rootOptions) openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	logCfg.Format = "console"
	logCfg.Output = "stderr"
	if logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	// Metrics are scraped from the server, never from a one-shot command.
	cfg.Metrics.Enabled = false
	return app.New(ctx, cfg, logger)
}

// withApp runs fn against a freshly opened application and closes it.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := o.openApp(cmd.Context())
	if err != nil {
		return err
	}
	return errors.Join(fn(a), a.Close())
}

// readSecret prompts for a secret. Terminal input is not echoed; piped input
// is read up to the first newline.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Monedero Admin CLI\n")
			fmt.Fprintf(out, "Version: %s\n", Version)
			fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}
