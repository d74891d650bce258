package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prn-tf/monedero/internal/app"
	"github.com/prn-tf/monedero/internal/pkg/crypto"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage session tokens",
	}

	var userID int64
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a session token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				user, err := a.Services().Users.Profile(cmd.Context(), userID)
				if err != nil {
					return err
				}
				token, err := a.Tokens().Issue(user.ID, map[string]any{"email": user.Email})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token.Value)
				fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", token.ExpiresAt.Format(time.RFC3339))
				return nil
			})
		},
	}
	issue.Flags().Int64Var(&userID, "user-id", 0, "user id (required)")
	_ = issue.MarkFlagRequired("user-id")

	cmd.AddCommand(issue)
	return cmd
}

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate secrets",
	}

	var size int
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random token signing secret for auth.jwt_secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := crypto.GenerateSigningSecret(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	generate.Flags().IntVar(&size, "bytes", crypto.SigningSecretSize, "number of random bytes")

	cmd.AddCommand(generate)
	return cmd
}

func newRecurringCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Operate on recurring payments",
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Post every due recurring payment now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				result := a.Processor().RunOnce(cmd.Context())
				if result.Skipped {
					fmt.Fprintln(cmd.OutOrStdout(), "Another process is posting recurring payments")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Examined %d payments, posted %d records, %d errors\n",
					result.Payments, result.Posted, result.Errors)
				if result.Errors > 0 {
					return fmt.Errorf("%d recurring payments failed", result.Errors)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(run)
	return cmd
}
