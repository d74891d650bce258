package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/prn-tf/monedero/internal/app"
	"github.com/prn-tf/monedero/internal/pkg/crypto"
	"github.com/prn-tf/monedero/internal/repository"
	"github.com/prn-tf/monedero/internal/service"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCmd(opts))
	cmd.AddCommand(newUserListCmd(opts))
	cmd.AddCommand(newUserDeleteCmd(opts))
	cmd.AddCommand(newUserResetPasswordCmd(opts))
	return cmd
}

func newUserCreateCmd(opts *rootOptions) *cobra.Command {
	var input service.RegisterInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user, prompting for the secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd, "Secret: ")
			if err != nil {
				return err
			}
			input.Secret = secret

			return opts.withApp(cmd, func(a *app.App) error {
				result, err := a.Services().Identity.Register(cmd.Context(), input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %d <%s>\n", result.User.ID, result.User.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.Email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&input.Name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&input.Surname, "surname", "", "family name")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "contact phone")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUserListCmd(opts *rootOptions) *cobra.Command {
	var listOpts repository.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				result, err := a.Services().Users.List(cmd.Context(), listOpts)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEMAIL\tNAME\tCREATED")
				for _, u := range result.Items {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.FullName(), u.CreatedAt.Format(time.RFC3339))
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d users\n", len(result.Items), result.Total)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&listOpts.Offset, "offset", 0, "number of users to skip")
	cmd.Flags().IntVar(&listOpts.Limit, "limit", repository.DefaultListLimit, "maximum number of users to show")
	return cmd
}

func newUserDeleteCmd(opts *rootOptions) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user and everything they own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				if err := a.Services().Users.Remove(cmd.Context(), userID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", userID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "id", 0, "user id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newUserResetPasswordCmd(opts *rootOptions) *cobra.Command {
	var (
		email    string
		generate bool
	)
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new secret for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				secret string
				err    error
			)
			if generate {
				secret, err = crypto.GeneratePassword(crypto.TemporaryPasswordLength)
			} else {
				secret, err = readSecret(cmd, "New secret: ")
			}
			if err != nil {
				return err
			}

			return opts.withApp(cmd, func(a *app.App) error {
				user, err := a.Services().Users.ResetPassword(cmd.Context(), email, secret)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Secret reset for user %d <%s>\n", user.ID, user.Email)
				if generate {
					fmt.Fprintf(cmd.OutOrStdout(), "Temporary secret: %s\n", secret)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().BoolVar(&generate, "generate", false, "generate a temporary secret instead of prompting")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
