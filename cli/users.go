// ABOUTME: User CLI commands
// ABOUTME: Manages the internal staff the resolver maps tracker emails onto
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/sprintledger/models"
)

func newUsersCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage internal users",
	}

	var (
		email    string
		name     string
		personID int64
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add an internal user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store ledgerStore) error {
				user := &models.User{Email: email, Name: name}
				if cmd.Flags().Changed("person-id") {
					user.ExternalPersonID = &personID
				}
				if err := store.CreateUser(ctx, user); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "✓ User created: %s (ID: %s)\n", user.Email, user.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&email, "email", "", "Email used in the time tracker (required)")
	addCmd.Flags().StringVar(&name, "name", "", "Display name")
	addCmd.Flags().Int64Var(&personID, "person-id", 0, "Person id on the project boards")
	_ = addCmd.MarkFlagRequired("email")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List internal users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store ledgerStore) error {
				users, err := store.ListUsers(ctx)
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Fprintln(a.out, "No users found")
					return nil
				}

				w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "EMAIL\tNAME\tPERSON\tID")
				fmt.Fprintln(w, "-----\t----\t------\t--")
				for _, u := range users {
					name := u.Name
					if name == "" {
						name = "-"
					}
					person := "-"
					if u.ExternalPersonID != nil {
						person = fmt.Sprintf("%d", *u.ExternalPersonID)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Email, name, person, u.ID)
				}
				return w.Flush()
			})
		},
	}

	cmd.AddCommand(addCmd, listCmd)
	return cmd
}
