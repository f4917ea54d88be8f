package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noob2628/Inventory-App/internal/db"
	"github.com/noob2628/Inventory-App/internal/services"
	"github.com/noob2628/Inventory-App/internal/store"
	"github.com/noob2628/Inventory-App/types"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

// Signup always creates regular users; promote is how the first admin is made.
var userPromoteCmd = &cobra.Command{
	Use:   "promote <email> <role>",
	Short: "Set a user's role (admin, user, counter)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()
		defer func() { _ = log.Sync() }()

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		users := services.NewUserService(store.NewUserRepository(conn))
		user, err := users.Promote(cmd.Context(), args[0], types.Role(strings.ToLower(args[1])))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %s (id %d) is now %s\n", user.Email, user.ID, user.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userPromoteCmd)
}
