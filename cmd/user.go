package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/room-booker/internal/auth"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var username, password string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a local user (username/password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreDriver == "memory" {
				return fmt.Errorf("user add needs a durable store; STORE_DRIVER is memory")
			}

			ctx := context.Background()
			b, err := openBackend(ctx, cfg, log, openOptions{migrate: true})
			if err != nil {
				return err
			}
			defer b.Close()

			store := auth.NewStore(b.Users, cfg.CookieHashKey, cfg.CookieBlockKey)
			u, err := store.CreateUser(ctx, username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %q id=%s\n", u.Username, u.ID)
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "username")
	c.Flags().StringVar(&password, "password", "", "password")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}
