package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/christmas-fire/courier/internal/repository/user"
	"github.com/christmas-fire/courier/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func userCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users in the Postgres store",
	}
	cmd.AddCommand(userAddCmd(logger))
	cmd.AddCommand(userDeleteCmd(logger))
	return cmd
}

func userAddCmd(logger *slog.Logger) *cobra.Command {
	var staff bool
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd.Context(), logger, func(ctx context.Context, users user.UserRepository) error {
				id, err := users.Create(ctx, args[0], staff)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&staff, "staff", false, "grant staff privileges")
	return cmd
}

func userDeleteCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user with their messages and notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			return withUsers(cmd.Context(), logger, func(ctx context.Context, users user.UserRepository) error {
				return users.Delete(ctx, id)
			})
		},
	}
}

func withUsers(ctx context.Context, logger *slog.Logger, fn func(context.Context, user.UserRepository) error) error {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		return fmt.Errorf("POSTGRES_DSN is not set")
	}

	pool, err := postgres.NewStorage(ctx, dsn, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, user.NewPostgresRepository(pool))
}
