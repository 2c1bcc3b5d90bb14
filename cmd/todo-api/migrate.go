package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"todo-app/backend/internal/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "データベースのマイグレーションを実行します",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(database.Up), string(database.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := database.Direction(args[0])
			if dir != database.Up && dir != database.Down {
				return fmt.Errorf("unknown migration direction %q", args[0])
			}

			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if err := database.Migrate(cfg.DB, dir, logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: ok\n", dir)
			return nil
		},
	}
}
