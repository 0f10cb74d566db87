package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lrcsync/internal/config"
	"lrcsync/internal/index"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Register a directory as a library root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			id, err := store.AddDirectory(cmd.Context(), dir)
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "registered directory %d: %s\n", id, dir)
				return nil
			case force && errors.Is(err, index.ErrDuplicateDirectory):
				fmt.Fprintf(cmd.OutOrStdout(), "directory already registered: %s\n", dir)
				return nil
			default:
				return err
			}
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "treat an already-registered directory as a no-op instead of an error")
	return cmd
}
