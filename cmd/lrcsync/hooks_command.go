package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lrcsync/internal/hooks"
)

func newHooksCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Inspect and test lifecycle hooks that run shell commands on scan/download events",
	}
	cmd.AddCommand(newHooksListCommand(ctx))
	cmd.AddCommand(newHooksInitCommand(ctx))
	cmd.AddCommand(newHooksTestCommand(ctx))
	cmd.AddCommand(newHooksPathCommand(ctx))
	return cmd
}

func newHooksListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the hooks currently registered for each lifecycle event",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.hooksConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no hooks configuration at %s\n", path)
				fmt.Fprintln(cmd.OutOrStdout(), "use `lrcsync hooks init` to create one")
				return nil
			}
			manager, err := ctx.ensureHooks()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config file: %s\n", path)
			total := 0
			for _, event := range hooks.KnownEvents {
				registered := manager.Registered(event)
				if len(registered) == 0 {
					continue
				}
				fmt.Fprintf(out, "%s:\n", event)
				for _, h := range registered {
					mode := "sync"
					if h.Async {
						mode = "async"
					}
					fmt.Fprintf(out, "  - %s (%s %v) [%s]\n", h.Name, h.Command, h.Args, mode)
					total++
				}
			}
			if total == 0 {
				fmt.Fprintln(out, "no hooks are enabled")
			}
			return nil
		},
	}
}

func newHooksInitCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample hooks.toml next to the index database",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.hooksConfigPath()
			if err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("hooks config already exists at %s (use --force to overwrite)", path)
				}
			}
			if err := os.WriteFile(path, []byte(hooks.SampleConfig), 0o644); err != nil {
				return fmt.Errorf("write sample hooks config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote sample hooks configuration to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "edit it to enable and customize hooks, then run `lrcsync hooks list`")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing hooks config file")
	return cmd
}

func newHooksTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test <event>",
		Short: "Fire a lifecycle event with synthetic context to exercise its configured hooks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event := hooks.Event(args[0])
			known := false
			for _, e := range hooks.KnownEvents {
				if e == event {
					known = true
					break
				}
			}
			if !known {
				return fmt.Errorf("unknown hook event %q (known: %v)", args[0], hooks.KnownEvents)
			}
			manager, err := ctx.ensureHooks()
			if err != nil {
				return err
			}
			if len(manager.Registered(event)) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no hooks registered for %s\n", event)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "firing %s with synthetic context\n", event)
			manager.Fire(cmd.Context(), event, hooks.Context{
				TrackID:  0,
				Metadata: map[string]any{"test": true},
			})
			fmt.Fprintln(cmd.OutOrStdout(), "done")
			return nil
		},
	}
}

func newHooksPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the hooks configuration file path lrcsync would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.hooksConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "(does not exist yet; use `lrcsync hooks init`)")
			}
			return nil
		},
	}
}
