package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lrcsync/internal/reporttemplate"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and render custom report templates for export/search",
	}
	cmd.AddCommand(newTemplatesListCommand(ctx))
	cmd.AddCommand(newTemplatesInitCommand(ctx))
	cmd.AddCommand(newTemplatesShowCommand(ctx))
	cmd.AddCommand(newTemplatesPathCommand(ctx))
	return cmd
}

func newTemplatesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered report templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.templatesConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no templates configuration at %s\n", path)
				fmt.Fprintln(cmd.OutOrStdout(), "use `lrcsync templates init` to create one")
				return nil
			}
			engine, err := ctx.ensureTemplates()
			if err != nil {
				return err
			}
			list := engine.List()
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no templates are enabled")
				return nil
			}
			for _, t := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]: %s\n", t.Name, t.OutputFormat, t.Description)
			}
			return nil
		},
	}
}

func newTemplatesInitCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write sample report templates next to the index database",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.templatesConfigPath()
			if err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("templates config already exists at %s (use --force to overwrite)", path)
				}
			}
			if err := os.WriteFile(path, []byte(reporttemplate.SampleConfig), 0o644); err != nil {
				return fmt.Errorf("write sample templates config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote sample report templates to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "use `lrcsync export --template library_summary` to render one")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing templates config file")
	return cmd
}

func newTemplatesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print one registered template's body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.ensureTemplates()
			if err != nil {
				return err
			}
			tmpl, ok := engine.Get(args[0])
			if !ok {
				return fmt.Errorf("template %q is not registered", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), tmpl.Body)
			return nil
		},
	}
}

func newTemplatesPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the templates configuration file path lrcsync would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.templatesConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "(does not exist yet; use `lrcsync templates init`)")
			}
			return nil
		},
	}
}
