// Package modelscmder provides the models command for managing the model
// providers and API keys the backend generates with.
package modelscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
)

const modelsLongDesc string = `Manage the model configurations stored on the backend.

Each configuration names a provider, a model and the API key the backend
calls it with. Exactly one configuration is active at a time.

API keys default to the provider's environment variable or the key stored
with "gongwen auth <provider>", so they never need to appear on the
command line.

Use subcommands to list, set, activate, or delete configurations:
  gongwen models list
  gongwen models set --provider deepseek --model deepseek-chat --activate
  gongwen models set --id 3 --provider qwen --model qwen-max
  gongwen models activate <id>
  gongwen models delete <id>`

const modelsShortDesc string = "Manage backend model configurations"

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newActivateCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

const listShortDesc string = "List model configurations"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	app.AddFlags(cmd, app.BackendKeys)

	return cmd
}

func runList(cmd *cobra.Command) error {
	_, cl, err := app.LoadClient(cmd)
	if err != nil {
		return err
	}

	models, err := cl.ListModelConfigs(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing model configurations: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(models) == 0 {
		fmt.Fprintf(out, "\n  %s No model configurations.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(out, "  Use 'gongwen models set' to add one.\n\n")
		return nil
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Model configurations"))
	for _, m := range models {
		marker := " "
		if m.Active {
			marker = cliui.SuccessMark
		}
		line := fmt.Sprintf("  %s %s  %s  %s  %s",
			marker,
			cliui.NameStyle.Render(m.ID),
			cliui.KeyStyle.Render(m.Provider),
			cliui.ValueStyle.Render(m.Model),
			cliui.DimStyle.Render(m.MaskedKey()),
		)
		if m.BaseURL != "" {
			line += "  " + cliui.DimStyle.Render(m.BaseURL)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	return nil
}

const activateShortDesc string = "Make a model configuration the active one"

func newActivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate <id>",
		Short: activateShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, err := app.LoadClient(cmd)
			if err != nil {
				return err
			}
			if err := cl.ActivateModelConfig(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("activating model configuration %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Activated %s.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(args[0]))
			return nil
		},
	}

	app.AddFlags(cmd, app.BackendKeys)

	return cmd
}

const deleteShortDesc string = "Delete a model configuration"

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: deleteShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, err := app.LoadClient(cmd)
			if err != nil {
				return err
			}
			if err := cl.DeleteModelConfig(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting model configuration %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Deleted %s.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(args[0]))
			return nil
		},
	}

	app.AddFlags(cmd, app.BackendKeys)

	return cmd
}
