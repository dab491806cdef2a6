package modelscmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/client"
	"github.com/papercomputeco/gongwen/pkg/credentials"
)

type setCommander struct {
	id       string
	provider string
	model    string
	key      string
	baseURL  string
	activate bool
}

const setLongDesc string = `Create or update a model configuration.

Without --id a new configuration is created. The API key is taken from
--key, else from the provider's environment variable, else from the key
stored with "gongwen auth <provider>".

Examples:
  gongwen models set --provider deepseek --model deepseek-chat --activate
  gongwen models set --provider openai --model gpt-4o --base-url https://proxy.example/v1
  gongwen models set --id 3 --provider qwen --model qwen-max`

const setShortDesc string = "Create or update a model configuration"

func newSetCmd() *cobra.Command {
	cmder := &setCommander{}

	cmd := &cobra.Command{
		Use:   "set",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	app.AddFlags(cmd, app.BackendKeys)
	cmd.Flags().StringVar(&cmder.id, "id", "", "Update this configuration instead of creating one")
	cmd.Flags().StringVarP(&cmder.provider, "provider", "p", "", "Model provider (e.g. "+strings.Join(credentials.SupportedProviders(), ", ")+")")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Model name")
	cmd.Flags().StringVar(&cmder.key, "key", "", "API key (default: from environment or stored credentials)")
	cmd.Flags().StringVar(&cmder.baseURL, "base-url", "", "Custom API base URL")
	cmd.Flags().BoolVar(&cmder.activate, "activate", false, "Make this the active configuration")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return credentials.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *setCommander) run(cmd *cobra.Command) error {
	a, cl, err := app.LoadClient(cmd)
	if err != nil {
		return err
	}

	mc := client.ModelConfig{
		ID:       c.id,
		Provider: strings.ToLower(strings.TrimSpace(c.provider)),
		Model:    strings.TrimSpace(c.model),
		APIKey:   strings.TrimSpace(c.key),
		BaseURL:  strings.TrimSpace(c.baseURL),
		Active:   c.activate,
	}
	if err := mc.Validate(); err != nil {
		return err
	}

	if mc.APIKey == "" {
		mc.APIKey, err = a.Creds.ResolveKey(mc.Provider)
		if err != nil {
			return fmt.Errorf("loading credentials: %w", err)
		}
	}
	if mc.APIKey == "" && mc.ID == "" {
		return fmt.Errorf("no API key for %s: pass --key or run 'gongwen auth %s'", mc.Provider, mc.Provider)
	}

	saved, err := cl.SaveModelConfig(cmd.Context(), mc)
	if err != nil {
		return fmt.Errorf("saving model configuration: %w", err)
	}

	if c.activate {
		if err := cl.ActivateModelConfig(cmd.Context(), saved.ID); err != nil {
			return fmt.Errorf("activating model configuration %s: %w", saved.ID, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Saved %s %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(saved.Provider+"/"+saved.Model),
		cliui.DimStyle.Render("(id "+saved.ID+", key "+saved.MaskedKey()+")"),
		activeNote(c.activate),
	)
	return nil
}

func activeNote(active bool) string {
	if !active {
		return ""
	}
	return cliui.KeyStyle.Render("active")
}
