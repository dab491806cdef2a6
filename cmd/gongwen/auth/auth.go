// Package authcmder provides the auth command for storing the backend token
// and model provider API keys.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/credentials"
)

// tokenTarget is the auth argument that stores the backend token rather
// than a provider key.
const tokenTarget = "token"

const authLongDesc string = `Store credentials in credentials.toml in the .gongwen/ directory.

"gongwen auth token" stores the bearer token sent to the generation
backend. The GONGWEN_TOKEN environment variable overrides it.

"gongwen auth <provider>" stores a model provider API key, used by
"gongwen models set" when no --key is given. The provider's environment
variable overrides it.

Supported providers: deepseek, qwen, zhipu, openai

Examples:
  gongwen auth token               Prompt for the backend token
  gongwen auth deepseek            Prompt for a DeepSeek API key
  gongwen auth --list              List stored credentials
  gongwen auth --remove qwen       Remove the stored Qwen key
  gongwen auth --logout            Remove the stored backend token
  echo $KEY | gongwen auth openai  Pipe the key from stdin`

const authShortDesc string = "Store backend and provider credentials"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var logoutFlag bool
	var removeFlag string

	cmd := &cobra.Command{
		Use:   "auth [token|provider]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}
			out := cmd.OutOrStdout()

			switch {
			case listFlag:
				return runList(out, mgr)
			case logoutFlag:
				return runLogout(out, mgr)
			case removeFlag != "":
				return runRemove(out, mgr, removeFlag)
			case len(args) == 0:
				return fmt.Errorf("argument required: %q or a provider\n\nSupported providers: %s",
					tokenTarget, strings.Join(credentials.SupportedProviders(), ", "))
			case args[0] == tokenTarget:
				return runToken(cmd, mgr)
			default:
				return runAuth(cmd, mgr, args[0])
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return append([]string{tokenTarget}, credentials.SupportedProviders()...), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List stored credentials")
	cmd.Flags().BoolVar(&logoutFlag, "logout", false, "Remove the stored backend token")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove stored credentials for a provider")

	return cmd
}

func runToken(cmd *cobra.Command, mgr *credentials.Manager) error {
	out := cmd.OutOrStdout()

	token, err := readSecret(cmd.InOrStdin(), out, "Enter backend token: ")
	if err != nil {
		return err
	}
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
	if token == "" {
		return errors.New("token cannot be empty")
	}

	if err := mgr.SetToken(token); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Stored backend token %s\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render("("+mgr.GetTarget()+")"),
	)
	if os.Getenv(credentials.TokenEnvVar) != "" {
		fmt.Fprintf(out, "  %s %s is set and takes precedence over the stored token.\n",
			cliui.WarnStyle.Render("!"), credentials.TokenEnvVar)
	}
	fmt.Fprintln(out)
	return nil
}

func runAuth(cmd *cobra.Command, mgr *credentials.Manager, provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	out := cmd.OutOrStdout()

	if !credentials.IsSupportedProvider(provider) {
		return fmt.Errorf("unsupported provider: %q\n\nSupported providers: %s",
			provider, strings.Join(credentials.SupportedProviders(), ", "))
	}

	envVar := credentials.EnvVarForProvider(provider)
	apiKey, err := readSecret(cmd.InOrStdin(), out, fmt.Sprintf("Enter API key for %s (%s): ", provider, envVar))
	if err != nil {
		return err
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key cannot be empty")
	}

	if err := mgr.SetKey(provider, apiKey); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Stored %s credentials %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(provider),
		cliui.DimStyle.Render("(overridden by "+envVar+")"),
	)
	return nil
}

func runList(out io.Writer, mgr *credentials.Manager) error {
	creds, err := mgr.Load()
	if err != nil {
		return err
	}

	providers, err := mgr.ListProviders()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Stored credentials"))

	if creds.Token != "" {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(tokenTarget),
			cliui.DimStyle.Render("→ "+credentials.TokenEnvVar),
		)
	} else {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			cliui.DimStyle.Render("●"),
			cliui.NameStyle.Render(tokenTarget),
			cliui.DimStyle.Render("not set, run 'gongwen auth token'"),
		)
	}

	for _, p := range providers {
		envVar := credentials.EnvVarForProvider(p)
		if envVar != "" {
			fmt.Fprintf(out, "  %s  %s  %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(p),
				cliui.DimStyle.Render("→ "+envVar),
			)
		} else {
			fmt.Fprintf(out, "  %s  %s\n", cliui.SuccessMark, cliui.NameStyle.Render(p))
		}
	}

	if len(providers) == 0 {
		fmt.Fprintf(out, "\n  No stored provider keys. Supported providers: %s\n",
			strings.Join(credentials.SupportedProviders(), ", "))
	}
	fmt.Fprintln(out)

	return nil
}

func runLogout(out io.Writer, mgr *credentials.Manager) error {
	if err := mgr.SetToken(""); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed the backend token.\n\n", cliui.SuccessMark)
	return nil
}

func runRemove(out io.Writer, mgr *credentials.Manager, provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))

	if err := mgr.RemoveKey(provider); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed %s credentials.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(provider))

	return nil
}

// readSecret reads the first line of in when it is not an interactive
// terminal. Otherwise it prompts on out and reads with hidden input.
func readSecret(in io.Reader, out io.Writer, prompt string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, prompt)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(secret), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
