package testutils

import (
	"bytes"
	"net/http/httptest"

	"github.com/gofiber/adaptor/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/pkg/mockserver"
)

// NewMockBackend serves a mock backend over real HTTP. Close it when done.
func NewMockBackend(config mockserver.Config) *httptest.Server {
	srv := mockserver.New(config)
	return httptest.NewServer(adaptor.FiberApp(srv.App()))
}

// ExecuteCommand runs cmd with args the way the root command would,
// registering the global --config-dir and --debug flags when cmd is a
// subcommand executed on its own. It returns everything cmd wrote to its
// output and error streams.
func ExecuteCommand(cmd *cobra.Command, args ...string) (string, error) {
	if cmd.PersistentFlags().Lookup("config-dir") == nil {
		cmd.PersistentFlags().String("config-dir", "", "Override path to .gongwen/ config directory")
	}
	if cmd.PersistentFlags().Lookup("debug") == nil {
		cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	}

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
