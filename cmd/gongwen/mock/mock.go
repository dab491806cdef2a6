// Package mockcmder provides the mock command, which runs the scripted mock
// generation backend for local development and demos.
package mockcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/config"
	"github.com/papercomputeco/gongwen/pkg/logger"
	"github.com/papercomputeco/gongwen/pkg/mockserver"
)

type mockCommander struct {
	listen    string
	token     string
	chunks    []string
	delay     time.Duration
	split     int
	malformed bool
	errDetail string
	logFile   string
	debug     bool
}

const mockLongDesc string = `Run a scripted mock of the generation backend.

The mock serves the same HTTP API as the real backend: streaming
generation, conversations, templates, documents and model
configurations, all kept in memory. Generations stream a short notice
built from the request unless --chunk is given.

Flags shape the event stream to exercise client behavior:
  --delay      pause between frames
  --split      write the body in pieces that cut through lines and characters
  --malformed  interleave fragments the client has to skip
  --error      end every stream with an error event

--log-file additionally writes JSON records, with source locations, to
the given file.

Point the CLI at it with "gongwen init --preset mock" or
--server http://localhost:8765.

Examples:
  gongwen mock
  gongwen mock --token dev --delay 80ms
  gongwen mock --split 7 --malformed
  gongwen mock --error "模型服务暂不可用"`

const mockShortDesc string = "Run a scripted mock generation backend"

func NewMockCmd() *cobra.Command {
	cmder := &mockCommander{}

	cmd := &cobra.Command{
		Use:   "mock",
		Short: mockShortDesc,
		Long:  mockLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			listener, err := net.Listen("tcp", cmder.listen)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cmder.listen, err)
			}

			return cmder.serve(ctx, listener, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", config.DefaultMockListen, "Address for the mock backend to listen on")
	cmd.Flags().StringVar(&cmder.token, "token", "", "Require this bearer token (default: accept any request)")
	cmd.Flags().StringArrayVar(&cmder.chunks, "chunk", nil, "Stream this message chunk (repeatable)")
	cmd.Flags().DurationVar(&cmder.delay, "delay", 0, "Pause between stream frames")
	cmd.Flags().IntVar(&cmder.split, "split", 0, "Write the stream in pieces of this many bytes")
	cmd.Flags().BoolVar(&cmder.malformed, "malformed", false, "Interleave malformed frames")
	cmd.Flags().StringVar(&cmder.errDetail, "error", "", "End every stream with an error event carrying this detail")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *mockCommander) serverConfig(logOut io.Writer) (mockserver.Config, error) {
	if c.split < 0 {
		return mockserver.Config{}, fmt.Errorf("invalid --split %d: must not be negative", c.split)
	}
	if c.delay < 0 {
		return mockserver.Config{}, fmt.Errorf("invalid --delay %s: must not be negative", c.delay)
	}

	return mockserver.Config{
		ListenAddr: c.listen,
		Token:      c.token,
		Script: mockserver.Script{
			Chunks:      c.chunks,
			ErrorDetail: c.errDetail,
			Malformed:   c.malformed,
			Delay:       c.delay,
			SplitBytes:  c.split,
		},
		Logger: logger.New(
			logger.WithDebug(c.debug),
			logger.WithPretty(true),
			logger.WithWriter(logOut),
		),
	}, nil
}

// withLogFile tees cfg's logger into a JSON log at c.logFile. The returned
// func closes the file.
func (c *mockCommander) withLogFile(cfg *mockserver.Config) (func(), error) {
	if c.logFile == "" {
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	cfg.Logger = logger.Multi(cfg.Logger, logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithSource(true),
		logger.WithWriter(f),
	))
	return func() { f.Close() }, nil
}

// serve runs the mock on listener until ctx is done.
func (c *mockCommander) serve(ctx context.Context, listener net.Listener, out, logOut io.Writer) error {
	cfg, err := c.serverConfig(logOut)
	if err != nil {
		listener.Close()
		return err
	}

	closeLog, err := c.withLogFile(&cfg)
	if err != nil {
		listener.Close()
		return err
	}
	defer closeLog()

	server := mockserver.New(cfg)

	fmt.Fprintf(out, "\n  %s Mock backend listening on %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render("http://"+listener.Addr().String()),
	)
	if c.token != "" {
		fmt.Fprintln(out, cliui.KeyValue("Token", c.token))
	}
	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Press Ctrl+C to stop."))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.RunWithListener(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		cfg.Logger.Info("shutting down mock backend")
		if err := server.Shutdown(); err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("shutting down: %w", err)
		}
		<-errCh
		return nil
	}
}
